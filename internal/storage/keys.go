package storage

import (
	"fmt"
	"strings"
	"unicode"
)

// JobKey returns the canonical object key for a job's result document.
func JobKey(prefix, jobID string) string {
	return fmt.Sprintf("%s%s.json", prefix, jobID)
}

// ImageKey returns the object key for an uploaded place image. The
// timestamp keeps keys unique across jobs; the index distinguishes
// multiple photos of one place.
func ImageKey(prefix, placeName string, index int, unixTime int64) string {
	name := sanitizeName(placeName)
	if index > 0 {
		return fmt.Sprintf("%s%d_%s_%d.jpg", prefix, unixTime, name, index)
	}
	return fmt.Sprintf("%s%d_%s.jpg", prefix, unixTime, name)
}

// sanitizeName reduces a place name to a safe object key fragment:
// letters, digits, hyphens and underscores, spaces collapsed to
// underscores, capped at 50 runes.
func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	runes := []rune(strings.Trim(b.String(), "_"))
	if len(runes) > 50 {
		runes = runes[:50]
	}
	return string(runes)
}
