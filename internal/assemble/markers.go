// Package assemble turns enriched place candidates into the markers
// document served to clients. Everything here is pure: the only inputs
// are the candidates, the category and the clock.
package assemble

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"mapannai/internal/models"
)

const editorVersion = "2.29.0"

// Assembler builds result documents. The clock is injectable so tests
// get stable timestamps.
type Assembler struct {
	ttlSeconds int
	now        func() time.Time
}

func NewAssembler(ttlSeconds int) *Assembler {
	return &Assembler{ttlSeconds: ttlSeconds, now: time.Now}
}

// Build produces the final document. Candidate order is preserved; the
// first marker is the most relevant. An empty candidate list yields a
// valid document with an empty markers array.
func (a *Assembler) Build(places []*models.Place, mainType, subType string) *models.ResultDocument {
	now := a.now().UTC()
	generatedAt := now.Format("2006-01-02T15:04:05Z")
	editorTime := now.UnixMilli()

	markers := make([]models.Marker, 0, len(places))
	for idx, place := range places {
		markerID := fmt.Sprintf("mk_%02d", idx+1)

		markers = append(markers, models.Marker{
			ID:          markerID,
			Coordinates: markerCoordinates(place),
			Content: models.MarkerContent{
				ID:          fmt.Sprintf("post_%02d", idx+1),
				Title:       place.Name,
				HeaderImage: headerImage(place),
				IconType:    iconType(mainType),
				EditorData: models.EditorData{
					Time:    editorTime,
					Blocks:  contentBlocks(place),
					Version: editorVersion,
				},
				CreatedAt: generatedAt,
				UpdatedAt: generatedAt,
			},
			RelevanceScore: relevanceScore(place.Rating, idx),
			Tags:           tagsFor(mainType, subType),
			Actions: models.MarkerActions{
				Deeplink: "mapannai://marker/" + markerID,
			},
		})
	}

	return &models.ResultDocument{
		RequestID:   "req_" + uuid.NewString()[:8],
		GeneratedAt: generatedAt,
		TTLSeconds:  a.ttlSeconds,
		Markers:     markers,
	}
}

// relevanceScore derives ranking weight from the provider rating (0-5)
// and the candidate's position, decaying by position and never dropping
// below 0.1.
func relevanceScore(rating float64, idx int) float64 {
	score := 0.5
	if rating > 0 {
		score = round2(0.5 + rating/10)
	}
	return round2(math.Max(0.1, score-float64(idx)*0.05))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func markerCoordinates(place *models.Place) models.MarkerCoordinates {
	if place.Coordinates == nil {
		return models.MarkerCoordinates{}
	}
	return models.MarkerCoordinates{
		Latitude:  place.Coordinates.Lat,
		Longitude: place.Coordinates.Lng,
	}
}

func headerImage(place *models.Place) string {
	if len(place.ImageURLs) > 0 {
		return place.ImageURLs[0]
	}
	return ""
}

// contentBlocks builds the Editor.js document for one place: header,
// image blocks, summary paragraph, and a source link when a website is
// known.
func contentBlocks(place *models.Place) []models.Block {
	blocks := []models.Block{{
		Type: "header",
		Data: map[string]any{
			"text":  place.Name,
			"level": 2,
		},
	}}

	for i, url := range place.ImageURLs {
		if url == "" {
			continue
		}
		caption := fmt.Sprintf("%s - %s", place.Name, place.Address)
		if len(place.ImageURLs) > 1 {
			caption += fmt.Sprintf(" (图%d)", i+1)
		}
		blocks = append(blocks, models.Block{
			Type: "image",
			Data: map[string]any{
				"file":       map[string]any{"url": url},
				"caption":    caption,
				"withBorder": true,
			},
		})
	}

	blocks = append(blocks, models.Block{
		Type: "paragraph",
		Data: map[string]any{"text": "【概要】" + place.Summary},
	})

	if place.Website != "" {
		blocks = append(blocks, models.Block{
			Type: "paragraph",
			Data: map[string]any{
				"text": fmt.Sprintf("信息来源：[点击跳转原链接](%s)", place.Website),
			},
		})
	}
	return blocks
}

func iconType(mainType string) string {
	switch mainType {
	case models.CategoryFood:
		return "food"
	case models.CategoryAttraction:
		return "attraction"
	case models.CategoryMarket:
		return "activity"
	}
	return "poi"
}

var foodSubTypeTags = map[string][]string{
	"异国料理": {"international", "restaurant"},
	"拉面":   {"ramen", "noodles"},
	"烤肉":   {"yakiniku", "bbq"},
	"寿喜烧":  {"sukiyaki", "hotpot"},
	"中华":   {"chinese", "restaurant"},
	"海鲜":   {"seafood", "restaurant"},
	"居酒屋":  {"izakaya", "bar"},
}

func tagsFor(mainType, subType string) []string {
	switch mainType {
	case models.CategoryFood:
		tags := []string{"food"}
		return append(tags, foodSubTypeTags[subType]...)
	case models.CategoryAttraction:
		return []string{"attraction", "sightseeing", "tourism"}
	case models.CategoryMarket:
		return []string{"activity", "event", "market"}
	}
	return nil
}
