package places

import (
	"log/slog"
	"sort"
	"strings"

	"mapannai/internal/models"
)

// fleaMarketKeywords classify an event as a flea market. Matching is
// case-insensitive over name and summary.
var fleaMarketKeywords = []string{
	"跳蚤市场",
	"フリーマーケット",
	"フリマ",
	"蚤の市",
	"古物市場",
	"flea market",
	"flea",
	"market",
	"古着",
	"中古",
	"リサイクル",
}

// pastKeywords flag summaries that clearly describe an already-finished
// event. Anything ambiguous stays in.
var pastKeywords = []string{
	"last month",
	"last week",
	"yesterday",
	"過去",
	"先月",
	"先週",
}

func isFleaMarket(name, summary string) bool {
	text := strings.ToLower(name + " " + summary)
	for _, kw := range fleaMarketKeywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func mentionsPastDate(summary string) bool {
	text := strings.ToLower(summary)
	for _, kw := range pastKeywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// prepareEventCandidates classifies, filters and ranks events-category
// candidates: drop clearly past events, put flea markets first, order
// stably by name within each group, then truncate.
func prepareEventCandidates(places []*models.Place, maxResults int, logger *slog.Logger) []*models.Place {
	kept := places[:0]
	for _, place := range places {
		if mentionsPastDate(place.Summary) {
			logger.Info("dropping past-dated event", "name", place.Name)
			continue
		}
		place.FleaMarket = isFleaMarket(place.Name, place.Summary)
		kept = append(kept, place)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].FleaMarket != kept[j].FleaMarket {
			return kept[i].FleaMarket
		}
		return kept[i].Name < kept[j].Name
	})

	if len(kept) > maxResults {
		kept = kept[:maxResults]
	}
	return kept
}
