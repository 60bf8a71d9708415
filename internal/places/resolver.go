// Package places turns a search location and category into a ranked,
// deduplicated list of place candidates. Two mutually exclusive
// acquisition strategies exist: a structured Places-API search for the
// food category and a generative-AI search for attractions and events.
package places

import (
	"context"
	"log/slog"
	"time"

	"mapannai/internal/config"
	"mapannai/internal/models"
	"mapannai/pkg/googleplaces"
)

// Query are the inputs of one resolution run.
type Query struct {
	Lat      float64
	Lng      float64
	MainType string
	SubType  string
	Budget   string
}

// Resolver is one acquisition strategy.
type Resolver interface {
	Resolve(ctx context.Context, q Query) ([]*models.Place, error)
}

// PlacesAPI is the provider surface the resolvers depend on.
type PlacesAPI interface {
	NearbySearch(ctx context.Context, req googleplaces.NearbySearchRequest) ([]googleplaces.NearbyPlace, string, error)
	Details(ctx context.Context, placeID string, fields []string) (*googleplaces.PlaceDetails, error)
	FindPlace(ctx context.Context, query string, lat, lng float64, radius int) (string, error)
	Geocode(ctx context.Context, address string) (googleplaces.LatLng, error)
}

// TextGenerator is the generative-AI surface the resolvers depend on.
type TextGenerator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ForCategory selects the strategy for a main category. The food
// category uses the structured search; everything else goes through the
// generative search.
func ForCategory(mainType string, cfg config.Config, api PlacesAPI, llm TextGenerator, logger *slog.Logger) Resolver {
	if mainType == models.CategoryFood {
		return &searchResolver{cfg: cfg, api: api, logger: logger, sleep: time.Sleep}
	}
	return &generativeResolver{cfg: cfg, api: api, llm: llm, logger: logger}
}

// priceLevels maps a budget tier to the provider's price-level bounds
// (0 free .. 4 very expensive). Unknown tiers leave both ends open.
func priceLevels(budget string) (minPrice, maxPrice *int) {
	level := func(n int) *int { return &n }
	switch budget {
	case models.BudgetLow:
		return nil, level(1)
	case models.BudgetMid:
		return nil, level(2)
	case models.BudgetHigh:
		return level(3), level(4)
	}
	return nil, nil
}

// foodKeyword maps a food sub-type to the provider search keyword.
func foodKeyword(subType string) string {
	keywords := map[string]string{
		"异国料理": "international restaurant",
		"拉面":   "ramen",
		"烤肉":   "yakiniku",
		"寿喜烧":  "sukiyaki",
		"中华":   "chinese restaurant",
		"海鲜":   "seafood",
		"居酒屋":  "izakaya",
	}
	if kw, ok := keywords[subType]; ok {
		return kw
	}
	return "restaurant"
}
