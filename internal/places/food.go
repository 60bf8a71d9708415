package places

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"mapannai/internal/config"
	"mapannai/internal/models"
	"mapannai/pkg/googleplaces"
)

// detailFields requested for food candidates. Reviews feed the
// narrative stage; geometry feeds coordinate resolution.
var foodDetailFields = []string{
	"name", "rating", "formatted_address", "photos", "website", "url", "reviews", "geometry",
}

// searchResolver implements the structured-search strategy: paginate
// the provider's nearby search, rank everything collected by rating,
// keep the top N, then fetch full details per survivor.
type searchResolver struct {
	cfg    config.Config
	api    PlacesAPI
	logger *slog.Logger

	// sleep is the inter-page delay hook; replaced in tests.
	sleep func(time.Duration)
}

func (r *searchResolver) Resolve(ctx context.Context, q Query) ([]*models.Place, error) {
	collected, err := r.collect(ctx, q)
	if err != nil {
		return nil, err
	}

	// Collect-then-rank: sort everything gathered across pages by
	// rating and only then commit to the result cap.
	sort.SliceStable(collected, func(i, j int) bool {
		return collected[i].Rating > collected[j].Rating
	})
	if len(collected) > r.cfg.FoodMaxResults {
		collected = collected[:r.cfg.FoodMaxResults]
	}

	places := make([]*models.Place, 0, len(collected))
	for _, candidate := range collected {
		if candidate.PlaceID == "" {
			continue
		}
		place, err := r.lookup(ctx, q, candidate.PlaceID)
		if err != nil {
			// Partial results are acceptable; drop the candidate.
			r.logger.Warn("place details lookup failed, dropping candidate",
				"place_id", candidate.PlaceID, "name", candidate.Name, "error", err)
			continue
		}
		places = append(places, place)
	}
	return places, nil
}

// collect pages through the nearby search until the provider is
// exhausted or three times the result cap has been gathered, honoring
// the mandatory delay before a page token becomes valid.
func (r *searchResolver) collect(ctx context.Context, q Query) ([]googleplaces.NearbyPlace, error) {
	minPrice, maxPrice := priceLevels(q.Budget)
	req := googleplaces.NearbySearchRequest{
		Lat:      q.Lat,
		Lng:      q.Lng,
		Radius:   r.cfg.FoodRadius,
		Keyword:  foodKeyword(q.SubType),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	}

	var collected []googleplaces.NearbyPlace
	for {
		results, nextToken, err := r.api.NearbySearch(ctx, req)
		if err != nil {
			var statusErr *googleplaces.StatusError
			if errors.As(err, &statusErr) {
				// Transient provider statuses end paging but keep what
				// was already gathered.
				r.logger.Warn("nearby search returned non-OK status, stopping pagination",
					"status", statusErr.Status, "collected", len(collected))
				break
			}
			return nil, fmt.Errorf("nearby search: %w", err)
		}

		collected = append(collected, results...)

		if len(collected) >= r.cfg.FoodMaxResults*3 {
			break
		}
		if nextToken == "" {
			break
		}
		req.PageToken = nextToken
		r.sleep(r.cfg.PageTokenDelay)
	}
	return collected, nil
}

func (r *searchResolver) lookup(ctx context.Context, q Query, placeID string) (*models.Place, error) {
	details, err := r.api.Details(ctx, placeID, foodDetailFields)
	if err != nil {
		return nil, err
	}

	place := &models.Place{
		ID:      placeID,
		Name:    details.Name,
		Address: details.FormattedAddress,
		Rating:  details.Rating,
		Website: details.Website,
	}
	if place.Website == "" {
		place.Website = details.URL
	}

	if details.Geometry != nil {
		place.Coordinates = &models.Coordinates{
			Lat: details.Geometry.Location.Lat,
			Lng: details.Geometry.Location.Lng,
		}
		place.CoordSource = models.CoordsFromProvider
	} else {
		place.Coordinates = &models.Coordinates{Lat: q.Lat, Lng: q.Lng}
		place.CoordSource = models.CoordsFromCenter
		r.logger.Warn("place has no geometry, using search center", "name", place.Name)
	}

	for _, photo := range details.Photos {
		if photo.PhotoReference != "" {
			place.PhotoReferences = append(place.PhotoReferences, photo.PhotoReference)
		}
	}
	for _, review := range details.Reviews {
		place.RawReviews = append(place.RawReviews, models.Review{
			Text:   review.Text,
			Rating: review.Rating,
			Likes:  review.Likes,
		})
	}
	return place, nil
}
