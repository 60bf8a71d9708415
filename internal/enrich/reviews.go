package enrich

import (
	"sort"

	"mapannai/internal/models"
)

// maxSelectedReviews caps how many reviews feed narrative generation.
const maxSelectedReviews = 5

// SelectTopReviews fills ReviewTexts from each place's raw reviews:
// textless reviews are dropped, the rest are ordered by likes then
// rating, and only the top few are kept.
func SelectTopReviews(places []*models.Place) {
	for _, place := range places {
		kept := make([]models.Review, 0, len(place.RawReviews))
		for _, review := range place.RawReviews {
			if review.Text != "" {
				kept = append(kept, review)
			}
		}

		sort.SliceStable(kept, func(i, j int) bool {
			if kept[i].Likes != kept[j].Likes {
				return kept[i].Likes > kept[j].Likes
			}
			return kept[i].Rating > kept[j].Rating
		})

		if len(kept) > maxSelectedReviews {
			kept = kept[:maxSelectedReviews]
		}
		place.ReviewTexts = place.ReviewTexts[:0]
		for _, review := range kept {
			place.ReviewTexts = append(place.ReviewTexts, review.Text)
		}
	}
}
