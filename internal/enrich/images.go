// Package enrich augments resolved place candidates with durable image
// URLs and a selection of their best reviews. Image failures never fail
// a job; a place simply ships without pictures.
package enrich

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"mapannai/internal/config"
	"mapannai/internal/models"
	"mapannai/internal/storage"
	"mapannai/pkg/googleplaces"
)

// placesAPI is the provider surface used to backfill attraction records.
type placesAPI interface {
	FindPlace(ctx context.Context, query string, lat, lng float64, radius int) (string, error)
	Details(ctx context.Context, placeID string, fields []string) (*googleplaces.PlaceDetails, error)
}

type photoFetcher interface {
	FetchPhoto(ctx context.Context, photoReference string, maxWidth int) (io.ReadCloser, string, error)
}

type imageStore interface {
	UploadImage(ctx context.Context, objectKey string, r io.Reader, contentType string) (string, error)
}

var attractionDetailFields = []string{
	"name", "rating", "formatted_address", "photos", "website", "url", "geometry",
}

// Enricher uploads place photos to object storage and rewrites each
// place's image list to the resulting public URLs.
type Enricher struct {
	cfg    config.Config
	api    placesAPI
	photos photoFetcher
	store  imageStore
	logger *slog.Logger

	// now feeds the object key timestamp; replaced in tests.
	now func() time.Time
}

func NewEnricher(cfg config.Config, api placesAPI, photos photoFetcher, store imageStore, logger *slog.Logger) *Enricher {
	return &Enricher{
		cfg:    cfg,
		api:    api,
		photos: photos,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// EnrichImages attaches image URLs appropriate for the category: one
// photo per food place, several per attraction, none for events.
func (e *Enricher) EnrichImages(ctx context.Context, mainType string, lat, lng float64, places []*models.Place) {
	switch mainType {
	case models.CategoryFood:
		e.enrichFood(ctx, places)
	case models.CategoryAttraction:
		e.enrichAttractions(ctx, lat, lng, places)
	case models.CategoryMarket:
		// Events carry no images.
	}
}

// enrichFood uploads the first photo of each place, bounded by the
// configured upload concurrency.
func (e *Enricher) enrichFood(ctx context.Context, places []*models.Place) {
	sem := make(chan struct{}, e.cfg.MaxImageUploads)
	var wg sync.WaitGroup

	for _, place := range places {
		if len(place.PhotoReferences) == 0 {
			continue
		}
		wg.Add(1)
		go func(p *models.Place) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			url, err := e.uploadPhoto(ctx, p.Name, p.PhotoReferences[0], 0)
			if err != nil {
				e.logger.Warn("image upload failed", "name", p.Name, "error", err)
				return
			}
			p.ImageURLs = []string{url}
		}(place)
	}
	wg.Wait()
}

// enrichAttractions backfills each candidate from the structured
// provider where a text search finds it, then uploads up to the
// configured number of photos per place. Index-keyed slots keep the
// provider's photo order even though uploads run concurrently.
func (e *Enricher) enrichAttractions(ctx context.Context, lat, lng float64, places []*models.Place) {
	for _, place := range places {
		e.backfillAttraction(ctx, lat, lng, place)
	}

	sem := make(chan struct{}, e.cfg.MaxImageUploads)
	var wg sync.WaitGroup
	slots := make([][]string, len(places))

	for pi, place := range places {
		refs := place.PhotoReferences
		if len(refs) > e.cfg.AttractionImageCount {
			refs = refs[:e.cfg.AttractionImageCount]
		}
		if len(refs) == 0 {
			continue
		}
		slots[pi] = make([]string, len(refs))

		for i, ref := range refs {
			wg.Add(1)
			go func(p *models.Place, pi, i int, ref string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				url, err := e.uploadPhoto(ctx, p.Name, ref, i)
				if err != nil {
					e.logger.Warn("image upload failed", "name", p.Name, "index", i, "error", err)
					return
				}
				slots[pi][i] = url
			}(place, pi, i, ref)
		}
	}
	wg.Wait()

	for pi, place := range places {
		for _, url := range slots[pi] {
			if url != "" {
				place.ImageURLs = append(place.ImageURLs, url)
			}
		}
	}
}

// backfillAttraction merges the structured provider's record into a
// generative candidate when a text search finds a match. Best effort:
// misses and lookup failures leave the candidate as generated.
func (e *Enricher) backfillAttraction(ctx context.Context, lat, lng float64, place *models.Place) {
	placeID, err := e.api.FindPlace(ctx, place.Name, lat, lng, e.cfg.AttractionRadius)
	if err != nil {
		if !errors.Is(err, googleplaces.ErrNoResults) {
			e.logger.Warn("attraction text search failed", "name", place.Name, "error", err)
		}
		return
	}

	details, err := e.api.Details(ctx, placeID, attractionDetailFields)
	if err != nil {
		e.logger.Warn("attraction details lookup failed", "name", place.Name, "error", err)
		return
	}

	place.ID = placeID
	if details.Rating > 0 {
		place.Rating = details.Rating
	}
	if place.Address == "" && details.FormattedAddress != "" {
		place.Address = details.FormattedAddress
	}
	if place.Website == "" {
		if details.Website != "" {
			place.Website = details.Website
		} else {
			place.Website = details.URL
		}
	}
	if details.Geometry != nil {
		place.Coordinates = &models.Coordinates{
			Lat: details.Geometry.Location.Lat,
			Lng: details.Geometry.Location.Lng,
		}
		place.CoordSource = models.CoordsFromProvider
	}
	for _, photo := range details.Photos {
		if photo.PhotoReference != "" {
			place.PhotoReferences = append(place.PhotoReferences, photo.PhotoReference)
		}
	}
}

func (e *Enricher) uploadPhoto(ctx context.Context, placeName, photoReference string, index int) (string, error) {
	body, contentType, err := e.photos.FetchPhoto(ctx, photoReference, e.cfg.ImageMaxWidth)
	if err != nil {
		return "", err
	}
	defer body.Close()

	key := storage.ImageKey(e.cfg.ImagePrefix, placeName, index, e.now().Unix())
	return e.store.UploadImage(ctx, key, body, contentType)
}
