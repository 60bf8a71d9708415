package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"mapannai/internal/assemble"
	"mapannai/internal/config"
	"mapannai/internal/enrich"
	"mapannai/internal/models"
	"mapannai/internal/narrative"
	"mapannai/pkg/googleplaces"
)

type stubPlacesAPI struct {
	pages   []googleplaces.NearbyPlace
	details map[string]*googleplaces.PlaceDetails
}

func (s *stubPlacesAPI) NearbySearch(_ context.Context, _ googleplaces.NearbySearchRequest) ([]googleplaces.NearbyPlace, string, error) {
	return s.pages, "", nil
}

func (s *stubPlacesAPI) Details(_ context.Context, placeID string, _ []string) (*googleplaces.PlaceDetails, error) {
	d, ok := s.details[placeID]
	if !ok {
		return nil, fmt.Errorf("no details for %s", placeID)
	}
	return d, nil
}

func (s *stubPlacesAPI) FindPlace(_ context.Context, _ string, _, _ float64, _ int) (string, error) {
	return "", googleplaces.ErrNoResults
}

func (s *stubPlacesAPI) Geocode(_ context.Context, _ string) (googleplaces.LatLng, error) {
	return googleplaces.LatLng{}, googleplaces.ErrNoResults
}

type stubLLM struct {
	responses []string
	err       error
	calls     int
}

func (s *stubLLM) GenerateWithSystem(_ context.Context, _, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	resp := s.responses[s.calls%len(s.responses)]
	s.calls++
	return resp, nil
}

type stubPhotoFetcher struct{}

func (stubPhotoFetcher) FetchPhoto(_ context.Context, _ string, _ int) (io.ReadCloser, string, error) {
	return io.NopCloser(strings.NewReader("jpeg")), "image/jpeg", nil
}

type stubImageStore struct{}

func (stubImageStore) UploadImage(_ context.Context, key string, _ io.Reader, _ string) (string, error) {
	return "https://img.example.com/" + key, nil
}

type stubRecordStore struct {
	err     error
	records []models.JobRecord
}

func (s *stubRecordStore) PutJobRecord(_ context.Context, rec models.JobRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func executorConfig() config.Config {
	return config.Config{
		FoodRadius:                 500,
		FoodMaxResults:             5,
		AttractionRadius:           5000,
		AttractionMaxResults:       5,
		MarketMaxResults:           5,
		AttractionSummaryMaxLength: 200,
		FoodSummaryMaxLength:       100,
		EventSearchDaysAhead:       30,
		MaxImageUploads:            5,
		AttractionImageCount:       3,
		ImageMaxWidth:              800,
		ImagePrefix:                "poi-images/",
		ResultTTL:                  300,
	}
}

func newTestExecutor(api *stubPlacesAPI, llm *stubLLM, store *stubRecordStore) *Executor {
	cfg := executorConfig()
	logger := testLogger()
	return NewExecutor(
		cfg,
		api,
		llm,
		enrich.NewEnricher(cfg, api, stubPhotoFetcher{}, stubImageStore{}, logger),
		narrative.NewSummarizer(cfg, llm, logger),
		assemble.NewAssembler(cfg.ResultTTL),
		store,
		logger,
	)
}

func dispatchPayload(t *testing.T, mainType string) []byte {
	t.Helper()
	payload, err := json.Marshal(models.JobParams{
		JobID:     "job_0123456789abcdef0123456789abcdef",
		Lat:       35.44,
		Lng:       139.63,
		MainType:  mainType,
		CreatedAt: time.Now().UTC().Format("2006-01-02T15:04:05Z"),
	})
	if err != nil {
		t.Fatal(err)
	}
	return payload
}

func TestExecute_MarketJobCompletes(t *testing.T) {
	llm := &stubLLM{responses: []string{`[
		{"place_name": "蚤の市", "place_address": "a", "latitude": 35.1, "longitude": 139.1, "summary": "周末举办的古物市場"},
		{"place_name": "夏祭り", "place_address": "b", "latitude": 35.2, "longitude": 139.2, "summary": "夏日祭典"}
	]`}}
	store := &stubRecordStore{}
	e := newTestExecutor(&stubPlacesAPI{}, llm, store)

	e.Execute(context.Background(), dispatchPayload(t, models.CategoryMarket))

	if len(store.records) != 1 {
		t.Fatalf("persisted %d records, want 1", len(store.records))
	}
	rec := store.records[0]
	if rec.Status != models.StatusCompleted || rec.Result == nil {
		t.Fatalf("record = %+v, want completed with a result", rec)
	}
	if len(rec.Result.Markers) != 2 {
		t.Fatalf("markers = %d, want 2", len(rec.Result.Markers))
	}
	if rec.Result.Markers[0].Content.Title != "蚤の市" {
		t.Errorf("first marker = %q, want the flea market first", rec.Result.Markers[0].Content.Title)
	}
	if rec.Result.Markers[0].Content.IconType != "activity" {
		t.Errorf("icon type = %q", rec.Result.Markers[0].Content.IconType)
	}
}

func TestExecute_FoodJobCompletes(t *testing.T) {
	api := &stubPlacesAPI{
		pages: []googleplaces.NearbyPlace{{PlaceID: "p1", Name: "Ramen", Rating: 4.5}},
		details: map[string]*googleplaces.PlaceDetails{
			"p1": {
				Name:             "Ramen",
				Rating:           4.5,
				FormattedAddress: "Tokyo",
				Geometry:         &googleplaces.Geometry{Location: googleplaces.LatLng{Lat: 35.1, Lng: 139.1}},
				Photos:           []googleplaces.Photo{{PhotoReference: "ph-1"}},
				Reviews:          []googleplaces.Review{{Text: "很好吃", Rating: 5, Likes: 3}},
			},
		},
	}
	llm := &stubLLM{responses: []string{`[{"place_id": "p1", "summary_text": "招牌拉面汤头浓郁"}]`}}
	store := &stubRecordStore{}
	e := newTestExecutor(api, llm, store)

	e.Execute(context.Background(), dispatchPayload(t, models.CategoryFood))

	if len(store.records) != 1 {
		t.Fatalf("persisted %d records, want 1", len(store.records))
	}
	rec := store.records[0]
	if rec.Status != models.StatusCompleted {
		t.Fatalf("record = %+v, want completed", rec)
	}
	marker := rec.Result.Markers[0]
	if marker.Content.HeaderImage == "" {
		t.Error("food marker has no header image")
	}
	if !strings.Contains(blocksText(marker), "招牌拉面汤头浓郁") {
		t.Error("marker blocks missing the generated summary")
	}
}

func TestExecute_EmptyGenerativeResponseFails(t *testing.T) {
	llm := &stubLLM{responses: []string{"[]"}}
	store := &stubRecordStore{}
	e := newTestExecutor(&stubPlacesAPI{}, llm, store)

	e.Execute(context.Background(), dispatchPayload(t, models.CategoryAttraction))

	if len(store.records) != 1 {
		t.Fatalf("persisted %d records, want 1", len(store.records))
	}
	rec := store.records[0]
	if rec.Status != models.StatusFailed {
		t.Fatalf("status = %q, want failed", rec.Status)
	}
	if rec.Error == "" {
		t.Error("failed record has an empty error")
	}
	if rec.Result != nil {
		t.Error("failed record carries a result")
	}
}

func TestExecute_PersistFailureIsSwallowed(t *testing.T) {
	llm := &stubLLM{responses: []string{"[]"}}
	store := &stubRecordStore{err: errors.New("storage down")}
	e := newTestExecutor(&stubPlacesAPI{}, llm, store)

	// Must not panic or retry; the error is logged and the message can
	// be committed by the caller.
	e.Execute(context.Background(), dispatchPayload(t, models.CategoryAttraction))
}

func TestExecute_UndecodablePayloadDropped(t *testing.T) {
	store := &stubRecordStore{}
	e := newTestExecutor(&stubPlacesAPI{}, &stubLLM{responses: []string{"[]"}}, store)

	e.Execute(context.Background(), []byte("not json"))

	if len(store.records) != 0 {
		t.Errorf("persisted %d records for an undecodable payload", len(store.records))
	}
}

func blocksText(m models.Marker) string {
	var b strings.Builder
	for _, block := range m.Content.EditorData.Blocks {
		if text, ok := block.Data["text"].(string); ok {
			b.WriteString(text)
		}
	}
	return b.String()
}
