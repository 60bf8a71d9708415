package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"mapannai/internal/config"
	"mapannai/internal/models"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
	calls      int
}

func (s *stubGenerator) GenerateWithSystem(_ context.Context, _, userPrompt string) (string, error) {
	s.calls++
	s.lastPrompt = userPrompt
	return s.response, s.err
}

func newTestSummarizer(llm *stubGenerator) *Summarizer {
	cfg := config.Config{FoodSummaryMaxLength: 100}
	return NewSummarizer(cfg, llm, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSummarize_FoodBatchesOneCall(t *testing.T) {
	llm := &stubGenerator{
		response: "```json\n" + `[
			{"place_id": "p1", "summary_text": "招牌拉面浓郁醇厚"},
			{"place_id": "p2", "summary_text": "新鲜海鲜，性价比高"}
		]` + "\n```",
	}
	s := newTestSummarizer(llm)

	places := []*models.Place{
		{ID: "p1", Name: "Ramen", ReviewTexts: []string{"好吃"}},
		{ID: "p2", Name: "Sushi"},
	}
	if err := s.Summarize(context.Background(), models.CategoryFood, places); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if llm.calls != 1 {
		t.Errorf("model calls = %d, want one batched call", llm.calls)
	}
	if places[0].Summary != "招牌拉面浓郁醇厚" || places[1].Summary != "新鲜海鲜，性价比高" {
		t.Errorf("summaries = %q, %q", places[0].Summary, places[1].Summary)
	}

	// The prompt carries the review material the model needs.
	if !strings.Contains(llm.lastPrompt, "好吃") {
		t.Errorf("prompt does not include review text: %s", llm.lastPrompt)
	}
	var inputs []summaryInput
	start := strings.Index(llm.lastPrompt, "[")
	end := strings.LastIndex(llm.lastPrompt, "返回格式")
	if start < 0 || end < 0 {
		t.Fatalf("prompt missing payload: %s", llm.lastPrompt)
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(llm.lastPrompt[start:end])), &inputs); err != nil {
		t.Fatalf("prompt payload is not valid JSON: %v", err)
	}
	if len(inputs) != 2 || inputs[0].PlaceID != "p1" {
		t.Errorf("payload = %+v", inputs)
	}
}

func TestSummarize_MissingIDGetsPlaceholder(t *testing.T) {
	llm := &stubGenerator{response: `[{"place_id": "p1", "summary_text": "概述"}]`}
	s := newTestSummarizer(llm)

	places := []*models.Place{
		{ID: "p1", Name: "Covered"},
		{ID: "p2", Name: "Skipped"},
	}
	if err := s.Summarize(context.Background(), models.CategoryFood, places); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if places[1].Summary != PlaceholderSummary {
		t.Errorf("Summary = %q, want placeholder", places[1].Summary)
	}
}

func TestSummarize_ModelErrorFailsJob(t *testing.T) {
	llm := &stubGenerator{err: errors.New("quota exceeded")}
	s := newTestSummarizer(llm)

	err := s.Summarize(context.Background(), models.CategoryFood, []*models.Place{{ID: "p1"}})
	if err == nil {
		t.Fatal("Summarize() error = nil, want model error to propagate")
	}
}

func TestSummarize_UnparseableResponseFailsJob(t *testing.T) {
	llm := &stubGenerator{response: "这不是 JSON"}
	s := newTestSummarizer(llm)

	err := s.Summarize(context.Background(), models.CategoryFood, []*models.Place{{ID: "p1"}})
	if err == nil {
		t.Fatal("Summarize() error = nil, want parse error")
	}
}

func TestSummarize_GenerativeCategoriesSkipModel(t *testing.T) {
	llm := &stubGenerator{}
	s := newTestSummarizer(llm)

	places := []*models.Place{
		{ID: "a", Summary: "已有概要"},
		{ID: "b"},
	}
	if err := s.Summarize(context.Background(), models.CategoryAttraction, places); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if llm.calls != 0 {
		t.Errorf("model calls = %d, want 0 for generative categories", llm.calls)
	}
	if places[0].Summary != "已有概要" {
		t.Errorf("existing summary overwritten: %q", places[0].Summary)
	}
	if places[1].Summary != PlaceholderSummary {
		t.Errorf("empty summary = %q, want placeholder", places[1].Summary)
	}
}
