// Package narrative produces the Chinese summary text for each place.
// Generative-search candidates arrive with summaries already written;
// structured-search candidates get theirs from one batched model call
// over their selected reviews.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"mapannai/internal/config"
	"mapannai/internal/models"
	"mapannai/pkg/genai"
)

// PlaceholderSummary fills in when no summary could be produced.
const PlaceholderSummary = "暂无概要"

type textGenerator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type Summarizer struct {
	cfg    config.Config
	llm    textGenerator
	logger *slog.Logger
}

func NewSummarizer(cfg config.Config, llm textGenerator, logger *slog.Logger) *Summarizer {
	return &Summarizer{cfg: cfg, llm: llm, logger: logger}
}

// summaryInput is what the model sees per place.
type summaryInput struct {
	PlaceID string   `json:"place_id"`
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Rating  float64  `json:"rating"`
	Reviews []string `json:"reviews"`
}

type summaryOutput struct {
	PlaceID     string `json:"place_id"`
	SummaryText string `json:"summary_text"`
}

// Summarize fills Summary on every place. Only the food category needs
// model work; other categories just get the placeholder where the
// resolver left a summary empty.
func (s *Summarizer) Summarize(ctx context.Context, mainType string, places []*models.Place) error {
	if mainType == models.CategoryFood {
		if err := s.summarizeFood(ctx, places); err != nil {
			return err
		}
	}
	for _, place := range places {
		if place.Summary == "" {
			place.Summary = PlaceholderSummary
		}
	}
	return nil
}

// summarizeFood issues a single batched generation call for all places.
// A model failure fails the job; a per-place gap in the response only
// leaves that place with the placeholder.
func (s *Summarizer) summarizeFood(ctx context.Context, places []*models.Place) error {
	if len(places) == 0 {
		return nil
	}

	inputs := make([]summaryInput, 0, len(places))
	for _, place := range places {
		inputs = append(inputs, summaryInput{
			PlaceID: place.ID,
			Name:    place.Name,
			Address: place.Address,
			Rating:  place.Rating,
			Reviews: place.ReviewTexts,
		})
	}
	payload, err := json.Marshal(inputs)
	if err != nil {
		return fmt.Errorf("marshal summary inputs: %w", err)
	}

	raw, err := s.llm.GenerateWithSystem(ctx, s.systemPrompt(), s.userPrompt(payload))
	if err != nil {
		return fmt.Errorf("generate summaries: %w", err)
	}

	var outputs []summaryOutput
	text := genai.StripCodeFence(raw)
	if err := json.Unmarshal([]byte(text), &outputs); err != nil {
		return fmt.Errorf("parse summary response: %w", err)
	}

	byID := make(map[string]string, len(outputs))
	for _, out := range outputs {
		if out.SummaryText != "" {
			byID[out.PlaceID] = out.SummaryText
		}
	}
	for _, place := range places {
		if summary, ok := byID[place.ID]; ok {
			place.Summary = summary
		} else {
			s.logger.Warn("model returned no summary for place", "place_id", place.ID, "name", place.Name)
		}
	}
	return nil
}

func (s *Summarizer) systemPrompt() string {
	return fmt.Sprintf(`你是一个专业的美食推荐文案作者。
根据提供的餐厅信息和用户评论，为每家餐厅生成一段中文概述（%d字以内）。
概述应突出餐厅的特色菜品、口味评价和用餐体验。
仅返回 JSON 格式数据，不添加任何额外文字说明。`, s.cfg.FoodSummaryMaxLength)
}

func (s *Summarizer) userPrompt(payload []byte) string {
	return fmt.Sprintf(`以下是餐厅列表（JSON 格式），请为每家餐厅生成概述：

%s

返回格式（必须是有效的 JSON 数组，place_id 与输入一一对应）：
[
  {"place_id": "...", "summary_text": "中文概述"},
  ...
]`, payload)
}
