package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mapannai/internal/config"
	"mapannai/internal/models"
	"mapannai/pkg/genai"
)

// generativeResolver implements the generative-search strategy: one
// model call produces the candidate list, including summaries and, for
// the events category, websites and explicit coordinates.
type generativeResolver struct {
	cfg    config.Config
	api    PlacesAPI
	llm    TextGenerator
	logger *slog.Logger
}

// generativePlace tolerates both field-name conventions the model has
// been observed to emit.
type generativePlace struct {
	Name         string   `json:"name"`
	PlaceName    string   `json:"place_name"`
	Address      string   `json:"address"`
	PlaceAddress string   `json:"place_address"`
	Summary      string   `json:"summary"`
	Website      string   `json:"website"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
}

func (g generativePlace) name() string {
	if g.PlaceName != "" {
		return g.PlaceName
	}
	return g.Name
}

func (g generativePlace) address() string {
	if g.PlaceAddress != "" {
		return g.PlaceAddress
	}
	return g.Address
}

func (g generativePlace) coordinates() *models.Coordinates {
	if g.Latitude != nil && g.Longitude != nil {
		return &models.Coordinates{Lat: *g.Latitude, Lng: *g.Longitude}
	}
	if g.Lat != nil && g.Lng != nil {
		return &models.Coordinates{Lat: *g.Lat, Lng: *g.Lng}
	}
	return nil
}

func (r *generativeResolver) Resolve(ctx context.Context, q Query) ([]*models.Place, error) {
	system, user := r.prompts(q)

	raw, err := r.llm.GenerateWithSystem(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("generative search: %w", err)
	}

	parsed, err := parseGenerativePlaces(raw)
	if err != nil {
		return nil, err
	}

	places := make([]*models.Place, 0, len(parsed))
	for i, gp := range parsed {
		name := gp.name()
		if name == "" {
			continue
		}
		place := &models.Place{
			// Generative candidates have no provider id; synthesize one.
			ID:          fmt.Sprintf("gemini_%d_%d", time.Now().Unix(), i),
			Name:        name,
			Address:     gp.address(),
			Summary:     gp.Summary,
			Website:     gp.Website,
			Coordinates: gp.coordinates(),
		}
		if place.Coordinates != nil {
			place.CoordSource = models.CoordsFromProvider
		}
		places = append(places, place)
	}

	// A parseable but empty result set is still a hard failure: the
	// prompt mandates a minimum count, so nothing usable came back.
	if len(places) == 0 {
		return nil, errors.New("generative search returned no places")
	}

	if q.MainType == models.CategoryMarket {
		places = prepareEventCandidates(places, r.cfg.MarketMaxResults, r.logger)
	} else if len(places) > r.cfg.AttractionMaxResults {
		places = places[:r.cfg.AttractionMaxResults]
	}

	r.resolveCoordinates(ctx, q, places)
	return places, nil
}

// resolveCoordinates applies the fallback chain to candidates whose
// coordinates the model did not supply: geocode the address, then fall
// back to the search center.
func (r *generativeResolver) resolveCoordinates(ctx context.Context, q Query, places []*models.Place) {
	for _, place := range places {
		if place.Coordinates != nil {
			continue
		}
		if place.Address != "" {
			loc, err := r.api.Geocode(ctx, place.Address)
			if err == nil {
				place.Coordinates = &models.Coordinates{Lat: loc.Lat, Lng: loc.Lng}
				place.CoordSource = models.CoordsFromGeocoder
				continue
			}
			r.logger.Warn("geocoding failed", "name", place.Name, "address", place.Address, "error", err)
		}
		place.Coordinates = &models.Coordinates{Lat: q.Lat, Lng: q.Lng}
		place.CoordSource = models.CoordsFromCenter
		r.logger.Warn("no coordinates resolved, using search center", "name", place.Name)
	}
}

// parseGenerativePlaces parses the model's textual response as a JSON
// array, accepting an optional code fence and an optional {"places":
// [...]} wrapper. An unparseable response is a stage-fatal error.
func parseGenerativePlaces(raw string) ([]generativePlace, error) {
	text := genai.StripCodeFence(raw)
	if text == "" {
		return nil, errors.New("generative search returned an empty response")
	}

	var arr []generativePlace
	if err := json.Unmarshal([]byte(text), &arr); err == nil {
		return arr, nil
	}

	var wrapper struct {
		Places []generativePlace `json:"places"`
	}
	if err := json.Unmarshal([]byte(text), &wrapper); err != nil {
		return nil, fmt.Errorf("parse generative response: %w", err)
	}
	return wrapper.Places, nil
}

func (r *generativeResolver) prompts(q Query) (system, user string) {
	if q.MainType == models.CategoryMarket {
		return r.marketPrompts(q)
	}
	return r.attractionPrompts(q)
}

func (r *generativeResolver) attractionPrompts(q Query) (string, string) {
	system := fmt.Sprintf(`你是一个专业的日本旅游信息专家。
请根据提供的经纬度坐标，搜索5公里范围内的名胜古迹、历史遗迹、文化景点、旅游景点。
对于每个地点，你需要提供：
1. 地点名称（中文或日文，尽量使用官方名称）
2. 详细地址
3. 历史意义、文化价值、建筑特色、旅游价值的中文概述（%d字以内）

注意：不需要提供图片URL，图片将通过其他方式获取。

返回格式必须是可解析的 JSON 数组。`, r.cfg.AttractionSummaryMaxLength)

	user := fmt.Sprintf(`请搜索经纬度 (%f, %f) 周围5公里范围内的名胜古迹、历史遗迹、文化景点、旅游景点。

要求：
1. 返回%d个地点
2. 每个地点必须包含：
   - name: 地点名称（尽量使用官方名称，便于后续搜索）
   - address: 详细地址
   - summary: 中文概述（%d字以内）
3. 不需要提供图片URL

返回格式（必须是有效的 JSON 数组，包含%d个地点）：
[
  {"name": "地点名称", "address": "详细地址", "summary": "中文概述"},
  ...
]`, q.Lat, q.Lng, r.cfg.AttractionMaxResults, r.cfg.AttractionSummaryMaxLength, r.cfg.AttractionMaxResults)

	return system, user
}

func (r *generativeResolver) marketPrompts(q Query) (string, string) {
	system := fmt.Sprintf(`你是一个专业的日本旅游信息专家。
请根据提供的经纬度坐标 (%f, %f)，搜索5公里范围内的跳蚤市场、文化活动、节庆活动。

对于每个地点，你需要提供：
1. 地点名称（形式：中文名称（日文名称），尽量使用官方名称）
2. 详细地址
3. 经纬度坐标（latitude: 纬度, longitude: 经度）- 必须是准确的坐标值
4. 活动内容、特色亮点的中文概述（%d字以内），必须在概述中明确指出举办时间（具体日期和时间）
5. 官方网站URL（如果存在）

重要要求和优先级规则：
- 必须返回至少%d个地点
- 优先级规则：请务必优先推荐"跳蚤市场"（フリーマーケット、フリマ、跳蚤市场），然后再推荐其他类型的活动
- 结果必须按相关性降序排列，跳蚤市场排在前面，其他活动排在后面
- 只返回未来%d天内的活动
- 仅返回 JSON 格式数据，不添加任何额外文字说明

返回格式必须是可解析的 JSON 数组，包含至少%d个地点。`,
		q.Lat, q.Lng, r.cfg.AttractionSummaryMaxLength,
		r.cfg.MarketMaxResults, r.cfg.EventSearchDaysAhead, r.cfg.MarketMaxResults)

	user := fmt.Sprintf(`请搜索经纬度 (%f, %f) 周围5公里范围内的跳蚤市场、文化活动、节庆活动。

要求：
1. 必须返回至少%d个地点（如果符合条件的活动不足，请扩大搜索范围或包含更多相关活动）
2. 优先级要求：跳蚤市场排在前面，其他活动排在后面
3. 每个地点必须包含：
   - place_name: 地点名称（形式：中文名称（日文名称））
   - place_address: 详细地址
   - latitude: 纬度（浮点数，例如：35.4437）- 必填项
   - longitude: 经度（浮点数，例如：139.6380）- 必填项
   - summary: 中文概述（%d字以内），必须明确指出举办时间（具体日期和时间）
   - website: 官方网站URL（如果不存在则为空字符串）
4. 只返回未来%d天内的活动
5. 不需要提供图片URL

返回格式（必须是有效的 JSON 数组，跳蚤市场优先）：`,
		q.Lat, q.Lng, r.cfg.MarketMaxResults,
		r.cfg.AttractionSummaryMaxLength, r.cfg.EventSearchDaysAhead)

	return system, user
}
