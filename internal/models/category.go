package models

// Main category labels as sent by the client. The labels are the
// Chinese strings the mobile app submits verbatim.
const (
	CategoryFood       = "美食"
	CategoryAttraction = "名胜古迹和旅游景点"
	CategoryMarket     = "跳蚤市场或活动"
)

// Budget tier labels accepted for the food category.
const (
	BudgetLow  = "3000日元以内"
	BudgetMid  = "8000日元以内"
	BudgetHigh = "8000日元以上"
)

func KnownCategory(mainType string) bool {
	switch mainType {
	case CategoryFood, CategoryAttraction, CategoryMarket:
		return true
	}
	return false
}

// GenerativeCategory reports whether candidates for this category come
// from the generative-search strategy (summaries arrive pre-populated).
func GenerativeCategory(mainType string) bool {
	return mainType == CategoryAttraction || mainType == CategoryMarket
}
