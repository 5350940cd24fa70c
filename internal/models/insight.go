package models

type InsightType string

const (
	InsightSpending InsightType = "spending"
	InsightAnomaly  InsightType = "anomaly"
	InsightTrend    InsightType = "trend"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type Insight struct {
	Type     InsightType `json:"type"`
	Priority Priority    `json:"priority"`
	Message  string      `json:"message"`
}

// InsightsBundle is recomputed on every request. Slices are never nil.
type InsightsBundle struct {
	Insights     []Insight       `json:"insights"`
	Analytics    []CategorySpend `json:"analytics"`
	Trends       []DailySpend    `json:"trends"`
	Anomalies    []Transaction   `json:"anomalies"`
	TopMerchants []MerchantSpend `json:"topMerchants"`
}

func EmptyInsightsBundle() InsightsBundle {
	return InsightsBundle{
		Insights:     []Insight{},
		Analytics:    []CategorySpend{},
		Trends:       []DailySpend{},
		Anomalies:    []Transaction{},
		TopMerchants: []MerchantSpend{},
	}
}
