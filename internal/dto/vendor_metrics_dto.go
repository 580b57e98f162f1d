package dto

import "github.com/shopspring/decimal"

// MetricsQuery is bound from the query string of every vendor metric route.
// An unknown period falls back to "month"; an empty date defaults to now.
type MetricsQuery struct {
	Period       string `form:"period,default=month"`
	Date         string `form:"date"` // YYYY-MM-DD
	IncludeGroup bool   `form:"include_group"`
}

// TrendQuery scopes the trailing-month trend window. Every point carries
// count, spend, and average columns; consumers pick what to chart.
type TrendQuery struct {
	Months int `form:"months,default=12" validate:"min=1,max=60"`
}

type TradeComparisonQuery struct {
	Period string `form:"period,default=month"`
	Date   string `form:"date"`
	Metric string `form:"metric,default=spend" validate:"omitempty,oneof=count spend avg_cost avg_completion"`
}

// VendorMetricsResponse is the period-scoped rollup for one vendor.
// Averages are pointers: nil means "no activity", which the UI renders
// differently from a zero.
type VendorMetricsResponse struct {
	VendorID              string           `json:"vendor_id"`
	Period                string           `json:"period"`
	PeriodStart           string           `json:"period_start"`
	PeriodEnd             string           `json:"period_end"`
	IncludeGroup          bool             `json:"include_group"`
	WorkOrderCount        int64            `json:"work_order_count"`
	TotalSpend            *decimal.Decimal `json:"total_spend"`
	AverageCostPerWO      *decimal.Decimal `json:"average_cost_per_wo"`
	AverageCompletionDays *float64         `json:"average_completion_days"`
}

// TrendPoint is one row of a bulk-grouped trend series.
type TrendPoint struct {
	PeriodStart    string           `json:"period_start"`
	WorkOrderCount int64            `json:"work_order_count"`
	TotalSpend     decimal.Decimal  `json:"total_spend"`
	AverageCost    *decimal.Decimal `json:"average_cost"`
}

type TrendResponse struct {
	VendorID string       `json:"vendor_id"`
	Months   int          `json:"months"`
	Series   []TrendPoint `json:"series"`
}

// PeriodComparisonResponse reports current vs previous full period.
// ChangePercent is nil when the previous period is zero or missing — this is
// a real "no baseline" outcome, not a divide-by-zero artifact.
type PeriodComparisonResponse struct {
	VendorID      string           `json:"vendor_id"`
	Period        string           `json:"period"`
	CurrentSpend  *decimal.Decimal `json:"current_spend"`
	PreviousSpend *decimal.Decimal `json:"previous_spend"`
	CurrentCount  int64            `json:"current_count"`
	PreviousCount int64            `json:"previous_count"`
	ChangePercent *float64         `json:"change_percent"`
}

// TradeRanking places a vendor among its trade peers.
type TradeRanking struct {
	Trade        string   `json:"trade"`
	Metric       string   `json:"metric"`
	Rank         int      `json:"rank"`
	Total        int      `json:"total"`
	Direction    string   `json:"direction"` // above | below | at
	VendorValue  *float64 `json:"vendor_value"`
	TradeAverage *float64 `json:"trade_average"`
}

type TradeComparisonResponse struct {
	VendorID string         `json:"vendor_id"`
	Rankings []TradeRanking `json:"rankings"`
}

// ResponseTimeBucket is one fixed day-range of the completion breakdown.
type ResponseTimeBucket struct {
	Label      string  `json:"label"` // "0-1", "2-3", "4-7", "8-14", "15-30", "31+"
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type ResponseTimeResponse struct {
	VendorID string               `json:"vendor_id"`
	Total    int64                `json:"total"`
	Buckets  []ResponseTimeBucket `json:"buckets"`
}
