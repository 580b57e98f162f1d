package dto

import "github.com/shopspring/decimal"

type UtilityMetricsQuery struct {
	Period      string `form:"period,default=month"`
	Date        string `form:"date"`
	UtilityType string `form:"type"` // empty = all types
}

type UtilityTrendQuery struct {
	Months int `form:"months,default=12" validate:"min=1,max=60"`
}

type AnomalyQuery struct {
	Period     string  `form:"period,default=month"`
	Date       string  `form:"date"`
	Multiplier float64 `form:"multiplier" validate:"omitempty,gt=0"`
}

// UtilityTypeMetrics is the rollup for one utility type at one property.
type UtilityTypeMetrics struct {
	UtilityType      string           `json:"utility_type"`
	ExpenseCount     int64            `json:"expense_count"`
	TotalCost        *decimal.Decimal `json:"total_cost"`
	AverageCost      *decimal.Decimal `json:"average_cost"`
	PortfolioAverage *decimal.Decimal `json:"portfolio_average"`
	CostPerUnit      *decimal.Decimal `json:"cost_per_unit"`
	CostPerSqFt      *decimal.Decimal `json:"cost_per_sqft"`
}

type UtilityMetricsResponse struct {
	PropertyID  string               `json:"property_id"`
	Period      string               `json:"period"`
	PeriodStart string               `json:"period_start"`
	PeriodEnd   string               `json:"period_end"`
	Types       []UtilityTypeMetrics `json:"types"`
}

// UtilityTrendPoint is one (month, utility type) cell of the bulk-grouped
// trend query.
type UtilityTrendPoint struct {
	PeriodStart string          `json:"period_start"`
	UtilityType string          `json:"utility_type"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	Count       int64           `json:"count"`
}

type UtilityTrendResponse struct {
	PropertyID string              `json:"property_id"`
	Months     int                 `json:"months"`
	Series     []UtilityTrendPoint `json:"series"`
}

// UtilityAnomaly flags a property-period whose cost deviates from the
// portfolio mean by more than the configured multiple of standard deviation.
type UtilityAnomaly struct {
	PropertyID    string          `json:"property_id"`
	PropertyName  string          `json:"property_name"`
	UtilityType   string          `json:"utility_type"`
	Cost          decimal.Decimal `json:"cost"`
	PortfolioMean float64         `json:"portfolio_mean"`
	StdDev        float64         `json:"std_dev"`
	Deviation     float64         `json:"deviation"` // multiples of stddev from the mean
}

type AnomalyResponse struct {
	Period      string           `json:"period"`
	PeriodStart string           `json:"period_start"`
	PeriodEnd   string           `json:"period_end"`
	Multiplier  float64          `json:"multiplier"`
	Anomalies   []UtilityAnomaly `json:"anomalies"`
}
