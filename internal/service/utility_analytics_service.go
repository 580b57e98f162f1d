package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/rilaconsulting/pmpulse-sub002/internal/config"
	"github.com/rilaconsulting/pmpulse-sub002/internal/dto"
	"github.com/rilaconsulting/pmpulse-sub002/internal/period"
	"github.com/rilaconsulting/pmpulse-sub002/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type UtilityAnalyticsService interface {
	// Metrics rolls up one property's utility expenses by type for the
	// window, with the portfolio average per type and per-unit /
	// per-square-foot normalizations. Normalizations are nil when the
	// property has no units or square footage on record.
	Metrics(ctx context.Context, propertyID uuid.UUID, q dto.UtilityMetricsQuery) (*dto.UtilityMetricsResponse, error)
	// TrendSeries returns the (month × utility type) cost cells for the
	// trailing window in one grouped query.
	TrendSeries(ctx context.Context, propertyID uuid.UUID, q dto.UtilityTrendQuery) (*dto.UtilityTrendResponse, error)
	// Anomalies flags property/type cells whose cost deviates from the
	// portfolio mean by more than multiplier × standard deviation.
	Anomalies(ctx context.Context, q dto.AnomalyQuery) (*dto.AnomalyResponse, error)
}

type utilityAnalyticsService struct {
	propertyRepo repository.PropertyRepository
	expenseRepo  repository.UtilityExpenseRepository
	cfg          *config.Config
}

func NewUtilityAnalyticsService(propertyRepo repository.PropertyRepository, expenseRepo repository.UtilityExpenseRepository, cfg *config.Config) UtilityAnalyticsService {
	return &utilityAnalyticsService{propertyRepo: propertyRepo, expenseRepo: expenseRepo, cfg: cfg}
}

func (s *utilityAnalyticsService) Metrics(ctx context.Context, propertyID uuid.UUID, q dto.UtilityMetricsQuery) (*dto.UtilityMetricsResponse, error) {
	property, err := s.propertyRepo.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p := period.New(q.Period, resolveDate(q.Date))
	start, end := p.Range()

	aggregates, err := s.expenseRepo.AggregateByType(ctx, propertyID, q.UtilityType, start, end)
	if err != nil {
		return nil, err
	}

	portfolio, err := s.expenseRepo.PropertyTypeTotals(ctx, start, end)
	if err != nil {
		return nil, err
	}
	portfolioAvg := portfolioAverages(portfolio)

	types := make([]dto.UtilityTypeMetrics, 0, len(aggregates))
	for _, agg := range aggregates {
		m := dto.UtilityTypeMetrics{
			UtilityType:  agg.UtilityType,
			ExpenseCount: agg.Count,
			TotalCost:    nullableDecimal(agg.Total),
			AverageCost:  nullableDecimal(agg.Avg),
		}
		if avg, ok := portfolioAvg[agg.UtilityType]; ok {
			m.PortfolioAverage = &avg
		}
		if agg.Total.Valid {
			if property.UnitCount > 0 {
				perUnit := agg.Total.Decimal.Div(decimal.NewFromInt(int64(property.UnitCount))).Round(2)
				m.CostPerUnit = &perUnit
			}
			if property.SquareFeet > 0 {
				perSqFt := agg.Total.Decimal.Div(decimal.NewFromInt(int64(property.SquareFeet))).Round(4)
				m.CostPerSqFt = &perSqFt
			}
		}
		types = append(types, m)
	}

	return &dto.UtilityMetricsResponse{
		PropertyID:  propertyID.String(),
		Period:      string(p.Type),
		PeriodStart: start.Format("2006-01-02"),
		PeriodEnd:   end.Format("2006-01-02"),
		Types:       types,
	}, nil
}

// portfolioAverages computes the mean per-property total for each utility
// type: only properties with expenses of that type count toward the mean.
func portfolioAverages(rows []repository.PropertyTypeTotal) map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int64)
	for _, row := range rows {
		sums[row.UtilityType] = sums[row.UtilityType].Add(row.Total)
		counts[row.UtilityType]++
	}
	avgs := make(map[string]decimal.Decimal, len(sums))
	for t, sum := range sums {
		avgs[t] = sum.Div(decimal.NewFromInt(counts[t])).Round(2)
	}
	return avgs
}

func (s *utilityAnalyticsService) TrendSeries(ctx context.Context, propertyID uuid.UUID, q dto.UtilityTrendQuery) (*dto.UtilityTrendResponse, error) {
	if _, err := s.propertyRepo.FindByID(ctx, propertyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	from := thisMonth.AddDate(0, -(q.Months - 1), 0)
	to := thisMonth.AddDate(0, 1, 0)

	rows, err := s.expenseRepo.MonthlyTrendByType(ctx, propertyID, from, to)
	if err != nil {
		return nil, err
	}

	series := make([]dto.UtilityTrendPoint, len(rows))
	for i, row := range rows {
		series[i] = dto.UtilityTrendPoint{
			PeriodStart: row.Month.UTC().Format("2006-01-02"),
			UtilityType: row.UtilityType,
			TotalCost:   row.Total,
			Count:       row.Count,
		}
	}

	return &dto.UtilityTrendResponse{
		PropertyID: propertyID.String(),
		Months:     q.Months,
		Series:     series,
	}, nil
}

func (s *utilityAnalyticsService) Anomalies(ctx context.Context, q dto.AnomalyQuery) (*dto.AnomalyResponse, error) {
	multiplier := q.Multiplier
	if multiplier <= 0 {
		multiplier = s.cfg.AnomalyStdDevMultiplier
	}

	p := period.New(q.Period, resolveDate(q.Date))
	start, end := p.Range()

	rows, err := s.expenseRepo.PropertyTypeTotals(ctx, start, end)
	if err != nil {
		return nil, err
	}

	byType := make(map[string][]repository.PropertyTypeTotal)
	for _, row := range rows {
		byType[row.UtilityType] = append(byType[row.UtilityType], row)
	}

	var anomalies []dto.UtilityAnomaly
	for utilityType, typeRows := range byType {
		// A deviation needs a population: fewer than two properties per
		// type yields no spread to measure against.
		if len(typeRows) < 2 {
			continue
		}

		mean, stddev := meanAndStdDev(typeRows)
		if stddev == 0 {
			continue
		}

		for _, row := range typeRows {
			cost, _ := row.Total.Float64()
			deviation := (cost - mean) / stddev
			if math.Abs(deviation) <= multiplier {
				continue
			}
			anomalies = append(anomalies, dto.UtilityAnomaly{
				PropertyID:    row.PropertyID.String(),
				PropertyName:  row.PropertyName,
				UtilityType:   utilityType,
				Cost:          row.Total,
				PortfolioMean: mean,
				StdDev:        stddev,
				Deviation:     deviation,
			})
		}
	}

	// Worst offenders first.
	sort.SliceStable(anomalies, func(i, j int) bool {
		return math.Abs(anomalies[i].Deviation) > math.Abs(anomalies[j].Deviation)
	})

	return &dto.AnomalyResponse{
		Period:      string(p.Type),
		PeriodStart: start.Format("2006-01-02"),
		PeriodEnd:   end.Format("2006-01-02"),
		Multiplier:  multiplier,
		Anomalies:   anomalies,
	}, nil
}

func meanAndStdDev(rows []repository.PropertyTypeTotal) (mean, stddev float64) {
	sum := 0.0
	for _, row := range rows {
		v, _ := row.Total.Float64()
		sum += v
	}
	mean = sum / float64(len(rows))

	variance := 0.0
	for _, row := range rows {
		v, _ := row.Total.Float64()
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(rows))
	return mean, math.Sqrt(variance)
}
