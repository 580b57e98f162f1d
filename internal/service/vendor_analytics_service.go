package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/rilaconsulting/pmpulse-sub002/internal/dto"
	"github.com/rilaconsulting/pmpulse-sub002/internal/period"
	"github.com/rilaconsulting/pmpulse-sub002/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// completionBucketOrder fixes the display order of the response-time
// breakdown. Buckets without rows still appear with a zero count.
var completionBucketOrder = []string{"0-1", "2-3", "4-7", "8-14", "15-30", "31+"}

type VendorAnalyticsService interface {
	// Metrics is the period-scoped rollup for one vendor: work order count,
	// total spend, non-zero average cost, and average completion days.
	// Averages are nil when the window has no qualifying rows.
	Metrics(ctx context.Context, vendorID uuid.UUID, q dto.MetricsQuery) (*dto.VendorMetricsResponse, error)
	// TrendSeries returns one point per calendar month over the trailing
	// window, zero-filled so the series always has exactly q.Months points.
	TrendSeries(ctx context.Context, vendorID uuid.UUID, q dto.TrendQuery) (*dto.TrendResponse, error)
	// PeriodComparison reports the current window against the immediately
	// preceding window of the same length. ChangePercent is nil when the
	// previous window had no spend — there is no baseline to compare to.
	PeriodComparison(ctx context.Context, vendorID uuid.UUID, q dto.MetricsQuery) (*dto.PeriodComparisonResponse, error)
	// TradeComparison ranks the vendor against canonical peers sharing each
	// of its trades, by the chosen metric. Lower is better for avg_cost and
	// avg_completion; higher is better for count and spend.
	TradeComparison(ctx context.Context, vendorID uuid.UUID, q dto.TradeComparisonQuery) (*dto.TradeComparisonResponse, error)
	// ResponseTimes buckets the vendor's completed work orders by days to
	// completion.
	ResponseTimes(ctx context.Context, vendorID uuid.UUID, q dto.MetricsQuery) (*dto.ResponseTimeResponse, error)
}

type vendorAnalyticsService struct {
	vendorRepo repository.VendorRepository
	woRepo     repository.WorkOrderRepository
}

func NewVendorAnalyticsService(vendorRepo repository.VendorRepository, woRepo repository.WorkOrderRepository) VendorAnalyticsService {
	return &vendorAnalyticsService{vendorRepo: vendorRepo, woRepo: woRepo}
}

// resolveDate parses an optional YYYY-MM-DD reference date, defaulting to
// the current instant.
func resolveDate(raw string) time.Time {
	if raw == "" {
		return time.Now().UTC()
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Now().UTC()
	}
	return d
}

// scopeIDs resolves the vendor ids a metric covers: just the vendor, or its
// whole canonical/duplicate group. Duplicates represent the same business,
// so group mode folds their work orders in.
func (s *vendorAnalyticsService) scopeIDs(ctx context.Context, vendorID uuid.UUID, includeGroup bool) ([]uuid.UUID, error) {
	if _, err := s.vendorRepo.FindByID(ctx, vendorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !includeGroup {
		return []uuid.UUID{vendorID}, nil
	}
	return s.vendorRepo.GroupIDs(ctx, vendorID)
}

func (s *vendorAnalyticsService) Metrics(ctx context.Context, vendorID uuid.UUID, q dto.MetricsQuery) (*dto.VendorMetricsResponse, error) {
	ids, err := s.scopeIDs(ctx, vendorID, q.IncludeGroup)
	if err != nil {
		return nil, err
	}

	p := period.New(q.Period, resolveDate(q.Date))
	start, end := p.Range()

	agg, err := s.woRepo.Aggregate(ctx, ids, start, end)
	if err != nil {
		return nil, err
	}
	avgDays, err := s.woRepo.AvgCompletionDays(ctx, ids, start, end)
	if err != nil {
		return nil, err
	}

	return &dto.VendorMetricsResponse{
		VendorID:              vendorID.String(),
		Period:                string(p.Type),
		PeriodStart:           start.Format("2006-01-02"),
		PeriodEnd:             end.Format("2006-01-02"),
		IncludeGroup:          q.IncludeGroup,
		WorkOrderCount:        agg.Count,
		TotalSpend:            nullableDecimal(agg.Total),
		AverageCostPerWO:      nullableDecimal(agg.AvgNonZero),
		AverageCompletionDays: avgDays,
	}, nil
}

func (s *vendorAnalyticsService) TrendSeries(ctx context.Context, vendorID uuid.UUID, q dto.TrendQuery) (*dto.TrendResponse, error) {
	ids, err := s.scopeIDs(ctx, vendorID, false)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	from := thisMonth.AddDate(0, -(q.Months - 1), 0)
	to := thisMonth.AddDate(0, 1, 0)

	rows, err := s.woRepo.MonthlyTrend(ctx, ids, from, to)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]repository.MonthlyWorkOrderRow, len(rows))
	for _, row := range rows {
		byMonth[row.Month.UTC().Format("2006-01")] = row
	}

	// Zero-fill: exactly one point per month, in chronological order.
	series := make([]dto.TrendPoint, 0, q.Months)
	for m := from; m.Before(to); m = m.AddDate(0, 1, 0) {
		point := dto.TrendPoint{
			PeriodStart: m.Format("2006-01-02"),
			TotalSpend:  decimal.Zero,
		}
		if row, ok := byMonth[m.Format("2006-01")]; ok {
			point.WorkOrderCount = row.Count
			point.TotalSpend = row.Total
			point.AverageCost = nullableDecimal(row.AvgNonZero)
		}
		series = append(series, point)
	}

	return &dto.TrendResponse{
		VendorID: vendorID.String(),
		Months:   q.Months,
		Series:   series,
	}, nil
}

func (s *vendorAnalyticsService) PeriodComparison(ctx context.Context, vendorID uuid.UUID, q dto.MetricsQuery) (*dto.PeriodComparisonResponse, error) {
	ids, err := s.scopeIDs(ctx, vendorID, q.IncludeGroup)
	if err != nil {
		return nil, err
	}

	p := period.New(q.Period, resolveDate(q.Date))
	curStart, curEnd := p.Range()
	prevStart, prevEnd := p.Previous()

	current, err := s.woRepo.Aggregate(ctx, ids, curStart, curEnd)
	if err != nil {
		return nil, err
	}
	previous, err := s.woRepo.Aggregate(ctx, ids, prevStart, prevEnd)
	if err != nil {
		return nil, err
	}

	resp := &dto.PeriodComparisonResponse{
		VendorID:      vendorID.String(),
		Period:        string(p.Type),
		CurrentSpend:  nullableDecimal(current.Total),
		PreviousSpend: nullableDecimal(previous.Total),
		CurrentCount:  current.Count,
		PreviousCount: previous.Count,
	}

	if previous.Total.Valid && !previous.Total.Decimal.IsZero() {
		cur := decimal.Zero
		if current.Total.Valid {
			cur = current.Total.Decimal
		}
		change, _ := cur.Sub(previous.Total.Decimal).
			Div(previous.Total.Decimal).
			Mul(decimal.NewFromInt(100)).Float64()
		resp.ChangePercent = &change
	}

	return resp, nil
}

func (s *vendorAnalyticsService) TradeComparison(ctx context.Context, vendorID uuid.UUID, q dto.TradeComparisonQuery) (*dto.TradeComparisonResponse, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	trades := vendor.TradeList()
	resp := &dto.TradeComparisonResponse{
		VendorID: vendorID.String(),
		Rankings: []dto.TradeRanking{},
	}
	if len(trades) == 0 {
		return resp, nil
	}

	p := period.New(q.Period, resolveDate(q.Date))
	start, end := p.Range()

	canonical, err := s.vendorRepo.ListCanonical(ctx)
	if err != nil {
		return nil, err
	}

	// Peers per trade, from the already-loaded canonical set. The vendor is
	// always included in its own trades, even when it is a duplicate record.
	peersByTrade := make(map[string][]uuid.UUID, len(trades))
	allPeers := map[uuid.UUID]struct{}{vendorID: {}}
	for _, trade := range trades {
		peersByTrade[trade] = []uuid.UUID{}
	}
	for i := range canonical {
		for _, trade := range canonical[i].TradeList() {
			if _, ok := peersByTrade[trade]; !ok {
				continue
			}
			if canonical[i].ID == vendorID {
				continue
			}
			peersByTrade[trade] = append(peersByTrade[trade], canonical[i].ID)
			allPeers[canonical[i].ID] = struct{}{}
		}
	}

	peerIDs := make([]uuid.UUID, 0, len(allPeers))
	for id := range allPeers {
		peerIDs = append(peerIDs, id)
	}

	// One grouped query covers every peer of every trade.
	rows, err := s.woRepo.VendorAggregates(ctx, peerIDs, start, end)
	if err != nil {
		return nil, err
	}
	values := make(map[uuid.UUID]*float64, len(rows))
	for _, row := range rows {
		values[row.VendorID] = metricValue(row, q.Metric)
	}

	lowerIsBetter := q.Metric == "avg_cost" || q.Metric == "avg_completion"

	for _, trade := range trades {
		ranking := rankWithinTrade(trade, q.Metric, vendorID, append(peersByTrade[trade], vendorID), values, lowerIsBetter)
		resp.Rankings = append(resp.Rankings, ranking)
	}

	return resp, nil
}

// metricValue extracts the chosen metric from a vendor's grouped rollup.
// Nil means the vendor has no qualifying data for an average metric.
func metricValue(row repository.VendorAggregateRow, metric string) *float64 {
	switch metric {
	case "count":
		v := float64(row.Count)
		return &v
	case "avg_cost":
		if !row.AvgNonZero.Valid {
			return nil
		}
		v, _ := row.AvgNonZero.Decimal.Float64()
		return &v
	case "avg_completion":
		return row.AvgCompletionDays
	default: // spend
		v, _ := row.Total.Float64()
		return &v
	}
}

func rankWithinTrade(trade, metric string, vendorID uuid.UUID, memberIDs []uuid.UUID, values map[uuid.UUID]*float64, lowerIsBetter bool) dto.TradeRanking {
	type entry struct {
		id    uuid.UUID
		value float64
	}

	// Count and spend default to zero for vendors with no rows; average
	// metrics exclude them from the ranking entirely.
	var entries []entry
	sum := 0.0
	for _, id := range memberIDs {
		v, ok := values[id]
		if !ok || v == nil {
			if metric == "count" || metric == "spend" || metric == "" {
				zero := 0.0
				v = &zero
			} else {
				continue
			}
		}
		entries = append(entries, entry{id: id, value: *v})
		sum += *v
	}

	ranking := dto.TradeRanking{
		Trade:  trade,
		Metric: metric,
		Total:  len(entries),
	}
	if len(entries) == 0 {
		return ranking
	}

	avg := sum / float64(len(entries))
	ranking.TradeAverage = &avg

	sort.SliceStable(entries, func(i, j int) bool {
		if lowerIsBetter {
			return entries[i].value < entries[j].value
		}
		return entries[i].value > entries[j].value
	})

	for i, e := range entries {
		if e.id != vendorID {
			continue
		}
		ranking.Rank = i + 1
		v := e.value
		ranking.VendorValue = &v
		switch {
		case math.Abs(v-avg) < 1e-9:
			ranking.Direction = "at"
		case v > avg:
			ranking.Direction = "above"
		default:
			ranking.Direction = "below"
		}
	}
	return ranking
}

func (s *vendorAnalyticsService) ResponseTimes(ctx context.Context, vendorID uuid.UUID, q dto.MetricsQuery) (*dto.ResponseTimeResponse, error) {
	ids, err := s.scopeIDs(ctx, vendorID, q.IncludeGroup)
	if err != nil {
		return nil, err
	}

	p := period.New(q.Period, resolveDate(q.Date))
	start, end := p.Range()

	rows, err := s.woRepo.CompletionBuckets(ctx, ids, start, end)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	var total int64
	for _, row := range rows {
		counts[row.Bucket] = row.Count
		total += row.Count
	}

	buckets := make([]dto.ResponseTimeBucket, 0, len(completionBucketOrder))
	for _, label := range completionBucketOrder {
		b := dto.ResponseTimeBucket{Label: label, Count: counts[label]}
		if total > 0 {
			b.Percentage = math.Round(float64(b.Count)/float64(total)*10000) / 100
		}
		buckets = append(buckets, b)
	}

	return &dto.ResponseTimeResponse{
		VendorID: vendorID.String(),
		Total:    total,
		Buckets:  buckets,
	}, nil
}

// nullableDecimal maps a SQL null to a nil pointer so responses can tell "no
// activity" apart from an actual zero.
func nullableDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
