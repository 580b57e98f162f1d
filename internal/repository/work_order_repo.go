package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WorkOrderAggregate is the single-round-trip rollup for a vendor scope and
// period: row count, total spend, and the non-zero mean. Total and AvgNonZero
// are null when no rows matched, so callers can distinguish "no activity"
// from "zero spend".
type WorkOrderAggregate struct {
	Count      int64               `gorm:"column:count"`
	Total      decimal.NullDecimal `gorm:"column:total"`
	AvgNonZero decimal.NullDecimal `gorm:"column:avg_non_zero"`
}

// MonthlyWorkOrderRow is one month of the bulk-grouped trend query.
type MonthlyWorkOrderRow struct {
	Month      time.Time           `gorm:"column:month"`
	Count      int64               `gorm:"column:count"`
	Total      decimal.Decimal     `gorm:"column:total"`
	AvgNonZero decimal.NullDecimal `gorm:"column:avg_non_zero"`
}

// CompletionBucketRow is one day-range of the response-time breakdown.
type CompletionBucketRow struct {
	Bucket string `gorm:"column:bucket"`
	Count  int64  `gorm:"column:count"`
}

// VendorAggregateRow is one vendor's rollup in the per-vendor grouped query
// behind trade comparisons. AvgCompletionDays only covers closed orders.
type VendorAggregateRow struct {
	VendorID          uuid.UUID           `gorm:"column:vendor_id"`
	Count             int64               `gorm:"column:count"`
	Total             decimal.Decimal     `gorm:"column:total"`
	AvgNonZero        decimal.NullDecimal `gorm:"column:avg_non_zero"`
	AvgCompletionDays *float64            `gorm:"column:avg_completion_days"`
}

type WorkOrderRepository interface {
	// Aggregate computes count / total / non-zero average for work orders
	// opened in [start, end) by any of the given vendors, in one query.
	Aggregate(ctx context.Context, vendorIDs []uuid.UUID, start, end time.Time) (*WorkOrderAggregate, error)
	// AvgCompletionDays averages closed_at - opened_at (in days) over
	// completed and cancelled orders opened in the window. Nil when none.
	AvgCompletionDays(ctx context.Context, vendorIDs []uuid.UUID, start, end time.Time) (*float64, error)
	// CompletionBuckets groups completed orders into fixed day ranges.
	CompletionBuckets(ctx context.Context, vendorIDs []uuid.UUID, start, end time.Time) ([]CompletionBucketRow, error)
	// MonthlyTrend returns one row per calendar month with activity in
	// [from, to), grouped in a single query. Months without rows are absent;
	// the service zero-fills.
	MonthlyTrend(ctx context.Context, vendorIDs []uuid.UUID, from, to time.Time) ([]MonthlyWorkOrderRow, error)
	// VendorAggregates computes every vendor's rollup for the window in one
	// GROUP BY vendor_id pass. Vendors without rows are absent.
	VendorAggregates(ctx context.Context, vendorIDs []uuid.UUID, start, end time.Time) ([]VendorAggregateRow, error)
}

type workOrderRepo struct{ db *gorm.DB }

func NewWorkOrderRepository(db *gorm.DB) WorkOrderRepository { return &workOrderRepo{db: db} }

func (r *workOrderRepo) Aggregate(ctx context.Context, vendorIDs []uuid.UUID, start, end time.Time) (*WorkOrderAggregate, error) {
	var agg WorkOrderAggregate
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*)                                   AS count,
		       SUM(amount)                                AS total,
		       AVG(amount) FILTER (WHERE amount <> 0)     AS avg_non_zero
		FROM work_orders
		WHERE vendor_id IN ? AND opened_at >= ? AND opened_at < ?`,
		vendorIDs, start, end).Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func (r *workOrderRepo) AvgCompletionDays(ctx context.Context, vendorIDs []uuid.UUID, start, end time.Time) (*float64, error) {
	var row struct {
		Avg *float64 `gorm:"column:avg"`
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT AVG(EXTRACT(EPOCH FROM (closed_at - opened_at)) / 86400.0) AS avg
		FROM work_orders
		WHERE vendor_id IN ?
		  AND opened_at >= ? AND opened_at < ?
		  AND status IN ('completed', 'cancelled')
		  AND closed_at IS NOT NULL`,
		vendorIDs, start, end).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return row.Avg, nil
}

func (r *workOrderRepo) CompletionBuckets(ctx context.Context, vendorIDs []uuid.UUID, start, end time.Time) ([]CompletionBucketRow, error) {
	var rows []CompletionBucketRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT CASE
		         WHEN days <= 1  THEN '0-1'
		         WHEN days <= 3  THEN '2-3'
		         WHEN days <= 7  THEN '4-7'
		         WHEN days <= 14 THEN '8-14'
		         WHEN days <= 30 THEN '15-30'
		         ELSE '31+'
		       END   AS bucket,
		       COUNT(*) AS count
		FROM (
		    SELECT EXTRACT(EPOCH FROM (closed_at - opened_at)) / 86400.0 AS days
		    FROM work_orders
		    WHERE vendor_id IN ?
		      AND opened_at >= ? AND opened_at < ?
		      AND status = 'completed'
		      AND closed_at IS NOT NULL
		) d
		GROUP BY 1`,
		vendorIDs, start, end).Scan(&rows).Error
	return rows, err
}

func (r *workOrderRepo) MonthlyTrend(ctx context.Context, vendorIDs []uuid.UUID, from, to time.Time) ([]MonthlyWorkOrderRow, error) {
	var rows []MonthlyWorkOrderRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT date_trunc('month', opened_at)              AS month,
		       COUNT(*)                                    AS count,
		       COALESCE(SUM(amount), 0)                    AS total,
		       AVG(amount) FILTER (WHERE amount <> 0)      AS avg_non_zero
		FROM work_orders
		WHERE vendor_id IN ? AND opened_at >= ? AND opened_at < ?
		GROUP BY 1
		ORDER BY 1`,
		vendorIDs, from, to).Scan(&rows).Error
	return rows, err
}

func (r *workOrderRepo) VendorAggregates(ctx context.Context, vendorIDs []uuid.UUID, start, end time.Time) ([]VendorAggregateRow, error) {
	var rows []VendorAggregateRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT vendor_id,
		       COUNT(*)                               AS count,
		       COALESCE(SUM(amount), 0)               AS total,
		       AVG(amount) FILTER (WHERE amount <> 0) AS avg_non_zero,
		       AVG(EXTRACT(EPOCH FROM (closed_at - opened_at)) / 86400.0)
		           FILTER (WHERE status IN ('completed', 'cancelled') AND closed_at IS NOT NULL)
		                                              AS avg_completion_days
		FROM work_orders
		WHERE vendor_id IN ? AND opened_at >= ? AND opened_at < ?
		GROUP BY vendor_id`,
		vendorIDs, start, end).Scan(&rows).Error
	return rows, err
}
