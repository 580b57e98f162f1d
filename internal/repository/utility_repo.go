package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UtilityTypeAggregate is the per-type rollup for one property and window.
type UtilityTypeAggregate struct {
	UtilityType string              `gorm:"column:utility_type"`
	Count       int64               `gorm:"column:count"`
	Total       decimal.NullDecimal `gorm:"column:total"`
	Avg         decimal.NullDecimal `gorm:"column:avg"`
}

// UtilityTrendRow is one (month, utility type) cell of the bulk trend query.
type UtilityTrendRow struct {
	Month       time.Time       `gorm:"column:month"`
	UtilityType string          `gorm:"column:utility_type"`
	Total       decimal.Decimal `gorm:"column:total"`
	Count       int64           `gorm:"column:count"`
}

// PropertyTypeTotal is one property's total cost for one utility type in a
// window — the raw material for portfolio averages and anomaly detection.
type PropertyTypeTotal struct {
	PropertyID   uuid.UUID       `gorm:"column:property_id"`
	PropertyName string          `gorm:"column:property_name"`
	UtilityType  string          `gorm:"column:utility_type"`
	Total        decimal.Decimal `gorm:"column:total"`
}

type UtilityExpenseRepository interface {
	// AggregateByType groups a property's expenses in [start, end) by utility
	// type in one query. typeFilter narrows to one type when non-empty.
	AggregateByType(ctx context.Context, propertyID uuid.UUID, typeFilter string, start, end time.Time) ([]UtilityTypeAggregate, error)
	// MonthlyTrendByType returns all months × all utility types for one
	// property in a single grouped query.
	MonthlyTrendByType(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]UtilityTrendRow, error)
	// PropertyTypeTotals returns per-property per-type totals across the
	// whole portfolio for the window.
	PropertyTypeTotals(ctx context.Context, start, end time.Time) ([]PropertyTypeTotal, error)
}

type utilityExpenseRepo struct{ db *gorm.DB }

func NewUtilityExpenseRepository(db *gorm.DB) UtilityExpenseRepository {
	return &utilityExpenseRepo{db: db}
}

func (r *utilityExpenseRepo) AggregateByType(ctx context.Context, propertyID uuid.UUID, typeFilter string, start, end time.Time) ([]UtilityTypeAggregate, error) {
	var rows []UtilityTypeAggregate
	q := `
		SELECT ua.utility_type AS utility_type,
		       COUNT(ue.id)    AS count,
		       SUM(ue.amount)  AS total,
		       AVG(ue.amount)  AS avg
		FROM utility_expenses ue
		JOIN utility_accounts ua ON ua.id = ue.utility_account_id
		WHERE ua.property_id = ?
		  AND ue.expense_date >= ? AND ue.expense_date < ?`
	args := []interface{}{propertyID, start, end}
	if typeFilter != "" {
		q += ` AND ua.utility_type = ?`
		args = append(args, typeFilter)
	}
	q += ` GROUP BY 1 ORDER BY 1`
	err := r.db.WithContext(ctx).Raw(q, args...).Scan(&rows).Error
	return rows, err
}

func (r *utilityExpenseRepo) MonthlyTrendByType(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]UtilityTrendRow, error) {
	var rows []UtilityTrendRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT date_trunc('month', ue.expense_date) AS month,
		       ua.utility_type                      AS utility_type,
		       COALESCE(SUM(ue.amount), 0)          AS total,
		       COUNT(ue.id)                         AS count
		FROM utility_expenses ue
		JOIN utility_accounts ua ON ua.id = ue.utility_account_id
		WHERE ua.property_id = ?
		  AND ue.expense_date >= ? AND ue.expense_date < ?
		GROUP BY 1, 2
		ORDER BY 1, 2`,
		propertyID, from, to).Scan(&rows).Error
	return rows, err
}

func (r *utilityExpenseRepo) PropertyTypeTotals(ctx context.Context, start, end time.Time) ([]PropertyTypeTotal, error) {
	var rows []PropertyTypeTotal
	err := r.db.WithContext(ctx).Raw(`
		SELECT ua.property_id              AS property_id,
		       p.name                      AS property_name,
		       ua.utility_type             AS utility_type,
		       COALESCE(SUM(ue.amount), 0) AS total
		FROM utility_expenses ue
		JOIN utility_accounts ua ON ua.id = ue.utility_account_id
		JOIN properties p        ON p.id = ua.property_id
		WHERE ue.expense_date >= ? AND ue.expense_date < ?
		GROUP BY 1, 2, 3`,
		start, end).Scan(&rows).Error
	return rows, err
}
