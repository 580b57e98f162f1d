package service

import (
	"context"
	"testing"
	"time"

	"github.com/rilaconsulting/pmpulse-sub002/internal/config"
	"github.com/rilaconsulting/pmpulse-sub002/internal/dto"
	"github.com/rilaconsulting/pmpulse-sub002/internal/model"
	"github.com/rilaconsulting/pmpulse-sub002/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ────────────────────────────────────────────────────────────────────

type stubPropertyRepo struct {
	properties map[uuid.UUID]*model.Property
}

func newStubPropertyRepo() *stubPropertyRepo {
	return &stubPropertyRepo{properties: make(map[uuid.UUID]*model.Property)}
}

func (r *stubPropertyRepo) add(p *model.Property) *model.Property {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Active = true
	r.properties[p.ID] = p
	return p
}

func (r *stubPropertyRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Property, error) {
	p, ok := r.properties[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubPropertyRepo) List(_ context.Context) ([]model.Property, error) {
	var out []model.Property
	for _, p := range r.properties {
		out = append(out, *p)
	}
	return out, nil
}

// stubExpense is one expense with its property and type resolved, mirroring
// the joined rows the SQL layer produces.
type stubExpense struct {
	propertyID   uuid.UUID
	propertyName string
	utilityType  string
	amount       decimal.Decimal
	date         time.Time
}

type stubUtilityRepo struct {
	expenses []stubExpense
}

func (r *stubUtilityRepo) AggregateByType(_ context.Context, propertyID uuid.UUID, typeFilter string, start, end time.Time) ([]repository.UtilityTypeAggregate, error) {
	byType := make(map[string]*repository.UtilityTypeAggregate)
	var order []string
	for _, e := range r.expenses {
		if e.propertyID != propertyID || e.date.Before(start) || !e.date.Before(end) {
			continue
		}
		if typeFilter != "" && e.utilityType != typeFilter {
			continue
		}
		agg, ok := byType[e.utilityType]
		if !ok {
			agg = &repository.UtilityTypeAggregate{UtilityType: e.utilityType}
			byType[e.utilityType] = agg
			order = append(order, e.utilityType)
		}
		agg.Count++
		agg.Total = decimal.NewNullDecimal(agg.Total.Decimal.Add(e.amount))
	}
	rows := make([]repository.UtilityTypeAggregate, 0, len(order))
	for _, t := range order {
		agg := byType[t]
		agg.Avg = decimal.NewNullDecimal(agg.Total.Decimal.Div(decimal.NewFromInt(agg.Count)))
		rows = append(rows, *agg)
	}
	return rows, nil
}

func (r *stubUtilityRepo) MonthlyTrendByType(_ context.Context, propertyID uuid.UUID, from, to time.Time) ([]repository.UtilityTrendRow, error) {
	type cell struct {
		month time.Time
		typ   string
	}
	byCell := make(map[cell]*repository.UtilityTrendRow)
	for _, e := range r.expenses {
		if e.propertyID != propertyID || e.date.Before(from) || !e.date.Before(to) {
			continue
		}
		m := time.Date(e.date.Year(), e.date.Month(), 1, 0, 0, 0, 0, time.UTC)
		k := cell{month: m, typ: e.utilityType}
		row, ok := byCell[k]
		if !ok {
			row = &repository.UtilityTrendRow{Month: m, UtilityType: e.utilityType}
			byCell[k] = row
		}
		row.Count++
		row.Total = row.Total.Add(e.amount)
	}
	var rows []repository.UtilityTrendRow
	for _, row := range byCell {
		rows = append(rows, *row)
	}
	return rows, nil
}

func (r *stubUtilityRepo) PropertyTypeTotals(_ context.Context, start, end time.Time) ([]repository.PropertyTypeTotal, error) {
	type key struct {
		prop uuid.UUID
		typ  string
	}
	byKey := make(map[key]*repository.PropertyTypeTotal)
	for _, e := range r.expenses {
		if e.date.Before(start) || !e.date.Before(end) {
			continue
		}
		k := key{prop: e.propertyID, typ: e.utilityType}
		row, ok := byKey[k]
		if !ok {
			row = &repository.PropertyTypeTotal{
				PropertyID:   e.propertyID,
				PropertyName: e.propertyName,
				UtilityType:  e.utilityType,
			}
			byKey[k] = row
		}
		row.Total = row.Total.Add(e.amount)
	}
	var rows []repository.PropertyTypeTotal
	for _, row := range byKey {
		rows = append(rows, *row)
	}
	return rows, nil
}

func testConfig() *config.Config {
	return &config.Config{AnomalyStdDevMultiplier: 2.0}
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestUtilityMetricsNormalizations(t *testing.T) {
	props := newStubPropertyRepo()
	p := props.add(&model.Property{Name: "Oak Court", UnitCount: 10, SquareFeet: 20000})
	expenses := &stubUtilityRepo{expenses: []stubExpense{
		{propertyID: p.ID, propertyName: p.Name, utilityType: model.UtilityElectric, amount: dec("1000"), date: day(2025, 6, 5)},
		{propertyID: p.ID, propertyName: p.Name, utilityType: model.UtilityElectric, amount: dec("500"), date: day(2025, 6, 20)},
	}}
	svc := NewUtilityAnalyticsService(props, expenses, testConfig())

	resp, err := svc.Metrics(context.Background(), p.ID, dto.UtilityMetricsQuery{Period: "month", Date: "2025-06-15"})
	require.NoError(t, err)

	require.Len(t, resp.Types, 1)
	m := resp.Types[0]
	assert.Equal(t, model.UtilityElectric, m.UtilityType)
	assert.Equal(t, int64(2), m.ExpenseCount)
	require.NotNil(t, m.TotalCost)
	assert.True(t, m.TotalCost.Equal(dec("1500")))
	require.NotNil(t, m.CostPerUnit)
	assert.True(t, m.CostPerUnit.Equal(dec("150")))
	require.NotNil(t, m.CostPerSqFt)
	assert.True(t, m.CostPerSqFt.Equal(dec("0.075")))
}

func TestUtilityMetricsNilNormalizationsWithoutDenominators(t *testing.T) {
	props := newStubPropertyRepo()
	p := props.add(&model.Property{Name: "No Data Manor"}) // zero units, zero sqft
	expenses := &stubUtilityRepo{expenses: []stubExpense{
		{propertyID: p.ID, propertyName: p.Name, utilityType: model.UtilityWater, amount: dec("80"), date: day(2025, 6, 5)},
	}}
	svc := NewUtilityAnalyticsService(props, expenses, testConfig())

	resp, err := svc.Metrics(context.Background(), p.ID, dto.UtilityMetricsQuery{Period: "month", Date: "2025-06-15"})
	require.NoError(t, err)

	require.Len(t, resp.Types, 1)
	assert.Nil(t, resp.Types[0].CostPerUnit, "no unit count, no per-unit cost")
	assert.Nil(t, resp.Types[0].CostPerSqFt)
}

func TestUtilityMetricsPortfolioAverage(t *testing.T) {
	props := newStubPropertyRepo()
	a := props.add(&model.Property{Name: "A"})
	b := props.add(&model.Property{Name: "B"})
	expenses := &stubUtilityRepo{expenses: []stubExpense{
		{propertyID: a.ID, propertyName: "A", utilityType: model.UtilityGas, amount: dec("100"), date: day(2025, 6, 5)},
		{propertyID: b.ID, propertyName: "B", utilityType: model.UtilityGas, amount: dec("300"), date: day(2025, 6, 6)},
	}}
	svc := NewUtilityAnalyticsService(props, expenses, testConfig())

	resp, err := svc.Metrics(context.Background(), a.ID, dto.UtilityMetricsQuery{Period: "month", Date: "2025-06-15"})
	require.NoError(t, err)

	require.Len(t, resp.Types, 1)
	require.NotNil(t, resp.Types[0].PortfolioAverage)
	assert.True(t, resp.Types[0].PortfolioAverage.Equal(dec("200")))
}

func TestAnomalyDetectionFlagsOutlier(t *testing.T) {
	props := newStubPropertyRepo()
	expenses := &stubUtilityRepo{}
	// Nine ordinary properties around $100, one at $500.
	for i := 0; i < 9; i++ {
		p := props.add(&model.Property{Name: "Ordinary"})
		expenses.expenses = append(expenses.expenses, stubExpense{
			propertyID: p.ID, propertyName: "Ordinary",
			utilityType: model.UtilityElectric,
			amount:      dec("100"), date: day(2025, 6, 10),
		})
	}
	outlier := props.add(&model.Property{Name: "Power Hog"})
	expenses.expenses = append(expenses.expenses, stubExpense{
		propertyID: outlier.ID, propertyName: "Power Hog",
		utilityType: model.UtilityElectric,
		amount:      dec("500"), date: day(2025, 6, 10),
	})
	svc := NewUtilityAnalyticsService(props, expenses, testConfig())

	resp, err := svc.Anomalies(context.Background(), dto.AnomalyQuery{Period: "month", Date: "2025-06-15"})
	require.NoError(t, err)

	assert.Equal(t, 2.0, resp.Multiplier, "multiplier defaults from config")
	require.Len(t, resp.Anomalies, 1)
	a := resp.Anomalies[0]
	assert.Equal(t, outlier.ID.String(), a.PropertyID)
	assert.Equal(t, model.UtilityElectric, a.UtilityType)
	assert.Greater(t, a.Deviation, 2.0)
}

func TestAnomalyDetectionUniformCostsFindNothing(t *testing.T) {
	props := newStubPropertyRepo()
	expenses := &stubUtilityRepo{}
	for i := 0; i < 5; i++ {
		p := props.add(&model.Property{Name: "Same"})
		expenses.expenses = append(expenses.expenses, stubExpense{
			propertyID: p.ID, propertyName: "Same",
			utilityType: model.UtilityWater,
			amount:      dec("100"), date: day(2025, 6, 10),
		})
	}
	svc := NewUtilityAnalyticsService(props, expenses, testConfig())

	resp, err := svc.Anomalies(context.Background(), dto.AnomalyQuery{Period: "month", Date: "2025-06-15"})
	require.NoError(t, err)
	assert.Empty(t, resp.Anomalies, "zero spread yields no anomalies")
}

func TestAnomalyCustomMultiplier(t *testing.T) {
	props := newStubPropertyRepo()
	expenses := &stubUtilityRepo{}
	amounts := []string{"100", "110", "90", "160"}
	var last uuid.UUID
	for i, amt := range amounts {
		p := props.add(&model.Property{Name: "P"})
		expenses.expenses = append(expenses.expenses, stubExpense{
			propertyID: p.ID, propertyName: "P",
			utilityType: model.UtilityGas,
			amount:      dec(amt), date: day(2025, 6, 10),
		})
		if i == len(amounts)-1 {
			last = p.ID
		}
	}
	svc := NewUtilityAnalyticsService(props, expenses, testConfig())

	strict, err := svc.Anomalies(context.Background(), dto.AnomalyQuery{Period: "month", Date: "2025-06-15", Multiplier: 1.5})
	require.NoError(t, err)
	require.Len(t, strict.Anomalies, 1)
	assert.Equal(t, last.String(), strict.Anomalies[0].PropertyID)

	loose, err := svc.Anomalies(context.Background(), dto.AnomalyQuery{Period: "month", Date: "2025-06-15", Multiplier: 3})
	require.NoError(t, err)
	assert.Empty(t, loose.Anomalies)
}

func TestUtilityMetricsUnknownProperty(t *testing.T) {
	svc := NewUtilityAnalyticsService(newStubPropertyRepo(), &stubUtilityRepo{}, testConfig())
	_, err := svc.Metrics(context.Background(), uuid.New(), dto.UtilityMetricsQuery{Period: "month"})
	assert.ErrorIs(t, err, ErrNotFound)
}
