//go:build integration

package e2e

// End-to-end integration tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// Covered flows:
//   - Vendor lifecycle: create → mark-duplicate → guard rails → mark-canonical
//   - Duplicate analysis: enqueue (202) → worker claims and completes → results
//   - Vendor metrics rollup over seeded work orders (plus the cached re-read)
//   - Utility anomaly detection across a seeded portfolio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rilaconsulting/pmpulse-sub002/internal/config"
	"github.com/rilaconsulting/pmpulse-sub002/internal/dto"
	"github.com/rilaconsulting/pmpulse-sub002/internal/infra"
	"github.com/rilaconsulting/pmpulse-sub002/internal/matching"
	"github.com/rilaconsulting/pmpulse-sub002/internal/model"
	"github.com/rilaconsulting/pmpulse-sub002/internal/repository"
	"github.com/rilaconsulting/pmpulse-sub002/internal/router"
	"github.com/rilaconsulting/pmpulse-sub002/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func createVendor(t *testing.T, env *testEnv, req dto.CreateVendorRequest) dto.VendorResponse {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/vendors", jsonBody(t, req), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var v dto.VendorResponse
	decodeJSON(t, resp, &v)
	return v
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
	db     *gorm.DB
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("pmpulse_test"),
		tcPostgres.WithUsername("pmpulse"),
		tcPostgres.WithPassword("pmpulse"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:                    8000,
		Env:                     "test",
		WorkerPoolSize:          1,
		DatabaseURL:             pgURL,
		RedisURL:                rdURL,
		JWTSecret:               "test-secret-key",
		JWTExpirationHours:      8,
		JWTRefreshHours:         24,
		DedupJobTimeoutMinutes:  1,
		AnomalyStdDevMultiplier: 2.0,
		MetricsCacheTTLSeconds:  60,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed the admin user.
	hash, err := bcrypt.GenerateFromPassword([]byte("pmpulse-e2e-pass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.User{
		Username:     "admin.e2e",
		Name:         "Admin E2E",
		Email:        strPtr("admin@e2e.test"),
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		Active:       true,
	}).Error)

	// Worker pool consuming the dedup + email queues, same wiring as main.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	t.Cleanup(cancelWorkers)
	dispatcher := worker.NewDispatcher(rdb)
	analysisRepo := repository.NewAnalysisRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	handlers := &worker.WorkerHandlers{
		Dedup: worker.NewDedupWorker(analysisRepo, vendorRepo, matching.NewEngine(), dispatcher, rdb, time.Minute),
		Email: worker.NewEmailWorker(infra.NewMailer(cfg)),
	}
	worker.StartWorkerPool(workerCtx, rdb, handlers, cfg.WorkerPoolSize)

	r := router.New(cfg, db, rdb, dispatcher)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, dto.LoginRequest{Username: "admin.e2e", Password: "pmpulse-e2e-pass"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody dto.LoginResponse
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{server: srv, token: loginBody.AccessToken, db: db}
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_VendorDuplicateLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	canonical := createVendor(t, env, dto.CreateVendorRequest{
		CompanyName: "Apex Plumbing LLC",
		Phone:       strPtr("(512) 555-0142"),
		Trades:      strPtr("plumbing"),
	})
	dup := createVendor(t, env, dto.CreateVendorRequest{
		CompanyName: "Apex Plumbing",
		Phone:       strPtr("512-555-0142"),
		Trades:      strPtr("plumbing"),
	})

	// Self-reference is rejected before anything else.
	selfResp := do(t, env.server, "POST", "/v1/vendors/"+dup.ID+"/mark-duplicate",
		jsonBody(t, dto.MarkDuplicateRequest{CanonicalVendorID: dup.ID}), env.token)
	assert.Equal(t, http.StatusUnprocessableEntity, selfResp.StatusCode)
	selfResp.Body.Close()

	// Link the duplicate to its canonical record.
	markResp := do(t, env.server, "POST", "/v1/vendors/"+dup.ID+"/mark-duplicate",
		jsonBody(t, dto.MarkDuplicateRequest{CanonicalVendorID: canonical.ID}), env.token)
	require.Equal(t, http.StatusOK, markResp.StatusCode)
	var marked dto.VendorMutationResponse
	decodeJSON(t, markResp, &marked)
	require.NotNil(t, marked.Vendor.CanonicalVendorID)
	assert.Equal(t, canonical.ID, *marked.Vendor.CanonicalVendorID)
	assert.Equal(t, "Vendor marked as duplicate.", marked.Message)

	// The canonical record now reports one linked duplicate...
	getResp := do(t, env.server, "GET", "/v1/vendors/"+canonical.ID, nil, env.token)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	var got dto.VendorResponse
	decodeJSON(t, getResp, &got)
	assert.Equal(t, int64(1), got.DuplicateCount)

	// ...so it cannot itself be demoted to a duplicate.
	third := createVendor(t, env, dto.CreateVendorRequest{CompanyName: "Apex Plumbing Co"})
	demoteResp := do(t, env.server, "POST", "/v1/vendors/"+canonical.ID+"/mark-duplicate",
		jsonBody(t, dto.MarkDuplicateRequest{CanonicalVendorID: third.ID}), env.token)
	assert.Equal(t, http.StatusUnprocessableEntity, demoteResp.StatusCode)
	demoteResp.Body.Close()

	// Nor can anything point at the duplicate as its canonical.
	chainResp := do(t, env.server, "POST", "/v1/vendors/"+third.ID+"/mark-duplicate",
		jsonBody(t, dto.MarkDuplicateRequest{CanonicalVendorID: dup.ID}), env.token)
	assert.Equal(t, http.StatusUnprocessableEntity, chainResp.StatusCode)
	chainResp.Body.Close()

	// mark-canonical clears the link and is idempotent.
	for i := 0; i < 2; i++ {
		restoreResp := do(t, env.server, "POST", "/v1/vendors/"+dup.ID+"/mark-canonical", jsonBody(t, struct{}{}), env.token)
		require.Equal(t, http.StatusOK, restoreResp.StatusCode)
		var restored dto.VendorMutationResponse
		decodeJSON(t, restoreResp, &restored)
		assert.Nil(t, restored.Vendor.CanonicalVendorID)
	}
}

func TestE2E_DuplicateAnalysisCompletes(t *testing.T) {
	env := setupTestEnv(t)

	createVendor(t, env, dto.CreateVendorRequest{
		CompanyName: "Brightline Electric LLC",
		Phone:       strPtr("(214) 555-0177"),
		Email:       strPtr("office@brightline-electric.com"),
		Trades:      strPtr("electrical"),
	})
	createVendor(t, env, dto.CreateVendorRequest{
		CompanyName: "Brightline Electric",
		Phone:       strPtr("214.555.0177"),
		Trades:      strPtr("electrical"),
	})
	createVendor(t, env, dto.CreateVendorRequest{
		CompanyName: "Lone Star Roofing",
		Trades:      strPtr("roofing"),
	})

	createResp := do(t, env.server, "POST", "/v1/dedup/analyses",
		jsonBody(t, dto.CreateAnalysisRequest{Threshold: floatPtr(0.8), Limit: 50}), env.token)
	require.Equal(t, http.StatusAccepted, createResp.StatusCode)
	var created dto.AnalysisResponse
	decodeJSON(t, createResp, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "pending", created.Status)

	// Poll until the worker finishes the run.
	var final dto.AnalysisResponse
	require.Eventually(t, func() bool {
		resp := do(t, env.server, "GET", "/v1/dedup/analyses/"+created.ID, nil, env.token)
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return false
		}
		decodeJSON(t, resp, &final)
		return final.Status == "completed" || final.Status == "failed"
	}, 30*time.Second, 250*time.Millisecond)

	require.Equal(t, "completed", final.Status)
	assert.Equal(t, 3, final.TotalVendors)
	assert.Equal(t, int64(3), final.Comparisons) // 3*(3-1)/2
	require.GreaterOrEqual(t, final.DuplicatesFound, 1)
	require.NotEmpty(t, final.Results)

	names := []string{final.Results[0].Vendor1.CompanyName, final.Results[0].Vendor2.CompanyName}
	assert.Contains(t, names, "Brightline Electric LLC")
	assert.Contains(t, names, "Brightline Electric")
	assert.NotEmpty(t, final.Results[0].MatchReasons)
}

func TestE2E_VendorMetricsRollup(t *testing.T) {
	env := setupTestEnv(t)

	vendor := createVendor(t, env, dto.CreateVendorRequest{
		CompanyName: "Summit HVAC",
		Trades:      strPtr("hvac"),
	})
	vendorID, err := uuid.Parse(vendor.ID)
	require.NoError(t, err)

	property := model.Property{Name: "Cedar Flats", UnitCount: 24, SquareFeet: 30000, Active: true}
	require.NoError(t, env.db.Create(&property).Error)

	// A fixed anchor month keeps the window independent of the wall clock.
	opened := time.Date(2025, time.June, 3, 12, 0, 0, 0, time.UTC)
	closed := opened.AddDate(0, 0, 7)
	orders := []model.WorkOrder{
		{VendorID: vendorID, PropertyID: property.ID, Amount: decimal.RequireFromString("450.00"),
			OpenedAt: opened, ClosedAt: &closed, Status: model.WorkOrderCompleted, Priority: "normal"},
		{VendorID: vendorID, PropertyID: property.ID, Amount: decimal.RequireFromString("150.00"),
			OpenedAt: opened.AddDate(0, 0, 9), Status: model.WorkOrderOpen, Priority: "high"},
		// Warranty visit: zero amount counts toward volume but not averages.
		{VendorID: vendorID, PropertyID: property.ID, Amount: decimal.Zero,
			OpenedAt: opened.AddDate(0, 0, 12), Status: model.WorkOrderInProgress, Priority: "normal"},
	}
	require.NoError(t, env.db.Create(&orders).Error)

	metricsResp := do(t, env.server, "GET", "/v1/vendors/"+vendor.ID+"/metrics?period=month&date=2025-06-15", nil, env.token)
	require.Equal(t, http.StatusOK, metricsResp.StatusCode)
	var metrics dto.VendorMetricsResponse
	decodeJSON(t, metricsResp, &metrics)

	assert.Equal(t, int64(3), metrics.WorkOrderCount)
	require.NotNil(t, metrics.TotalSpend)
	assert.True(t, metrics.TotalSpend.Equal(decimal.RequireFromString("600")))
	require.NotNil(t, metrics.AverageCostPerWO)
	assert.True(t, metrics.AverageCostPerWO.Equal(decimal.RequireFromString("300")))

	// Second read is served from the cache with the same body.
	cachedResp := do(t, env.server, "GET", "/v1/vendors/"+vendor.ID+"/metrics?period=month&date=2025-06-15", nil, env.token)
	require.Equal(t, http.StatusOK, cachedResp.StatusCode)
	var cached dto.VendorMetricsResponse
	decodeJSON(t, cachedResp, &cached)
	assert.Equal(t, metrics.WorkOrderCount, cached.WorkOrderCount)
}

func TestE2E_UtilityAnomalyDetection(t *testing.T) {
	env := setupTestEnv(t)

	expenseDate := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	seedProperty := func(name, amount string) model.Property {
		p := model.Property{Name: name, UnitCount: 10, Active: true}
		require.NoError(t, env.db.Create(&p).Error)
		account := model.UtilityAccount{PropertyID: p.ID, UtilityType: model.UtilityWater, Active: true}
		require.NoError(t, env.db.Create(&account).Error)
		expense := model.UtilityExpense{
			UtilityAccountID: account.ID,
			Amount:           decimal.RequireFromString(amount),
			ExpenseDate:      expenseDate,
		}
		require.NoError(t, env.db.Create(&expense).Error)
		return p
	}

	for i := 0; i < 6; i++ {
		seedProperty(fmt.Sprintf("Baseline %d", i), "200.00")
	}
	leaky := seedProperty("Leaky Towers", "1400.00")

	resp := do(t, env.server, "GET", "/v1/utilities/anomalies?period=month&date=2025-06-15", nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body dto.AnomalyResponse
	decodeJSON(t, resp, &body)

	assert.Equal(t, 2.0, body.Multiplier)
	require.Len(t, body.Anomalies, 1)
	assert.Equal(t, leaky.ID.String(), body.Anomalies[0].PropertyID)
	assert.Equal(t, model.UtilityWater, body.Anomalies[0].UtilityType)
	assert.Greater(t, body.Anomalies[0].Deviation, 2.0)
}
