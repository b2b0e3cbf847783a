package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/fintegro/bankhook/internal/inn"
	orgdomain "github.com/fintegro/bankhook/internal/organization/domain"
	orgrepo "github.com/fintegro/bankhook/internal/organization/repository"
	paymentdomain "github.com/fintegro/bankhook/internal/payment/domain"
	paymentrepo "github.com/fintegro/bankhook/internal/payment/repository"
	paymentservice "github.com/fintegro/bankhook/internal/payment/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&orgdomain.Organization{},
		&paymentdomain.Payment{},
	))

	// SQLite requires these unique indexes for ON CONFLICT to work.
	require.NoError(t, db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS ux_organizations_inn ON organizations(inn)").Error)
	require.NoError(t, db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS ux_payments_operation_id ON payments(operation_id)").Error)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return db
}

func newService(t *testing.T, db *gorm.DB) paymentdomain.Service {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return paymentservice.New(paymentservice.Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    paymentrepo.Provide(),
		OrgRepo: orgrepo.Provide(),
	})
}

func validRequest() paymentdomain.IngestRequest {
	return paymentdomain.IngestRequest{
		OperationID:    "ccf0a86d-041b-4991-bcf7-e2352f7b8a4a",
		Amount:         decimal.RequireFromString("145000.00"),
		PayerINN:       "1234567890",
		DocumentNumber: "PAY-328",
		DocumentDate:   time.Date(2024, 4, 27, 21, 0, 0, 0, time.UTC),
	}
}

func paymentCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&paymentdomain.Payment{}).Count(&count).Error)
	return count
}

func storedBalance(t *testing.T, db *gorm.DB, payerINN string) decimal.Decimal {
	t.Helper()
	var organization orgdomain.Organization
	require.NoError(t, db.Where("inn = ?", payerINN).First(&organization).Error)
	return organization.Balance
}

func TestIngestCreatesOrganizationAndPayment(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db)

	result, err := svc.Ingest(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "ccf0a86d-041b-4991-bcf7-e2352f7b8a4a", result.OperationID.String())
	assert.Equal(t, "145000.00", result.Balance.StringFixed(2))
	assert.Equal(t, int64(1), paymentCount(t, db))
	assert.Equal(t, "145000.00", storedBalance(t, db, "1234567890").StringFixed(2))
}

func TestIngestIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db)

	_, err := svc.Ingest(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = svc.Ingest(context.Background(), validRequest())
	assert.ErrorIs(t, err, paymentdomain.ErrAlreadyProcessed)

	assert.Equal(t, int64(1), paymentCount(t, db))
	assert.Equal(t, "145000.00", storedBalance(t, db, "1234567890").StringFixed(2))
}

func TestIngestFirstWriteWins(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db)

	_, err := svc.Ingest(context.Background(), validRequest())
	require.NoError(t, err)

	// Same operation id with a different amount and document is still a
	// duplicate, not a conflict.
	retry := validRequest()
	retry.Amount = decimal.RequireFromString("999.99")
	retry.DocumentNumber = "PAY-999"

	_, err = svc.Ingest(context.Background(), retry)
	assert.ErrorIs(t, err, paymentdomain.ErrAlreadyProcessed)

	assert.Equal(t, int64(1), paymentCount(t, db))
	assert.Equal(t, "145000.00", storedBalance(t, db, "1234567890").StringFixed(2))
}

func TestIngestAccumulatesBalanceAcrossOperations(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db)

	first := validRequest()
	first.OperationID = uuid.NewString()
	first.Amount = decimal.RequireFromString("100.00")

	second := validRequest()
	second.OperationID = uuid.NewString()
	second.Amount = decimal.RequireFromString("50.00")

	_, err := svc.Ingest(context.Background(), first)
	require.NoError(t, err)

	result, err := svc.Ingest(context.Background(), second)
	require.NoError(t, err)

	assert.Equal(t, "150.00", result.Balance.StringFixed(2))
	assert.Equal(t, int64(2), paymentCount(t, db))
	assert.Equal(t, "150.00", storedBalance(t, db, "1234567890").StringFixed(2))
}

func TestIngestValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db)

	cases := []struct {
		name    string
		mutate  func(*paymentdomain.IngestRequest)
		wantErr error
	}{
		{
			name:    "malformed operation id",
			mutate:  func(r *paymentdomain.IngestRequest) { r.OperationID = "not-a-uuid" },
			wantErr: paymentdomain.ErrInvalidOperationID,
		},
		{
			name:    "zero amount",
			mutate:  func(r *paymentdomain.IngestRequest) { r.Amount = decimal.Zero },
			wantErr: paymentdomain.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			mutate:  func(r *paymentdomain.IngestRequest) { r.Amount = decimal.RequireFromString("-10.00") },
			wantErr: paymentdomain.ErrInvalidAmount,
		},
		{
			name:    "short inn",
			mutate:  func(r *paymentdomain.IngestRequest) { r.PayerINN = "12345" },
			wantErr: inn.ErrInvalidINN,
		},
		{
			name:    "non numeric inn",
			mutate:  func(r *paymentdomain.IngestRequest) { r.PayerINN = "12345678ab" },
			wantErr: inn.ErrInvalidINN,
		},
		{
			name:    "empty document number",
			mutate:  func(r *paymentdomain.IngestRequest) { r.DocumentNumber = "   " },
			wantErr: paymentdomain.ErrInvalidDocumentNumber,
		},
		{
			name:    "zero document date",
			mutate:  func(r *paymentdomain.IngestRequest) { r.DocumentDate = time.Time{} },
			wantErr: paymentdomain.ErrInvalidDocumentDate,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			req.OperationID = uuid.NewString()
			tc.mutate(&req)

			_, err := svc.Ingest(context.Background(), req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	// Rejected payloads never touch the store.
	assert.Equal(t, int64(0), paymentCount(t, db))
	var orgCount int64
	require.NoError(t, db.Model(&orgdomain.Organization{}).Count(&orgCount).Error)
	assert.Equal(t, int64(0), orgCount)
}

func TestConcurrentIngestSameOperation(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db)

	const workers = 8
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, errs[slot] = svc.Ingest(context.Background(), validRequest())
		}(i)
	}
	wg.Wait()

	created := 0
	duplicates := 0
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case assert.ErrorIs(t, err, paymentdomain.ErrAlreadyProcessed):
			duplicates++
		}
	}

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, duplicates)
	assert.Equal(t, int64(1), paymentCount(t, db))
	assert.Equal(t, "145000.00", storedBalance(t, db, "1234567890").StringFixed(2))
}

func TestConcurrentIngestDifferentOperationsSameOrganization(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db)

	const workers = 6
	amount := decimal.RequireFromString("10.00")
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			req := validRequest()
			req.OperationID = uuid.NewString()
			req.Amount = amount
			req.DocumentNumber = fmt.Sprintf("PAY-%03d", slot)
			_, errs[slot] = svc.Ingest(context.Background(), req)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	// No lost updates: every increment lands.
	assert.Equal(t, int64(workers), paymentCount(t, db))
	assert.Equal(t, "60.00", storedBalance(t, db, "1234567890").StringFixed(2))
}

func TestListByINN(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db)

	base := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		req := validRequest()
		req.OperationID = uuid.NewString()
		req.Amount = decimal.RequireFromString("10.00")
		req.DocumentNumber = fmt.Sprintf("PAY-%03d", i)
		req.DocumentDate = base.AddDate(0, 0, i)
		_, err := svc.Ingest(context.Background(), req)
		require.NoError(t, err)
	}

	resp, err := svc.ListByINN(context.Background(), paymentdomain.ListPaymentsRequest{
		INN:      "1234567890",
		PageSize: 3,
	})
	require.NoError(t, err)
	require.Len(t, resp.Payments, 3)
	assert.True(t, resp.HasMore)
	assert.NotEmpty(t, resp.NextPageToken)

	// Newest document date first.
	assert.Equal(t, "PAY-004", resp.Payments[0].DocumentNumber)

	next, err := svc.ListByINN(context.Background(), paymentdomain.ListPaymentsRequest{
		INN:       "1234567890",
		PageToken: resp.NextPageToken,
		PageSize:  3,
	})
	require.NoError(t, err)
	require.Len(t, next.Payments, 2)
	assert.False(t, next.HasMore)
	assert.Equal(t, "PAY-000", next.Payments[1].DocumentNumber)
}

func TestListByINNUnknownOrganization(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db)

	_, err := svc.ListByINN(context.Background(), paymentdomain.ListPaymentsRequest{INN: "9999999999"})
	assert.ErrorIs(t, err, orgdomain.ErrNotFound)
}
