package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	obsmetrics "github.com/fintegro/bankhook/internal/observability/metrics"
	orgdomain "github.com/fintegro/bankhook/internal/organization/domain"
	orgrepo "github.com/fintegro/bankhook/internal/organization/repository"
	orgservice "github.com/fintegro/bankhook/internal/organization/service"
	paymentdomain "github.com/fintegro/bankhook/internal/payment/domain"
	paymentrepo "github.com/fintegro/bankhook/internal/payment/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
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

	return db
}

func newService(t *testing.T, db *gorm.DB) orgdomain.Service {
	t.Helper()

	return orgservice.New(orgservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		Repo:        orgrepo.Provide(),
		PaymentRepo: paymentrepo.Provide(),
	})
}

func seedOrganization(t *testing.T, db *gorm.DB, inn, balance string) orgdomain.Organization {
	t.Helper()

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	organization := orgdomain.Organization{
		ID:        node.Generate(),
		INN:       inn,
		Balance:   decimal.RequireFromString(balance),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&organization).Error)
	return organization
}

func TestGetBalance(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db)

	seedOrganization(t, db, "1234567890", "145000.00")

	resp, err := svc.GetBalance(context.Background(), "1234567890")
	require.NoError(t, err)
	assert.Equal(t, "1234567890", resp.INN)
	assert.Equal(t, "145000.00", resp.Balance.StringFixed(2))
}

func TestGetBalanceNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db)

	_, err := svc.GetBalance(context.Background(), "9999999999")
	assert.ErrorIs(t, err, orgdomain.ErrNotFound)
}

func TestDeleteRemovesOrganizationWithoutPayments(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db)

	seedOrganization(t, db, "1234567890", "0")

	require.NoError(t, svc.Delete(context.Background(), "1234567890"))

	var count int64
	require.NoError(t, db.Model(&orgdomain.Organization{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDeleteRejectedWhilePaymentsReference(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db)

	organization := seedOrganization(t, db, "1234567890", "100.00")

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	require.NoError(t, db.Create(&paymentdomain.Payment{
		ID:             node.Generate(),
		OperationID:    uuid.New(),
		OrganizationID: organization.ID,
		Amount:         decimal.RequireFromString("100.00"),
		DocumentNumber: "PAY-001",
		DocumentDate:   time.Now().UTC(),
		CreatedAt:      time.Now().UTC(),
	}).Error)

	err = svc.Delete(context.Background(), "1234567890")
	assert.ErrorIs(t, err, orgdomain.ErrHasPayments)

	var count int64
	require.NoError(t, db.Model(&orgdomain.Organization{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetBalanceRecordsQueryCounts(t *testing.T) {
	db := setupTestDB(t)

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	obsMetrics, err := obsmetrics.New(obsmetrics.Config{ServiceName: "bankhook"}, provider)
	require.NoError(t, err)

	svc := orgservice.New(orgservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		Repo:        orgrepo.Provide(),
		PaymentRepo: paymentrepo.Provide(),
		ObsMetrics:  obsMetrics,
	})

	seedOrganization(t, db, "1234567890", "145000.00")

	_, err = svc.GetBalance(context.Background(), "1234567890")
	require.NoError(t, err)
	_, err = svc.GetBalance(context.Background(), "9999999999")
	require.ErrorIs(t, err, orgdomain.ErrNotFound)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	counts := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "bankhook_balance_queries_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value("result"); ok {
					counts[v.AsString()] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), counts["found"])
	assert.Equal(t, int64(1), counts["not_found"])
}

func TestDeleteNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db)

	err := svc.Delete(context.Background(), "9999999999")
	assert.ErrorIs(t, err, orgdomain.ErrNotFound)
}
