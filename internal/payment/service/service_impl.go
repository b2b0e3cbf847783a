package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fintegro/bankhook/internal/inn"
	obsmetrics "github.com/fintegro/bankhook/internal/observability/metrics"
	orgdomain "github.com/fintegro/bankhook/internal/organization/domain"
	"github.com/fintegro/bankhook/internal/payment/domain"
	"github.com/fintegro/bankhook/pkg/db"
	"github.com/fintegro/bankhook/pkg/db/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	OrgRepo    orgdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	orgRepo    orgdomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		orgRepo:    p.OrgRepo,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Ingest(ctx context.Context, req domain.IngestRequest) (domain.IngestResult, error) {
	operationID, err := uuid.Parse(strings.TrimSpace(req.OperationID))
	if err != nil {
		return domain.IngestResult{}, domain.ErrInvalidOperationID
	}
	if !req.Amount.IsPositive() {
		return domain.IngestResult{}, domain.ErrInvalidAmount
	}
	payerINN := strings.TrimSpace(req.PayerINN)
	if err := inn.Validate(payerINN); err != nil {
		return domain.IngestResult{}, err
	}
	documentNumber := strings.TrimSpace(req.DocumentNumber)
	if documentNumber == "" {
		return domain.IngestResult{}, domain.ErrInvalidDocumentNumber
	}
	if req.DocumentDate.IsZero() {
		return domain.IngestResult{}, domain.ErrInvalidDocumentDate
	}

	// Fast path for retries. The insert below stays the authoritative
	// guard: two requests passing this check together still resolve to a
	// single row via the unique constraint.
	exists, err := s.repo.ExistsByOperationID(ctx, s.db, operationID)
	if err != nil {
		return domain.IngestResult{}, err
	}
	if exists {
		s.log.Info("payment already processed",
			zap.String("operation_id", operationID.String()),
		)
		s.recordIngest(ctx, "duplicate")
		return domain.IngestResult{}, domain.ErrAlreadyProcessed
	}

	var balance decimal.Decimal
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		organization, err := s.orgRepo.GetOrCreate(ctx, tx, &orgdomain.Organization{
			ID:        s.genID.Generate(),
			INN:       payerINN,
			Balance:   decimal.Zero,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}

		inserted, err := s.repo.Insert(ctx, tx, &domain.Payment{
			ID:             s.genID.Generate(),
			OperationID:    operationID,
			OrganizationID: organization.ID,
			Amount:         req.Amount,
			DocumentNumber: documentNumber,
			DocumentDate:   req.DocumentDate,
			CreatedAt:      now,
		})
		if err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrAlreadyProcessed
			}
			return err
		}
		if !inserted {
			return domain.ErrAlreadyProcessed
		}

		balance, err = s.orgRepo.IncrementBalance(ctx, tx, organization.ID, req.Amount)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyProcessed) {
			s.log.Info("payment already processed",
				zap.String("operation_id", operationID.String()),
			)
			s.recordIngest(ctx, "duplicate")
			return domain.IngestResult{}, domain.ErrAlreadyProcessed
		}
		return domain.IngestResult{}, err
	}

	s.log.Info("payment ingested",
		zap.String("operation_id", operationID.String()),
		zap.String("inn", payerINN),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("balance", balance.StringFixed(2)),
	)
	s.recordIngest(ctx, "created")

	return domain.IngestResult{
		OperationID: operationID,
		Balance:     balance,
	}, nil
}

func (s *Service) ListByINN(ctx context.Context, req domain.ListPaymentsRequest) (domain.ListPaymentsResponse, error) {
	organization, err := s.orgRepo.FindByINN(ctx, s.db, strings.TrimSpace(req.INN))
	if err != nil {
		return domain.ListPaymentsResponse{}, err
	}
	if organization == nil {
		return domain.ListPaymentsResponse{}, orgdomain.ErrNotFound
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.ListByOrganization(ctx, s.db, organization.ID, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListPaymentsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(payment *domain.Payment) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:           payment.ID.String(),
			DocumentDate: payment.DocumentDate.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	payments := make([]domain.Payment, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		payments = append(payments, *item)
	}

	resp := domain.ListPaymentsResponse{Payments: payments}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) recordIngest(ctx context.Context, outcome string) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordPaymentIngest(ctx, outcome)
	}
}
