package service

import (
	"context"
	"strings"

	obsmetrics "github.com/fintegro/bankhook/internal/observability/metrics"
	"github.com/fintegro/bankhook/internal/organization/domain"
	paymentdomain "github.com/fintegro/bankhook/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Repo        domain.Repository
	PaymentRepo paymentdomain.Repository
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	repo        domain.Repository
	paymentRepo paymentdomain.Repository
	obsMetrics  *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("organization.service"),
		repo:        p.Repo,
		paymentRepo: p.PaymentRepo,
		obsMetrics:  p.ObsMetrics,
	}
}

func (s *Service) GetBalance(ctx context.Context, inn string) (domain.BalanceResponse, error) {
	inn = strings.TrimSpace(inn)

	organization, err := s.repo.FindByINN(ctx, s.db, inn)
	if err != nil {
		return domain.BalanceResponse{}, err
	}
	if organization == nil {
		s.log.Info("organization not found", zap.String("inn", inn))
		s.obsMetrics.RecordBalanceQuery(ctx, "not_found")
		return domain.BalanceResponse{}, domain.ErrNotFound
	}

	s.obsMetrics.RecordBalanceQuery(ctx, "found")

	return domain.BalanceResponse{
		INN:     organization.INN,
		Balance: organization.Balance,
	}, nil
}

func (s *Service) Delete(ctx context.Context, inn string) error {
	inn = strings.TrimSpace(inn)

	organization, err := s.repo.FindByINN(ctx, s.db, inn)
	if err != nil {
		return err
	}
	if organization == nil {
		return domain.ErrNotFound
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := s.paymentRepo.CountByOrganization(ctx, tx, organization.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrHasPayments
		}

		return s.repo.Delete(ctx, tx, organization.ID)
	})
}
