package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type BalanceResponse struct {
	INN     string          `json:"inn"`
	Balance decimal.Decimal `json:"balance"`
}

type Service interface {
	GetBalance(ctx context.Context, inn string) (BalanceResponse, error)
	Delete(ctx context.Context, inn string) error
}

var (
	ErrNotFound    = errors.New("organization_not_found")
	ErrHasPayments = errors.New("organization_has_payments")
)
