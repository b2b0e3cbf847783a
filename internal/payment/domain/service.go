package domain

import (
	"context"
	"errors"
	"time"

	"github.com/fintegro/bankhook/pkg/db/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type IngestRequest struct {
	OperationID    string
	Amount         decimal.Decimal
	PayerINN       string
	DocumentNumber string
	DocumentDate   time.Time
}

type IngestResult struct {
	OperationID uuid.UUID
	Balance     decimal.Decimal
}

type ListPaymentsRequest struct {
	INN       string
	PageToken string
	PageSize  int
}

type ListPaymentsResponse struct {
	pagination.PageInfo
	Payments []Payment `json:"payments"`
}

type Service interface {
	// Ingest applies the webhook payload at most once per operation
	// identifier. A repeated delivery returns ErrAlreadyProcessed with no
	// additional effect, regardless of the rest of the payload.
	Ingest(ctx context.Context, req IngestRequest) (IngestResult, error)

	ListByINN(ctx context.Context, req ListPaymentsRequest) (ListPaymentsResponse, error)
}

var (
	ErrAlreadyProcessed      = errors.New("payment_already_processed")
	ErrInvalidOperationID    = errors.New("invalid_operation_id")
	ErrInvalidAmount         = errors.New("invalid_amount")
	ErrInvalidDocumentNumber = errors.New("invalid_document_number")
	ErrInvalidDocumentDate   = errors.New("invalid_document_date")
)
