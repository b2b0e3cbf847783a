package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is one ingested bank payment. Rows are append-only: the
// operation identifier is the idempotency key and the first write wins.
type Payment struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	OperationID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_payments_operation_id" json:"operation_id"`
	OrganizationID snowflake.ID    `gorm:"not null;index" json:"organization_id"`
	Amount         decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	DocumentNumber string          `gorm:"type:varchar(50);not null" json:"document_number"`
	DocumentDate   time.Time       `gorm:"not null;index" json:"document_date"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }
