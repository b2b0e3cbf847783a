package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/fintegro/bankhook/pkg/db/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	// Insert appends the payment row. Returns false without error when a
	// row with the same operation identifier already exists; the insert
	// itself is the enforcement point for idempotency.
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) (bool, error)

	ExistsByOperationID(ctx context.Context, db *gorm.DB, operationID uuid.UUID) (bool, error)

	ListByOrganization(ctx context.Context, db *gorm.DB, orgID snowflake.ID, page pagination.Pagination) ([]*Payment, error)

	CountByOrganization(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error)
}
