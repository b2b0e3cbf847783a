package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	// GetOrCreate inserts candidate unless a row with its INN already
	// exists, then returns the authoritative row. Safe under concurrent
	// calls with the same INN: the unique constraint guarantees at most
	// one row per INN.
	GetOrCreate(ctx context.Context, db *gorm.DB, candidate *Organization) (*Organization, error)

	// IncrementBalance atomically adds amount to the stored balance and
	// returns the updated value.
	IncrementBalance(ctx context.Context, db *gorm.DB, id snowflake.ID, amount decimal.Decimal) (decimal.Decimal, error)

	// FindByINN returns nil when no organization matches.
	FindByINN(ctx context.Context, db *gorm.DB, inn string) (*Organization, error)

	// Delete removes the organization unless payments still reference it.
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
