package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/fintegro/bankhook/internal/organization/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) GetOrCreate(ctx context.Context, db *gorm.DB, candidate *domain.Organization) (*domain.Organization, error) {
	// The conflict target resolves the create/create race: whichever
	// insert loses simply falls through to the select below.
	if err := db.WithContext(ctx).Exec(
		`INSERT INTO organizations (id, inn, balance, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (inn) DO NOTHING`,
		candidate.ID,
		candidate.INN,
		candidate.Balance,
		candidate.CreatedAt,
	).Error; err != nil {
		return nil, err
	}

	return r.FindByINN(ctx, db, candidate.INN)
}

func (r *repo) IncrementBalance(ctx context.Context, db *gorm.DB, id snowflake.ID, amount decimal.Decimal) (decimal.Decimal, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE organizations SET balance = balance + ? WHERE id = ?`,
		amount,
		id,
	)
	if result.Error != nil {
		return decimal.Zero, result.Error
	}
	if result.RowsAffected == 0 {
		return decimal.Zero, errors.New("organization row missing for balance update")
	}

	var row struct {
		Balance decimal.Decimal
	}
	err := db.WithContext(ctx).Raw(
		`SELECT balance FROM organizations WHERE id = ?`,
		id,
	).Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Balance, nil
}

func (r *repo) FindByINN(ctx context.Context, db *gorm.DB, inn string) (*domain.Organization, error) {
	var organization domain.Organization
	err := db.WithContext(ctx).Raw(
		`SELECT id, inn, balance, created_at
		 FROM organizations WHERE inn = ?`,
		inn,
	).Scan(&organization).Error
	if err != nil {
		return nil, err
	}
	if organization.ID == 0 {
		return nil, nil
	}
	return &organization, nil
}

// Delete removes the organization row. Callers are responsible for the
// payment-reference guard before issuing the delete.
func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM organizations WHERE id = ?`,
		id,
	).Error
}
