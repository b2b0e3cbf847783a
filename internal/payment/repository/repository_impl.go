package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fintegro/bankhook/internal/payment/domain"
	"github.com/fintegro/bankhook/pkg/db/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, operation_id, organization_id, amount,
			document_number, document_date, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (operation_id) DO NOTHING`,
		payment.ID,
		payment.OperationID,
		payment.OrganizationID,
		payment.Amount,
		payment.DocumentNumber,
		payment.DocumentDate.UTC(),
		payment.CreatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ExistsByOperationID(ctx context.Context, db *gorm.DB, operationID uuid.UUID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("operation_id = ?", operationID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) ListByOrganization(ctx context.Context, db *gorm.DB, orgID snowflake.ID, page pagination.Pagination) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	stmt := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("organization_id = ?", orgID)

	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		documentDate, err := time.Parse(time.RFC3339, cursor.DocumentDate)
		if err != nil {
			return nil, err
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, err
		}
		stmt = stmt.Where(
			"document_date < ? OR (document_date = ? AND id < ?)",
			documentDate, documentDate, id,
		)
	}

	limit := page.PageSize
	if limit <= 0 {
		limit = 10
	}

	err := stmt.
		Order("document_date desc, id desc").
		Limit(limit + 1).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) CountByOrganization(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("organization_id = ?", orgID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
