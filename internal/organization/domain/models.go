package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Organization is a payer identified by its tax identifier (INN).
// The balance column is only ever mutated through an in-database
// increment, never by read-modify-write in application code.
type Organization struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	INN       string          `gorm:"column:inn;type:varchar(12);not null;uniqueIndex:ux_organizations_inn" json:"inn"`
	Balance   decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"balance"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }
