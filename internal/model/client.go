package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client is a customer profile. TotalPurchases and TotalSpend are derived from
// the sales ledger and are only ever adjusted inside a transaction commit.
type Client struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	CustomerCode   *string         `gorm:"type:varchar(60);uniqueIndex"`
	FullName       string          `gorm:"type:varchar(200);index;not null"`
	Email          *string         `gorm:"type:varchar(200)"`
	Phone          *string         `gorm:"type:varchar(40)"`
	TotalPurchases int             `gorm:"not null;default:0"`
	TotalSpend     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Client) TableName() string { return "clients" }
