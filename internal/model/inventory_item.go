package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Inventory item statuses. Only the transaction state updater moves an item
// between them.
const (
	ItemStatusInStock  = "in_stock"
	ItemStatusReserved = "reserved"
	ItemStatusSold     = "sold"
)

// InventoryItem is one serialized luxury piece (watch, bag, jewel).
// SerialNumber is indexed but not unique-constrained: a duplicate serial is a
// data-integrity incident that the importer must detect and report.
type InventoryItem struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	SerialNumber string `gorm:"type:varchar(120);index;not null"`
	Brand        string `gorm:"type:varchar(120);not null"`
	Model        string `gorm:"type:varchar(120);not null"`
	Description  *string
	// Status: "in_stock" | "reserved" | "sold"
	Status      string           `gorm:"type:varchar(20);not null;default:'in_stock'"`
	CostPrice   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	RetailPrice *decimal.Decimal `gorm:"type:decimal(12,2)"`
	StoreID     *int64           `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (InventoryItem) TableName() string { return "inventory_items" }
