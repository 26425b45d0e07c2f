package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	TxTypeSale     = "sale"
	TxTypeCredit   = "credit"
	TxTypeExchange = "exchange"
	TxTypeWarranty = "warranty"
)

// Transaction sources.
const (
	SourceManual    = "manual"
	SourceCSVImport = "csv_import"
	SourcePOSSystem = "pos_system"
)

// Soft statuses. A committed transaction is otherwise immutable.
const (
	TxStatusRecorded = "recorded"
	TxStatusCredited = "credited"
)

// SalesTransaction is one committed ledger row.
// ProfitMargin is nil when the item had no cost basis or a credit could not be
// linked to its original sale.
type SalesTransaction struct {
	ID                    int64            `gorm:"primaryKey;autoIncrement"`
	ClientID              int64            `gorm:"not null;index"`
	InventoryItemID       int64            `gorm:"not null;index:idx_sales_tx_dedup,priority:1"`
	TransactionType       string           `gorm:"type:varchar(20);not null;index:idx_sales_tx_dedup,priority:2"`
	SaleDate              time.Time        `gorm:"not null;index:idx_sales_tx_dedup,priority:3"`
	SellingPrice          decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	RetailPrice           *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ProfitMargin          *decimal.Decimal `gorm:"type:decimal(12,2)"`
	SalesPersonID         *int64           `gorm:"index"`
	StoreID               *int64           `gorm:"index"`
	Source                string           `gorm:"type:varchar(20);not null"`
	OriginalTransactionID *int64           `gorm:"index"`
	CSVBatchID            *string          `gorm:"column:csv_batch_id;type:varchar(64);index"`
	BatchRow              *int
	Notes                 *string
	Status                string `gorm:"type:varchar(20);not null;default:'recorded'"`
	CreatedBy             string `gorm:"type:varchar(120);not null;default:''"`
	CreatedAt             time.Time
	UpdatedAt             time.Time

	Client        *Client        `gorm:"foreignKey:ClientID"`
	InventoryItem *InventoryItem `gorm:"foreignKey:InventoryItemID"`
}

func (SalesTransaction) TableName() string { return "sales_transactions" }
