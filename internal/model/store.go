package model

import "time"

// Store is a boutique location used for sales attribution.
type Store struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Code      string `gorm:"type:varchar(40);uniqueIndex;not null"`
	Name      string `gorm:"type:varchar(120);not null"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Store) TableName() string { return "stores" }

// SalesPerson is matched by EmployeeID during import; commission and store
// analytics hang off this attribution.
type SalesPerson struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	EmployeeID string `gorm:"type:varchar(40);uniqueIndex;not null"`
	Name       string `gorm:"type:varchar(120);not null"`
	StoreID    *int64 `gorm:"index"`
	Active     bool   `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (SalesPerson) TableName() string { return "sales_persons" }
