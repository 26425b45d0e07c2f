package model

import "time"

// ActivityLog is the append-only audit trail. Entries are never modified or
// deleted; reversals append a new entry.
// Action: "transaction_created" | "transaction_deleted"
type ActivityLog struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	Action      string  `gorm:"type:varchar(40);not null;index"`
	EntityType  string  `gorm:"type:varchar(40);not null"`
	EntityID    int64   `gorm:"not null;index"`
	Description string  `gorm:"not null"`
	Actor       string  `gorm:"type:varchar(120);not null;default:''"`
	BatchID     *string `gorm:"type:varchar(64);index"`
	CreatedAt   time.Time
}

func (ActivityLog) TableName() string { return "activity_logs" }
