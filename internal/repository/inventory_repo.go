package repository

import (
	"context"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/model"

	"gorm.io/gorm"
)

// InventoryRepository defines the data access contract for serialized items.
// Services depend on this interface, not on the concrete GORM implementation,
// so the import engine can be unit tested with in-memory stubs.
type InventoryRepository interface {
	Create(ctx context.Context, item *model.InventoryItem) error
	FindByID(ctx context.Context, id int64) (*model.InventoryItem, error)
	// FindBySerial returns every item carrying the serial. More than one is a
	// data-integrity incident the caller must surface.
	FindBySerial(ctx context.Context, serial string) ([]model.InventoryItem, error)

	// UpdateStatusTx moves the item to `to` only if its current status is one
	// of `from`. Returns false when no row matched (compare-and-set lost).
	UpdateStatusTx(tx *gorm.DB, id int64, from []string, to string) (bool, error)

	DB() *gorm.DB
}

type inventoryRepo struct{ db *gorm.DB }

func NewInventoryRepository(db *gorm.DB) InventoryRepository { return &inventoryRepo{db: db} }

func (r *inventoryRepo) DB() *gorm.DB { return r.db }

func (r *inventoryRepo) Create(ctx context.Context, item *model.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *inventoryRepo) FindByID(ctx context.Context, id int64) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.WithContext(ctx).First(&item, id).Error
	return &item, err
}

func (r *inventoryRepo) FindBySerial(ctx context.Context, serial string) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.WithContext(ctx).
		Where("serial_number = ?", serial).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *inventoryRepo) UpdateStatusTx(tx *gorm.DB, id int64, from []string, to string) (bool, error) {
	res := tx.Model(&model.InventoryItem{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": gorm.Expr("NOW()")})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
