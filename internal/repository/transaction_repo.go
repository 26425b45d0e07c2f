package repository

import (
	"context"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionRepository interface {
	FindByID(ctx context.Context, id int64) (*model.SalesTransaction, error)
	// FindByDedupKey returns the oldest transaction of the given type for the
	// item whose sale date falls in [dayStart, dayEnd).
	FindByDedupKey(ctx context.Context, itemID int64, txType string, dayStart, dayEnd time.Time) (*model.SalesTransaction, error)
	// FindLatestSale returns the most recent sale of the item.
	FindLatestSale(ctx context.Context, itemID int64) (*model.SalesTransaction, error)
	List(ctx context.Context, filter dto.TransactionFilter) ([]model.SalesTransaction, int64, error)

	// Used inside transactions: callers must pass the tx instance
	CreateTx(tx *gorm.DB, t *model.SalesTransaction) error
	LockByIDTx(tx *gorm.DB, id int64) (*model.SalesTransaction, error)
	UpdateStatusTx(tx *gorm.DB, id int64, from, to string) (bool, error)
	DeleteTx(tx *gorm.DB, id int64) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type transactionRepo struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) DB() *gorm.DB { return r.db }

func (r *transactionRepo) FindByID(ctx context.Context, id int64) (*model.SalesTransaction, error) {
	var t model.SalesTransaction
	err := r.db.WithContext(ctx).Preload("InventoryItem").First(&t, id).Error
	return &t, err
}

func (r *transactionRepo) FindByDedupKey(ctx context.Context, itemID int64, txType string, dayStart, dayEnd time.Time) (*model.SalesTransaction, error) {
	var t model.SalesTransaction
	err := r.db.WithContext(ctx).
		Where("inventory_item_id = ? AND transaction_type = ? AND sale_date >= ? AND sale_date < ?",
			itemID, txType, dayStart, dayEnd).
		Order("id ASC").
		First(&t).Error
	return &t, err
}

func (r *transactionRepo) FindLatestSale(ctx context.Context, itemID int64) (*model.SalesTransaction, error) {
	var t model.SalesTransaction
	err := r.db.WithContext(ctx).
		Where("inventory_item_id = ? AND transaction_type = ?", itemID, model.TxTypeSale).
		Order("sale_date DESC, id DESC").
		First(&t).Error
	return &t, err
}

func (r *transactionRepo) List(ctx context.Context, filter dto.TransactionFilter) ([]model.SalesTransaction, int64, error) {
	var txs []model.SalesTransaction
	var total int64

	q := r.db.WithContext(ctx).Model(&model.SalesTransaction{})

	if filter.BatchID != "" {
		q = q.Where("csv_batch_id = ?", filter.BatchID)
	}
	if filter.ClientID > 0 {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.Type != "" {
		q = q.Where("transaction_type = ?", filter.Type)
	}
	if filter.DateFrom != "" {
		q = q.Where("sale_date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		// inclusive upper day
		q = q.Where("sale_date < (?::date + INTERVAL '1 day')", filter.DateTo)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("InventoryItem").
		Order("sale_date DESC, id DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&txs).Error
	return txs, total, err
}

func (r *transactionRepo) CreateTx(tx *gorm.DB, t *model.SalesTransaction) error {
	return tx.Omit(clause.Associations).Create(t).Error
}

func (r *transactionRepo) LockByIDTx(tx *gorm.DB, id int64) (*model.SalesTransaction, error) {
	var t model.SalesTransaction
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, id).Error
	return &t, err
}

func (r *transactionRepo) UpdateStatusTx(tx *gorm.DB, id int64, from, to string) (bool, error) {
	res := tx.Model(&model.SalesTransaction{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": gorm.Expr("NOW()")})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *transactionRepo) DeleteTx(tx *gorm.DB, id int64) error {
	return tx.Delete(&model.SalesTransaction{}, id).Error
}
