package repository

import (
	"context"
	"strings"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClientRepository interface {
	Create(ctx context.Context, c *model.Client) error
	FindByID(ctx context.Context, id int64) (*model.Client, error)
	FindByCustomerCode(ctx context.Context, code string) (*model.Client, error)
	// FindByNameEmail matches case-insensitively on trimmed values, newest first.
	FindByNameEmail(ctx context.Context, name, email string) ([]model.Client, error)

	// Used inside transactions: callers must pass the tx instance
	LockByIDTx(tx *gorm.DB, id int64) (*model.Client, error)
	UpdateMetricsTx(tx *gorm.DB, id int64, purchases int, spend decimal.Decimal) error

	DB() *gorm.DB
}

type clientRepo struct{ db *gorm.DB }

func NewClientRepository(db *gorm.DB) ClientRepository { return &clientRepo{db: db} }

func (r *clientRepo) DB() *gorm.DB { return r.db }

func (r *clientRepo) Create(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clientRepo) FindByID(ctx context.Context, id int64) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *clientRepo) FindByCustomerCode(ctx context.Context, code string) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).Where("customer_code = ?", code).First(&c).Error
	return &c, err
}

func (r *clientRepo) FindByNameEmail(ctx context.Context, name, email string) ([]model.Client, error) {
	var clients []model.Client
	err := r.db.WithContext(ctx).
		Where("LOWER(TRIM(full_name)) = ? AND LOWER(TRIM(email)) = ?",
			strings.ToLower(strings.TrimSpace(name)), strings.ToLower(strings.TrimSpace(email))).
		Order("created_at DESC, id DESC").
		Find(&clients).Error
	return clients, err
}

func (r *clientRepo) LockByIDTx(tx *gorm.DB, id int64) (*model.Client, error) {
	var c model.Client
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, id).Error
	return &c, err
}

func (r *clientRepo) UpdateMetricsTx(tx *gorm.DB, id int64, purchases int, spend decimal.Decimal) error {
	return tx.Model(&model.Client{}).Where("id = ?", id).Updates(map[string]interface{}{
		"total_purchases": purchases,
		"total_spend":     spend,
		"updated_at":      gorm.Expr("NOW()"),
	}).Error
}
