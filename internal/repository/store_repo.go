package repository

import (
	"context"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/model"

	"gorm.io/gorm"
)

// StoreRepository and SalesPersonRepository back sales attribution. Both are
// read-only from the import engine's point of view.
type StoreRepository interface {
	Create(ctx context.Context, s *model.Store) error
	FindByCode(ctx context.Context, code string) (*model.Store, error)
	List(ctx context.Context) ([]model.Store, error)
}

type storeRepo struct{ db *gorm.DB }

func NewStoreRepository(db *gorm.DB) StoreRepository { return &storeRepo{db: db} }

func (r *storeRepo) Create(ctx context.Context, s *model.Store) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *storeRepo) FindByCode(ctx context.Context, code string) (*model.Store, error) {
	var s model.Store
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&s).Error
	return &s, err
}

func (r *storeRepo) List(ctx context.Context) ([]model.Store, error) {
	var stores []model.Store
	err := r.db.WithContext(ctx).Where("active = true").Order("code ASC").Find(&stores).Error
	return stores, err
}

type SalesPersonRepository interface {
	Create(ctx context.Context, sp *model.SalesPerson) error
	FindByEmployeeID(ctx context.Context, employeeID string) (*model.SalesPerson, error)
}

type salesPersonRepo struct{ db *gorm.DB }

func NewSalesPersonRepository(db *gorm.DB) SalesPersonRepository { return &salesPersonRepo{db: db} }

func (r *salesPersonRepo) Create(ctx context.Context, sp *model.SalesPerson) error {
	return r.db.WithContext(ctx).Create(sp).Error
}

func (r *salesPersonRepo) FindByEmployeeID(ctx context.Context, employeeID string) (*model.SalesPerson, error) {
	var sp model.SalesPerson
	err := r.db.WithContext(ctx).Where("employee_id = ?", employeeID).First(&sp).Error
	return &sp, err
}
