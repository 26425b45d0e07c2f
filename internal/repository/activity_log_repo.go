package repository

import (
	"context"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/model"

	"gorm.io/gorm"
)

// ActivityLogRepository is append-only: there is no update or delete.
type ActivityLogRepository interface {
	CreateTx(tx *gorm.DB, entry *model.ActivityLog) error
	List(ctx context.Context, filter dto.ActivityFilter) ([]model.ActivityLog, int64, error)
}

type activityLogRepo struct{ db *gorm.DB }

func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepo{db: db}
}

func (r *activityLogRepo) CreateTx(tx *gorm.DB, entry *model.ActivityLog) error {
	return tx.Create(entry).Error
}

func (r *activityLogRepo) List(ctx context.Context, filter dto.ActivityFilter) ([]model.ActivityLog, int64, error) {
	var entries []model.ActivityLog
	var total int64

	q := r.db.WithContext(ctx).Model(&model.ActivityLog{})
	if filter.EntityType != "" {
		q = q.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID > 0 {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	if filter.BatchID != "" {
		q = q.Where("batch_id = ?", filter.BatchID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(filter.Limit).Find(&entries).Error
	return entries, total, err
}
