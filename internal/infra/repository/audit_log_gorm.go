package repository

import (
	"context"
	"time"

	"mealmates/internal/domain/model"
	repo "mealmates/internal/repository"

	"gorm.io/gorm"
)

type auditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

func (r *auditLogGormRepository) Create(ctx context.Context, entry model.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	// IDは採番に任せる
	entry.ID = 0
	return mapError(r.db.WithContext(ctx).Create(&entry).Error)
}

func (r *auditLogGormRepository) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	limit, offset := filter.Page()

	var entries []model.AuditLog
	err := r.db.WithContext(ctx).
		Scopes(auditLogWhere(filter)).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, mapError(err)
	}
	return entries, nil
}

func auditLogWhere(f repo.AuditLogFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Model(&model.AuditLog{})
		eq := map[string]interface{}{}
		if f.ActorUserID != nil {
			eq["actor_user_id"] = *f.ActorUserID
		}
		if f.Action != nil {
			eq["action"] = string(*f.Action)
		}
		if f.ResourceType != nil {
			eq["resource_type"] = string(*f.ResourceType)
		}
		if f.ResourceID != nil {
			eq["resource_id"] = *f.ResourceID
		}
		if len(eq) > 0 {
			db = db.Where(eq)
		}
		if f.CreatedFrom != nil {
			db = db.Where("created_at >= ?", *f.CreatedFrom)
		}
		return db
	}
}
