package repository

import (
	"context"
	"errors"

	"mealmates/internal/domain/model"
	repo "mealmates/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 設定は常にid=1の1行
const settingsRowID = 1

type SettingsGormRepository struct {
	db *gorm.DB
}

func NewSettingsGormRepository(db *gorm.DB) *SettingsGormRepository {
	return &SettingsGormRepository{db: db}
}

func (r *SettingsGormRepository) Load(ctx context.Context) ([]byte, error) {
	var rec model.SiteSettingsRecord
	err := r.db.WithContext(ctx).Where("id = ?", settingsRowID).First(&rec).Error
	if err != nil {
		if errors.Is(mapError(err), repo.ErrNotFound) {
			return nil, nil
		}
		return nil, mapError(err)
	}
	return []byte(rec.Payload), nil
}

func (r *SettingsGormRepository) Save(ctx context.Context, version int, payload []byte) error {
	rec := model.SiteSettingsRecord{ID: settingsRowID, Version: version, Payload: string(payload)}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "payload", "updated_at"}),
	}).Create(&rec).Error
	return mapError(err)
}
