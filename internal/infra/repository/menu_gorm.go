package repository

import (
	"context"

	"mealmates/internal/domain/model"

	"gorm.io/gorm"
)

type MenuGormRepository struct {
	db *gorm.DB
}

// DI
func NewMenuGormRepository(db *gorm.DB) *MenuGormRepository {
	return &MenuGormRepository{db: db}
}

func (r *MenuGormRepository) FindByID(ctx context.Context, id string) (model.MenuItem, error) {
	var m model.MenuItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return model.MenuItem{}, mapError(err)
	}
	return m, nil
}
