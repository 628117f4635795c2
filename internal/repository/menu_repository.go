package repository

import (
	"context"

	"mealmates/internal/domain/model"
)

// メニューは読むだけ（編集は別サービス）
type MenuRepository interface {
	FindByID(ctx context.Context, id string) (model.MenuItem, error)
}
