package repository

import (
	"context"

	"mealmates/internal/domain/model"
	repo "mealmates/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultOrderListLimit = 500

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

// ヘッダーだけ作る（明細はInsertOrderItemsで別に書く）
func (r *OrderGormRepository) InsertOrder(ctx context.Context, order model.Order) (model.Order, error) {
	order.Items = nil
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&order).Error; err != nil {
		return model.Order{}, mapError(err)
	}
	return order, nil
}

func (r *OrderGormRepository) InsertOrderItems(ctx context.Context, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return mapError(r.db.WithContext(ctx).Create(&items).Error)
}

// 明細はFKのCASCADEで消える
func (r *OrderGormRepository) DeleteOrder(ctx context.Context, orderID string) error {
	res := r.db.WithContext(ctx).Where("id = ?", orderID).Delete(&model.Order{})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) ListOrders(ctx context.Context, f repo.OrderListFilter) ([]model.Order, error) {
	if f.Limit <= 0 || f.Limit > defaultOrderListLimit {
		f.Limit = defaultOrderListLimit
	}

	q := r.db.WithContext(ctx).Model(&model.Order{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id asc")
		})

	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *f.CreatedFrom)
	}

	var orders []model.Order
	if err := q.Order("created_at desc").Limit(f.Limit).Find(&orders).Error; err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id asc")
		}).
		Where("id = ?", orderID).
		First(&o).Error
	if err != nil {
		return model.Order{}, mapError(err)
	}
	return o, nil
}

func (r *OrderGormRepository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Where("payment_intent_id = ?", paymentIntentID).
		First(&o).Error
	if err != nil {
		return model.Order{}, mapError(err)
	}
	return o, nil
}

func (r *OrderGormRepository) UpdateOrder(ctx context.Context, orderID string, patch repo.OrderPatch) error {
	updates := map[string]interface{}{}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.DismissedAt != nil {
		updates["dismissed_at"] = *patch.DismissedAt
	}
	if patch.DueTime != nil {
		updates["due_time"] = *patch.DueTime
	}
	if len(updates) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(updates)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	return r.UpdateOrder(ctx, orderID, repo.OrderPatch{Status: &status})
}
