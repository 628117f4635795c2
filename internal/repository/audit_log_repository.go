package repository

import (
	"context"
	"time"

	"mealmates/internal/domain/model"
)

const (
	DefaultAuditPageSize = 50
	MaxAuditPageSize     = 200
)

// nil の項目は絞り込まない
type AuditLogFilter struct {
	ActorUserID  *string
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *string
	CreatedFrom  *time.Time
	Limit        int
	Offset       int
}

// Page は範囲外の limit/offset を丸めた値を返す
func (f AuditLogFilter) Page() (limit, offset int) {
	limit = f.Limit
	if limit <= 0 || limit > MaxAuditPageSize {
		limit = DefaultAuditPageSize
	}
	offset = f.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// 監査ログは追記のみ。更新・削除はしない
type AuditLogRepository interface {
	Create(ctx context.Context, entry model.AuditLog) error
	// 新しい順
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
