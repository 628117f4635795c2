package usecase

import (
	"context"
	"net/http"

	"mealmates/internal/domain/model"
	repo "mealmates/internal/repository"
)

// 監査ログの閲覧（owner以上）
type AuditLogUsecase struct {
	audits repo.AuditLogRepository
}

func NewAuditLogUsecase(audits repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{audits: audits}
}

func (u *AuditLogUsecase) List(ctx context.Context, actor Actor, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	if actor.UserID == "" {
		return nil, errUnauthorized
	}
	if !actor.Role.AtLeast(model.RoleOwner) {
		return nil, errForbidden
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid paging")
	}

	logs, err := u.audits.List(ctx, filter)
	if err != nil {
		return nil, classifyRepoError("list audit logs", err)
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}
