package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"mealmates/internal/domain/model"
	repo "mealmates/internal/repository"
	"mealmates/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type AuditListRepoMock struct{ AuditRepoMock }

func (m *AuditListRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

func TestAuditLogUsecase_List(t *testing.T) {
	ctx := context.Background()

	t.Run("manager is forbidden", func(t *testing.T) {
		uc := usecase.NewAuditLogUsecase(new(AuditListRepoMock))
		_, err := uc.List(ctx, manager, repo.AuditLogFilter{})
		assertHTTPStatus(t, err, http.StatusForbidden)
	})

	t.Run("owner sees logs", func(t *testing.T) {
		m := new(AuditListRepoMock)
		m.On("List", mock.Anything, repo.AuditLogFilter{Limit: 10}).Return(nil, nil).Once()

		logs, err := usecase.NewAuditLogUsecase(m).List(ctx, owner, repo.AuditLogFilter{Limit: 10})
		require.NoError(t, err)
		assert.NotNil(t, logs)
		assert.Empty(t, logs)
		m.AssertExpectations(t)
	})

	t.Run("negative paging", func(t *testing.T) {
		uc := usecase.NewAuditLogUsecase(new(AuditListRepoMock))
		_, err := uc.List(ctx, owner, repo.AuditLogFilter{Offset: -1})
		assertHTTPStatus(t, err, http.StatusBadRequest)
	})
}
