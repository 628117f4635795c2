package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"mealmates/internal/domain/model"
	"mealmates/internal/settings"
	"mealmates/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var owner = usecase.Actor{UserID: "owner-1", Role: model.RoleOwner}

func newSettingsService(r *SettingsRepoMock, audits *AuditRepoMock) *usecase.SettingsService {
	return usecase.NewSettingsService(r, audits, &fixedClock{now: baseNow}, settings.Defaults())
}

func TestSettingsService_Current_NoStoredDocument_UsesBootstrap(t *testing.T) {
	r := new(SettingsRepoMock)
	r.On("Load", mock.Anything).Return(nil, nil)

	got, err := newSettingsService(r, new(AuditRepoMock)).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultAutoArchiveHours, got.Archive.AutoArchiveHours)
}

func TestSettingsService_Current_InvalidDocument_KeepsLastGood(t *testing.T) {
	ctx := context.Background()
	r := new(SettingsRepoMock)
	r.On("Load", mock.Anything).Return([]byte(`{"version":1,"archiveSettings":{"autoArchiveHours":24}}`), nil).Once()
	r.On("Load", mock.Anything).Return([]byte(`{"version":1,"archiveSettings":{"autoArchiveHours":0}}`), nil).Once()

	svc := newSettingsService(r, new(AuditRepoMock))

	first, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 24, first.Archive.AutoArchiveHours)

	second, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 24, second.Archive.AutoArchiveHours)
}

func TestSettingsService_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("manager cannot save", func(t *testing.T) {
		r := new(SettingsRepoMock)
		_, err := newSettingsService(r, new(AuditRepoMock)).Save(ctx,
			usecase.Actor{UserID: "m", Role: model.RoleManager}, settings.Defaults())
		assertHTTPStatus(t, err, http.StatusForbidden)
		r.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid settings", func(t *testing.T) {
		r := new(SettingsRepoMock)
		next := settings.Defaults()
		next.Archive.AutoArchiveHours = 0

		_, err := newSettingsService(r, new(AuditRepoMock)).Save(ctx, owner, next)
		var verr *usecase.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("saved and audited", func(t *testing.T) {
		r := new(SettingsRepoMock)
		audits := new(AuditRepoMock)
		r.On("Save", mock.Anything, settings.CurrentVersion, mock.Anything).Return(nil).Once()
		r.On("Load", mock.Anything).Return(nil, nil)
		audits.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
			return l.Action == model.AuditActionUpdateSettings && l.ActorUserID == "owner-1"
		})).Return(nil).Once()

		svc := newSettingsService(r, audits)
		next := settings.Defaults()
		next.Archive.AutoArchiveHours = 12

		saved, err := svc.Save(ctx, owner, next)
		require.NoError(t, err)
		assert.Equal(t, 12, saved.Archive.AutoArchiveHours)

		cur, err := svc.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, 12, cur.Archive.AutoArchiveHours)
		r.AssertExpectations(t)
		audits.AssertExpectations(t)
	})

	t.Run("write failure keeps previous value", func(t *testing.T) {
		r := new(SettingsRepoMock)
		audits := new(AuditRepoMock)
		r.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
		r.On("Load", mock.Anything).Return(nil, nil)

		svc := newSettingsService(r, audits)
		next := settings.Defaults()
		next.Archive.AutoArchiveHours = 12

		_, err := svc.Save(ctx, owner, next)
		var perr *usecase.PersistenceError
		assert.ErrorAs(t, err, &perr)

		cur, err := svc.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, settings.DefaultAutoArchiveHours, cur.Archive.AutoArchiveHours)
		audits.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
	t.Run("saved value is the fallback for a broken stored document", func(t *testing.T) {
		r := new(SettingsRepoMock)
		audits := new(AuditRepoMock)
		r.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		r.On("Load", mock.Anything).Return([]byte(`{"version":1,"archiveSettings":{"autoArchiveHours":0}}`), nil)
		audits.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

		svc := newSettingsService(r, audits)
		next := settings.Defaults()
		next.Archive.AutoArchiveHours = 6

		_, err := svc.Save(ctx, owner, next)
		require.NoError(t, err)

		cur, err := svc.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, 6, cur.Archive.AutoArchiveHours)
	})
}
