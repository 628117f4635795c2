package usecase

import (
	"context"
	"sync"

	"mealmates/internal/domain/model"
	repo "mealmates/internal/repository"
	"mealmates/internal/settings"

	"github.com/rs/zerolog/log"
)

// 注文まわりが読む設定の取得口
type SettingsProvider interface {
	Current(ctx context.Context) (settings.Schema, error)
}

// SettingsService reads settings fresh from storage on every Current call and
// keeps the last good copy for when the stored document cannot be parsed.
type SettingsService struct {
	repo   repo.SettingsRepository
	audits repo.AuditLogRepository
	clock  Clock

	mu       sync.RWMutex
	lastGood settings.Schema
}

// bootstrapはDBにまだ設定が無いときに使う
func NewSettingsService(r repo.SettingsRepository, audits repo.AuditLogRepository, clock Clock, bootstrap settings.Schema) *SettingsService {
	return &SettingsService{repo: r, audits: audits, clock: clock, lastGood: bootstrap}
}

func (s *SettingsService) Current(ctx context.Context) (settings.Schema, error) {
	raw, err := s.repo.Load(ctx)
	if err != nil {
		return settings.Schema{}, classifyRepoError("load settings", err)
	}
	if raw == nil {
		return s.cached(), nil
	}

	parsed, err := settings.Parse(raw)
	if err != nil {
		log.Error().Err(err).Msg("stored settings are invalid, using last good copy")
		return s.cached(), nil
	}

	s.mu.Lock()
	s.lastGood = parsed
	s.mu.Unlock()
	return parsed, nil
}

func (s *SettingsService) cached() settings.Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastGood
}

// Save validates next and writes it. The last good copy only moves once the
// write has succeeded.
func (s *SettingsService) Save(ctx context.Context, actor Actor, next settings.Schema) (settings.Schema, error) {
	if !actor.Role.AtLeast(model.RoleOwner) {
		return settings.Schema{}, errForbidden
	}
	next.Version = settings.CurrentVersion
	if err := next.Validate(); err != nil {
		return settings.Schema{}, NewValidationError("%s", err.Error())
	}
	payload, err := next.Marshal()
	if err != nil {
		return settings.Schema{}, err
	}

	before := s.cached()
	if err := s.repo.Save(ctx, settings.CurrentVersion, payload); err != nil {
		return settings.Schema{}, classifyRepoError("save settings", err)
	}
	s.mu.Lock()
	s.lastGood = next
	s.mu.Unlock()

	beforeJSON, _ := before.Marshal()
	entry := model.NewSettingsAudit(actor.UserID, s.clock.Now()).WithSnapshots(beforeJSON, payload)
	if err := s.audits.Create(ctx, entry); err != nil {
		// 設定自体は保存済み
		log.Warn().Err(err).Msg("settings audit log failed")
	}
	return next, nil
}
