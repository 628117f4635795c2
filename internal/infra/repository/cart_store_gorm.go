package repository

import (
	"context"
	"encoding/json"
	"errors"

	"mealmates/internal/domain/model"
	repo "mealmates/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// セッションごとのカートをjsonbで1行に保存する
type CartStoreGorm struct {
	db *gorm.DB
}

func NewCartStoreGorm(db *gorm.DB) *CartStoreGorm {
	return &CartStoreGorm{db: db}
}

func (s *CartStoreGorm) Load(ctx context.Context, sessionID string) ([]model.CartLine, error) {
	var snap model.CartSnapshot
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&snap).Error
	if err != nil {
		if errors.Is(mapError(err), repo.ErrNotFound) {
			return []model.CartLine{}, nil
		}
		return nil, mapError(err)
	}

	lines := []model.CartLine{}
	if err := json.Unmarshal([]byte(snap.LinesJSON), &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// 同じセッションなら上書き
func (s *CartStoreGorm) Save(ctx context.Context, sessionID string, lines []model.CartLine) error {
	if lines == nil {
		lines = []model.CartLine{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return err
	}

	snap := model.CartSnapshot{SessionID: sessionID, LinesJSON: string(b)}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"lines", "updated_at"}),
	}).Create(&snap).Error
	return mapError(err)
}
