package repository

import (
	"context"

	"mealmates/internal/domain/model"
)

// カートの永続化先。毎回行リスト全体を保存する
type CartStore interface {
	//保存が無ければ空
	Load(ctx context.Context, sessionID string) ([]model.CartLine, error)
	Save(ctx context.Context, sessionID string, lines []model.CartLine) error
}
