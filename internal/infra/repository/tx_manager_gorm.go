package repository

import (
	"context"

	repo "mealmates/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// tx に束縛したリポジトリの組
type boundRepos struct {
	tx *gorm.DB
}

func (b boundRepos) Orders() repo.OrderRepository       { return NewOrderGormRepository(b.tx) }
func (b boundRepos) AuditLogs() repo.AuditLogRepository { return NewAuditLogGormRepository(b.tx) }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	err := tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(boundRepos{tx: tx})
	})
	if err != nil {
		log.Debug().Err(err).Msg("transaction rolled back")
		// fn の HTTPError 等を潰さないよう包まずに返す
		return err
	}
	return nil
}
