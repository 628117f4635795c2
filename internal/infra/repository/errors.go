package repository

import (
	"context"
	"errors"
	"net"

	repo "mealmates/internal/repository"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// DBのエラーをrepositoryのエラーに寄せる
// 接続系はErrUnavailable、行なしはErrNotFound、一意制約違反はErrDuplicate、それ以外はそのまま返す
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return errors.Join(repo.ErrDuplicate, err)
	}
	if isUnavailable(err) {
		return errors.Join(repo.ErrUnavailable, err)
	}
	return err
}

func isUnavailable(err error) bool {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	if pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
