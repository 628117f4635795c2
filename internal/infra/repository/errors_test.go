package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	repo "mealmates/internal/repository"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))

	assert.ErrorIs(t, mapError(gorm.ErrRecordNotFound), repo.ErrNotFound)
	assert.ErrorIs(t, mapError(fmt.Errorf("find: %w", gorm.ErrRecordNotFound)), repo.ErrNotFound)

	deadline := mapError(context.DeadlineExceeded)
	assert.ErrorIs(t, deadline, repo.ErrUnavailable)
	assert.ErrorIs(t, deadline, context.DeadlineExceeded)

	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	assert.ErrorIs(t, mapError(dial), repo.ErrUnavailable)

	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "idx_orders_payment_intent_id"}
	dup := mapError(fmt.Errorf("insert order: %w", unique))
	assert.ErrorIs(t, dup, repo.ErrDuplicate)
	assert.False(t, errors.Is(dup, repo.ErrUnavailable))

	// その他の制約違反はそのまま
	other := &pgconn.PgError{Code: pgerrcode.CheckViolation}
	got := mapError(other)
	assert.Same(t, other, got)
	assert.False(t, errors.Is(got, repo.ErrUnavailable))
	assert.False(t, errors.Is(got, repo.ErrDuplicate))
}
