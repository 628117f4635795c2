package usecase

import (
	"errors"
	"fmt"

	repo "mealmates/internal/repository"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 入力や支払い条件の問題。ユーザーが直せば通る
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// 支払い前の保存失敗。再試行してよい
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// 支払いは成功したが注文が保存できなかった。自動で再試行してはいけない
type PaymentReconciliationError struct {
	PaymentIntentID string
	Err             error
}

func (e *PaymentReconciliationError) Error() string {
	return fmt.Sprintf("payment %s succeeded but order was not saved: %v", e.PaymentIntentID, e.Err)
}

func (e *PaymentReconciliationError) Unwrap() error { return e.Err }

// 一時的な接続エラー
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// repositoryのエラーを呼び出し側の分類に変換する
func classifyRepoError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrUnavailable) {
		return &NetworkError{Err: err}
	}
	return &PersistenceError{Op: op, Err: err}
}
