package validator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"mealmates/internal/usecase"

	playground "github.com/go-playground/validator/v10"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")
)

type orderValidator struct {
	v *playground.Validate
}

// Usecaseは interface を依存注入
func NewOrderValidator() usecase.ManualOrderValidator {
	v := playground.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &orderValidator{v: v}
}

// 電話注文の入力を検証
func (o *orderValidator) ValidateManualOrder(ctx context.Context, in usecase.ManualOrderInput) error {
	in.CustomerName = strings.TrimSpace(in.CustomerName)

	if err := o.v.StructCtx(ctx, in); err != nil {
		var verrs playground.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", ErrInvalidInput, formatValidationErrors(verrs))
		}
		return err
	}

	// 期限はプリセットか時刻のどちらか一方
	if (in.DuePreset == nil) == (in.DueAt == "") {
		return fmt.Errorf("%w: set exactly one of due_preset or due_at", ErrInvalidInput)
	}
	return nil
}

func formatValidationErrors(verrs playground.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// 先頭の構造体名は落とす
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
