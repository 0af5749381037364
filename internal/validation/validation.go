// Package validation はgo-playground/validatorによる入力構造体の検証を提供する。
// 検証エラーは最初の違反項目をVALIDATION_FAILEDのAPIErrorに変換して返す。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/jobboard/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// エラーの項目名はJSONのフィールド名で返す
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Struct は構造体のvalidateタグに従って検証する。
// 違反がある場合は*model.APIErrorを返す。
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		return model.NewValidationError(fe.Field(), reason(fe))
	}
	return fmt.Errorf("failed to validate input: %w", err)
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "は必須項目です。"
	case "email":
		return "の形式が正しくありません。"
	case "min":
		return fmt.Sprintf("は%s文字以上で入力してください。", fe.Param())
	case "max":
		return fmt.Sprintf("は%s文字以内で入力してください。", fe.Param())
	case "gte":
		return fmt.Sprintf("は%s以上の値を指定してください。", fe.Param())
	case "uuid", "uuid4":
		return "の形式が正しくありません。"
	default:
		return "の値が不正です。"
	}
}
