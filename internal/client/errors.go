package client

import (
	"errors"
	"fmt"
)

// APIError はAPIが返した失敗レスポンス。
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Category   string `json:"category"`
	Action     string `json:"action"`
	// RetryAfter はRATE_LIMITEDの場合のRetry-Afterヘッダの秒数。
	RetryAfter int `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s (HTTP %d)", e.Code, e.Message, e.StatusCode)
}

// IsCode はerrがcodeを持つAPIErrorかどうかを返す。
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
