package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/hitoshi/jobboard/internal/middleware"
	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/storage"
)

// maxJSONBodyBytes はJSONリクエストボディの上限。
const maxJSONBodyBytes = 1 << 20

// multipartMemory はmultipart解析時にメモリに保持する上限。超過分は一時ファイルに書き出される。
const multipartMemory = 8 << 20

// DefaultUploadTimeout はアップロードを伴うリクエストの読み書き期限の既定値。
// サーバー全体のRead/WriteTimeoutより長く、外部ストレージへの再試行を含めて完了できる長さとする。
const DefaultUploadTimeout = 2 * time.Minute

// writeJSON は成功レスポンスを書き込む。payloadのフィールドに "success": true を付与する。
func writeJSON(w http.ResponseWriter, statusCode int, payload map[string]any) {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = true

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeAPIErrorResponse は統一エラーフォーマットのレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidationFailed, model.ErrCodeInvalidRequest,
		model.ErrCodeInvalidStatus, model.ErrCodeInvalidUpload:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeJobNotFound, model.ErrCodeApplicationNotFound,
		model.ErrCodeUserNotFound, model.ErrCodeCompanyNotFound:
		return http.StatusNotFound
	case model.ErrCodeAlreadyApplied, model.ErrCodeEmailTaken:
		return http.StatusConflict
	case model.ErrCodeResumeMissing:
		return http.StatusUnprocessableEntity
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case model.ErrCodeUploadFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON はリクエストボディをJSONとしてdstに読み込む。
// 解析に失敗した場合はINVALID_REQUESTを書き込みfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return false
	}
	return true
}

// requireIdentity は認証済みIdentityを取得する。
// 未認証の場合は401を書き込みfalseを返す。
func requireIdentity(w http.ResponseWriter, r *http.Request) (model.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return model.Identity{}, false
	}
	return identity, true
}

// extendDeadlines はこのリクエストに限り接続の読み書き期限をtimeout後まで延長する。
// timeoutが0以下の場合はDefaultUploadTimeoutを用いる。
// 期限の設定に対応しないResponseWriter（テスト用レコーダー等）では何もしない。
func extendDeadlines(w http.ResponseWriter, timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultUploadTimeout
	}
	deadline := time.Now().Add(timeout)
	rc := http.NewResponseController(w)
	for _, set := range []func(time.Time) error{rc.SetReadDeadline, rc.SetWriteDeadline} {
		if err := set(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
			slog.Warn("failed to extend upload deadline", slog.String("error", err.Error()))
		}
	}
}

// parseMultipart はmultipart/form-dataを解析する。
// 本文の上限はmaxBytesに多少の余裕を加えた値とする。
// 本文の受信と後続のアップロードのため、接続の期限をtimeoutまで延長してから読み始める。
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64, timeout time.Duration) bool {
	extendDeadlines(w, timeout)
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidUploadError("ファイルサイズが上限を超えています。"))
			return false
		}
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return false
	}
	return true
}

// formFile はmultipartフォームのファイルをstorage.Fileとして取り出す。
// ファイルが添付されていない場合は (nil, nil, nil) を返す。
// 戻り値のio.Closerは呼び出し側で閉じる。
func formFile(r *http.Request, field string) (*storage.File, io.Closer, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &storage.File{Filename: filename(header), Content: file}, file, nil
}

func filename(header *multipart.FileHeader) string {
	if header == nil {
		return ""
	}
	return header.Filename
}
