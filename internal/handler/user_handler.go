package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/storage"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	UpdateResume(ctx context.Context, userID string, file storage.File) (*model.User, error)
	// Withdraw はユーザーの退会処理を実行する。
	// セッションを削除した後にユーザーを削除し、応募はカスケード削除される。
	Withdraw(ctx context.Context, userID string) error
}

// UserHandler は求職者アカウントのHTTPハンドラー。
type UserHandler struct {
	service        UserServiceInterface
	uploadMaxBytes int64
	uploadTimeout  time.Duration
}

// NewUserHandler はUserHandlerを生成する。uploadTimeoutが0以下の場合はDefaultUploadTimeoutを用いる。
func NewUserHandler(service UserServiceInterface, uploadMaxBytes int64, uploadTimeout time.Duration) *UserHandler {
	return &UserHandler{
		service:        service,
		uploadMaxBytes: uploadMaxBytes,
		uploadTimeout:  uploadTimeout,
	}
}

// Profile は求職者自身のプロフィールを返す。
// GET /api/users/me
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetProfile(r.Context(), identity.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"profile": toUserResponse(user)})
}

// UpdateResume は履歴書（PDF）をアップロードし、プロフィールに反映する。
// POST /api/users/me/resume (multipart: resume)
func (h *UserHandler) UpdateResume(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if !parseMultipart(w, r, h.uploadMaxBytes, h.uploadTimeout) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, closer, err := formFile(r, "resume")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}
	if file == nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("resume", "は必須項目です。"))
		return
	}
	defer closer.Close()

	user, err := h.service.UpdateResume(r.Context(), identity.ID, *file)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"profile": toUserResponse(user)})
}

// Withdraw はユーザーの退会処理を実行する。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.service.Withdraw(r.Context(), identity.ID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
