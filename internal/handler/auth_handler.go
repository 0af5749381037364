// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/jobboard/internal/auth"
	"github.com/hitoshi/jobboard/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	RegisterUser(ctx context.Context, in auth.RegisterInput) (*auth.AuthResult, error)
	RegisterCompany(ctx context.Context, in auth.RegisterInput) (*auth.AuthResult, error)
	LoginUser(ctx context.Context, in auth.LoginInput) (*auth.AuthResult, error)
	LoginCompany(ctx context.Context, in auth.LoginInput) (*auth.AuthResult, error)
	Logout(ctx context.Context, identity model.Identity) error
}

// UserProfileServiceInterface は求職者プロフィールの取得を提供する。
type UserProfileServiceInterface interface {
	GetProfile(ctx context.Context, userID string) (*model.User, error)
}

// CompanyProfileServiceInterface は企業プロフィールの取得を提供する。
type CompanyProfileServiceInterface interface {
	GetProfile(ctx context.Context, companyID string) (*model.Company, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	UploadMaxBytes int64         // アップロードファイルの最大サイズ
	UploadTimeout  time.Duration // アップロードを伴うリクエストの読み書き期限（0以下で既定値）
}

// AuthHandler は登録・ログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	users     UserProfileServiceInterface
	companies CompanyProfileServiceInterface
	config    AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, users UserProfileServiceInterface, companies CompanyProfileServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:   service,
		users:     users,
		companies: companies,
		config:    config,
	}
}

// RegisterUser は求職者を登録する。
// POST /api/auth/users/register (multipart: name, email, password, image?)
func (h *AuthHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, h.service.RegisterUser)
}

// RegisterCompany は企業を登録する。ロゴ画像は必須。
// POST /api/auth/companies/register (multipart: name, email, password, image)
func (h *AuthHandler) RegisterCompany(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, h.service.RegisterCompany)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request, fn func(context.Context, auth.RegisterInput) (*auth.AuthResult, error)) {
	if !parseMultipart(w, r, h.config.UploadMaxBytes, h.config.UploadTimeout) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	image, closer, err := formFile(r, "image")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	result, err := fn(r.Context(), auth.RegisterInput{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		Image:    image,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeAuthResult(w, http.StatusCreated, result)
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginUser は求職者のログインを処理する。
// POST /api/auth/users/login
func (h *AuthHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.service.LoginUser)
}

// LoginCompany は企業のログインを処理する。
// POST /api/auth/companies/login
func (h *AuthHandler) LoginCompany(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.service.LoginCompany)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, fn func(context.Context, auth.LoginInput) (*auth.AuthResult, error)) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := fn(r.Context(), auth.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeAuthResult(w, http.StatusOK, result)
}

// Logout は現在のセッションを破棄する。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.service.Logout(r.Context(), identity); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me は現在ログイン中のプリンシパルのプロフィールを返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	switch identity.Role {
	case model.RoleUser:
		user, err := h.users.GetProfile(r.Context(), identity.ID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": toUserResponse(user)})
	case model.RoleCompany:
		company, err := h.companies.GetProfile(r.Context(), identity.ID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": toCompanyResponse(company)})
	default:
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
	}
}

func writeAuthResult(w http.ResponseWriter, statusCode int, result *auth.AuthResult) {
	payload := map[string]any{
		"token":      result.Token,
		"role":       string(result.Identity.Role),
		"expires_at": result.ExpiresAt,
	}
	switch {
	case result.User != nil:
		payload["profile"] = toUserResponse(result.User)
	case result.Company != nil:
		payload["profile"] = toCompanyResponse(result.Company)
	}
	writeJSON(w, statusCode, payload)
}
