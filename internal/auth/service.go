// Package auth は求職者・企業のパスワード認証とセッション管理を提供する。
// ログインに成功するとサーバー側にセッションを作成し、そのIDをjtiに持つ
// 署名付きトークンを発行する。トークンはX-Auth-Tokenヘッダで提示される。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/repository"
	"github.com/hitoshi/jobboard/internal/security"
	"github.com/hitoshi/jobboard/internal/storage"
	"github.com/hitoshi/jobboard/internal/validation"
)

// maxPasswordBytes はbcryptが扱えるパスワードの最大バイト数。
const maxPasswordBytes = 72

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge time.Duration // セッション有効期間
}

// RegisterInput は求職者・企業の登録入力。
// 企業登録ではImage（ロゴ）が必須、求職者登録ではImage（アバター）は任意。
type RegisterInput struct {
	Name     string        `json:"name" validate:"notblank,max=100"`
	Email    string        `json:"email" validate:"required,email,max=254"`
	Password string        `json:"password" validate:"min=8,max=72"`
	Image    *storage.File `json:"-"`
}

// LoginInput はログイン入力。
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult は登録・ログイン成功時の結果。
// User と Company はロールに応じていずれか一方のみが設定される。
type AuthResult struct {
	Token     string
	Identity  model.Identity
	ExpiresAt time.Time
	User      *model.User
	Company   *model.Company
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	sessionRepo repository.SessionRepository
	hasher      security.PasswordHasher
	tokens      security.TokenIssuer
	files       storage.FileStore
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	companyRepo repository.CompanyRepository,
	sessionRepo repository.SessionRepository,
	hasher security.PasswordHasher,
	tokens security.TokenIssuer,
	files storage.FileStore,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		tokens:      tokens,
		files:       files,
		config:      config,
	}
}

// RegisterUser は求職者アカウントを作成し、セッションを発行する。
// 手順: 入力検証 → メール重複確認 → パスワードハッシュ化 → アバター保存（任意） → 作成 → セッション発行。
func (s *Service) RegisterUser(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateRegister(in); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	var avatarURL string
	if in.Image != nil {
		avatarURL, err = s.files.Store(ctx, storage.KindAvatar, *in.Image)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        in.Email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		AvatarURL:    avatarURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user registered", slog.String("user_id", user.ID))

	result, err := s.openSession(ctx, model.Identity{ID: user.ID, Role: model.RoleUser})
	if err != nil {
		return nil, err
	}
	result.User = user
	return result, nil
}

// RegisterCompany は企業アカウントを作成し、セッションを発行する。ロゴ画像は必須。
func (s *Service) RegisterCompany(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateRegister(in); err != nil {
		return nil, err
	}
	if in.Image == nil {
		return nil, model.NewValidationError("image", "は必須項目です。")
	}

	existing, err := s.companyRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find company by email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	logoURL, err := s.files.Store(ctx, storage.KindLogo, *in.Image)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	company := &model.Company{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: hash,
		LogoURL:      logoURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.companyRepo.Create(ctx, company); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	slog.Info("new company registered", slog.String("company_id", company.ID))

	result, err := s.openSession(ctx, model.Identity{ID: company.ID, Role: model.RoleCompany})
	if err != nil {
		return nil, err
	}
	result.Company = company
	return result, nil
}

// LoginUser は求職者のメールアドレスとパスワードを照合し、セッションを発行する。
// 未登録のメールアドレスとパスワード不一致は区別せずINVALID_CREDENTIALSを返す。
func (s *Service) LoginUser(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}
	if err := s.checkPassword(user.PasswordHash, in.Password); err != nil {
		return nil, err
	}

	result, err := s.openSession(ctx, model.Identity{ID: user.ID, Role: model.RoleUser})
	if err != nil {
		return nil, err
	}
	result.User = user
	return result, nil
}

// LoginCompany は企業のメールアドレスとパスワードを照合し、セッションを発行する。
func (s *Service) LoginCompany(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	company, err := s.companyRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find company by email: %w", err)
	}
	if company == nil {
		return nil, model.NewInvalidCredentialsError()
	}
	if err := s.checkPassword(company.PasswordHash, in.Password); err != nil {
		return nil, err
	}

	result, err := s.openSession(ctx, model.Identity{ID: company.ID, Role: model.RoleCompany})
	if err != nil {
		return nil, err
	}
	result.Company = company
	return result, nil
}

// Authenticate はトークンを検証し、リクエストのIdentityを返す。
// 署名・有効期限の検証に加え、jtiに対応する有効なセッションが存在し、
// そのプリンシパル・ロールがトークンと一致し、プリンシパルのレコードが
// 存在することを要求する。いずれかの失敗はUNAUTHORIZEDとなる。
func (s *Service) Authenticate(ctx context.Context, token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, model.NewUnauthorizedError()
	}

	identity, err := s.tokens.Parse(token)
	if err != nil {
		return model.Identity{}, model.NewUnauthorizedError()
	}

	session, err := s.sessionRepo.FindByID(ctx, identity.SessionID)
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil || session.PrincipalID != identity.ID || session.Role != identity.Role {
		return model.Identity{}, model.NewUnauthorizedError()
	}

	exists, err := s.principalExists(ctx, identity)
	if err != nil {
		return model.Identity{}, err
	}
	if !exists {
		return model.Identity{}, model.NewUnauthorizedError()
	}

	return identity, nil
}

// Logout はセッションを破棄する。以後同じトークンは認証に失敗する。
func (s *Service) Logout(ctx context.Context, identity model.Identity) error {
	if identity.SessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, identity.SessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("principal logged out",
		slog.String("principal_id", identity.ID),
		slog.String("role", string(identity.Role)),
	)
	return nil
}

// principalExists はIdentityに対応するユーザーまたは企業が存在するかを返す。
func (s *Service) principalExists(ctx context.Context, identity model.Identity) (bool, error) {
	switch identity.Role {
	case model.RoleUser:
		user, err := s.userRepo.FindByID(ctx, identity.ID)
		if err != nil {
			return false, fmt.Errorf("failed to find user: %w", err)
		}
		return user != nil, nil
	case model.RoleCompany:
		company, err := s.companyRepo.FindByID(ctx, identity.ID)
		if err != nil {
			return false, fmt.Errorf("failed to find company: %w", err)
		}
		return company != nil, nil
	default:
		return false, nil
	}
}

func (s *Service) checkPassword(hash, password string) error {
	ok, err := s.hasher.Compare(hash, password)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewInvalidCredentialsError()
	}
	return nil
}

// openSession はセッションを作成し永続化したうえでトークンを発行する。
func (s *Service) openSession(ctx context.Context, identity model.Identity) (*AuthResult, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:          sessionID,
		PrincipalID: identity.ID,
		Role:        identity.Role,
		ExpiresAt:   now.Add(s.config.SessionMaxAge),
		CreatedAt:   now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	token, err := s.tokens.Issue(identity, sessionID, session.ExpiresAt)
	if err != nil {
		return nil, err
	}

	identity.SessionID = sessionID
	return &AuthResult{
		Token:     token,
		Identity:  identity,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func validateRegister(in RegisterInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if len(in.Password) > maxPasswordBytes {
		return model.NewValidationError("password", "が長すぎます。")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
