package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/jobboard/internal/metrics"
	"github.com/hitoshi/jobboard/internal/middleware"
	"github.com/hitoshi/jobboard/internal/model"
)

// healthCheckTimeout はヘルスチェックのDB疎通確認の上限時間。
const healthCheckTimeout = 2 * time.Second

// HealthChecker はヘルスチェックで疎通確認を行う対象。*sql.DBが実装する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Metrics           metrics.MetricsCollector
	MetricsHandler    http.Handler
	HealthChecker     HealthChecker

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 求人・応募
	JobService         JobServiceInterface
	ApplicationService ApplicationServiceInterface

	// アカウント
	UserService    UserServiceInterface
	CompanyService CompanyProfileServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → CORS
//	  公開ルート:   RateLimit(General, IP単位)
//	  登録・ログイン: RateLimit(Auth, IP単位) → RateLimit(General)
//	  認証ルート:   Auth → RateLimit(General, プリンシパル単位) → RequireRole
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.UserService, deps.CompanyService, deps.AuthConfig)
	jobHandler := NewJobHandler(deps.JobService)
	appHandler := NewApplicationHandler(deps.ApplicationService)
	userHandler := NewUserHandler(deps.UserService, deps.AuthConfig.UploadMaxBytes, deps.AuthConfig.UploadTimeout)
	companyHandler := NewCompanyHandler(deps.CompanyService)

	// --- 運用エンドポイント ---
	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	requireAuth := middleware.NewAuthMiddleware(deps.Authenticator)
	general := deps.RateLimiter.GeneralMiddleware()

	r.Route("/api", func(r chi.Router) {
		// --- 認証不要のルート ---
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.AuthMiddleware())
			r.Use(general)

			r.Post("/auth/users/register", authHandler.RegisterUser)
			r.Post("/auth/users/login", authHandler.LoginUser)
			r.Post("/auth/companies/register", authHandler.RegisterCompany)
			r.Post("/auth/companies/login", authHandler.LoginCompany)
		})

		r.Group(func(r chi.Router) {
			r.Use(general)

			r.Get("/jobs", jobHandler.ListJobs)
			r.Get("/jobs/search", jobHandler.SearchJobs)
			r.Get("/jobs/{id}", jobHandler.GetJob)
		})

		// --- 認証が必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(general)

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)

			// 企業
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleCompany))

				r.Post("/jobs", jobHandler.PostJob)
				r.Post("/jobs/{id}/visibility", jobHandler.ChangeVisibility)
				r.Get("/companies/me", companyHandler.Profile)
				r.Get("/companies/me/jobs", jobHandler.ListCompanyJobs)
				r.Get("/companies/me/applicants", appHandler.ListApplicants)
				r.Post("/applications/{id}/status", appHandler.SetStatus)
			})

			// 求職者
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleUser))

				r.Post("/applications", appHandler.Apply)
				r.Get("/applications/me", appHandler.ListMine)
				r.Get("/users/me", userHandler.Profile)
				r.Post("/users/me/resume", userHandler.UpdateResume)
				r.Delete("/users/me", userHandler.Withdraw)
			})
		})
	})

	return r
}

// healthHandler はDBへの疎通を確認し、結果を返す。
// GET /health
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()
			if err := checker.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]any{"success": false, "status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}
}
