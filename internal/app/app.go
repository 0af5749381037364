package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/jobboard/internal/application"
	"github.com/hitoshi/jobboard/internal/auth"
	"github.com/hitoshi/jobboard/internal/company"
	"github.com/hitoshi/jobboard/internal/config"
	"github.com/hitoshi/jobboard/internal/database"
	"github.com/hitoshi/jobboard/internal/handler"
	"github.com/hitoshi/jobboard/internal/job"
	"github.com/hitoshi/jobboard/internal/logger"
	"github.com/hitoshi/jobboard/internal/metrics"
	"github.com/hitoshi/jobboard/internal/middleware"
	"github.com/hitoshi/jobboard/internal/repository"
	"github.com/hitoshi/jobboard/internal/security"
	"github.com/hitoshi/jobboard/internal/storage"
	"github.com/hitoshi/jobboard/internal/user"
	"github.com/hitoshi/jobboard/internal/worker/cleanup"
)

const (
	serviceName = "jobboard"
	// uploadFolder はCloudinary上の保存先フォルダ。
	uploadFolder = "jobboard"
	// dbConnectTimeout は起動時のDB疎通確認の待ち時間。
	dbConnectTimeout = 10 * time.Second
	shutdownTimeout  = 30 * time.Second
)

// Init はアプリケーションの初期化を行う。
// .envファイルと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. .envの読み込み（LOG_LEVELをロガーに反映させるため最初に行う）
	envErr := config.LoadEnvFile(".env")

	// 2. ログの初期化
	logger.SetupDefault(w, serviceName)
	if envErr != nil {
		slog.Warn("failed to load .env file", slog.String("error", envErr.Error()))
	}

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd, err := ParseCommand(args)
	if err != nil {
		return err
	}

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// ctxがキャンセルされる（SIGINT/SIGTERM）とグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	db, err := database.Connect(ctx, cfg.DatabaseURL, database.DefaultPoolConfig(), dbConnectTimeout)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	router, closeDeps, err := buildRouter(cfg, db, slog.Default())
	if err != nil {
		return err
	}
	defer closeDeps()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// buildRouter はリポジトリ・サービス・ミドルウェアを組み立ててルーターを返す。
// 返されるclose関数はレート制限のバックエンドを解放する。
func buildRouter(cfg *config.Config, db *sql.DB, log *slog.Logger) (http.Handler, func(), error) {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	companyRepo := repository.NewPostgresCompanyRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	jobRepo := repository.NewPostgresJobRepo(db)
	applicationRepo := repository.NewPostgresApplicationRepo(db)

	// 2. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 3. セキュリティ・ストレージ
	tokens, err := security.NewJWTIssuer(cfg.TokenSecret)
	if err != nil {
		return nil, nil, err
	}
	cloudinaryUploader, err := storage.NewCloudinaryUploader(cfg.CloudinaryURL, uploadFolder)
	if err != nil {
		return nil, nil, err
	}
	files := storage.NewService(
		storage.NewRetryingUploader(cloudinaryUploader, cfg.UploadMaxAttempts, log),
		cfg.UploadMaxBytes, collector, log,
	)

	// 4. ドメインサービスの初期化
	authService := auth.NewService(
		userRepo, companyRepo, sessionRepo,
		security.NewBcryptHasher(cfg.BcryptCost), tokens, files,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)
	jobService := job.NewService(jobRepo, security.NewContentSanitizer(), collector)
	applicationService := application.NewService(applicationRepo, jobRepo, userRepo, collector)
	userService := user.NewService(userRepo, sessionRepo, files)
	companyService := company.NewService(companyRepo)

	// 5. レート制限
	rateLimiter, closeLimiter, err := newRateLimiter(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	// 6. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            log,
		Authenticator:     authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(registry),
		HealthChecker:     db,

		AuthService: authService,
		AuthConfig:  handler.AuthHandlerConfig{
			UploadMaxBytes: cfg.UploadMaxBytes,
			UploadTimeout:  cfg.UploadTimeout,
		},

		JobService:         jobService,
		ApplicationService: applicationService,
		UserService:        userService,
		CompanyService:     companyService,
	})

	return router, closeLimiter, nil
}

// newRateLimiter はレート制限を構築する。
// 一般APIは常にプロセス内のトークンバケット、認証APIはREDIS_URLが設定されていれば
// Redisの固定ウィンドウ（複数インスタンス間で共有）を使用する。
func newRateLimiter(cfg *config.Config, log *slog.Logger) (*middleware.RateLimiter, func(), error) {
	rlCfg := middleware.DefaultRateLimiterConfig()
	rlCfg.GeneralLimit = cfg.RateLimitGeneral
	rlCfg.AuthLimit = cfg.RateLimitAuth
	rlCfg.TrustedProxies = cfg.TrustedProxies

	local := middleware.NewLocalLimiter(rlCfg.CleanupInterval)
	if cfg.RedisURL == "" {
		return middleware.NewRateLimiter(rlCfg, local, local), local.Stop, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		local.Stop()
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	log.Info("auth rate limiting backed by redis", slog.String("addr", opts.Addr))

	closeFn := func() {
		local.Stop()
		if err := client.Close(); err != nil {
			log.Warn("failed to close redis client", slog.String("error", err.Error()))
		}
	}
	return middleware.NewRateLimiter(rlCfg, local, middleware.NewRedisLimiter(client)), closeFn, nil
}

// runWorker はワーカーモードで起動する。
// 期限切れセッションの削除を起動直後とSESSION_CLEANUP_INTERVAL毎に実行する。
// ctxがキャンセルされる（SIGINT/SIGTERM）と終了する。
func runWorker(ctx context.Context, cfg *config.Config) error {
	db, err := database.Connect(ctx, cfg.DatabaseURL, database.PoolConfig{MaxOpenConns: 2}, dbConnectTimeout)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	cleanup.NewSessionCleanupJob(db, slog.Default()).Start(ctx, cfg.SessionCleanupInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
