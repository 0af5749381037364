package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/jobboard/internal/auth"
	"github.com/hitoshi/jobboard/internal/metrics"
	"github.com/hitoshi/jobboard/internal/middleware"
	"github.com/hitoshi/jobboard/internal/model"
)

// tokenAuthenticator はトークン文字列からIdentityを引くテスト用Authenticator。
type tokenAuthenticator map[string]model.Identity

func (a tokenAuthenticator) Authenticate(_ context.Context, token string) (model.Identity, error) {
	if id, ok := a[token]; ok {
		return id, nil
	}
	return model.Identity{}, model.NewUnauthorizedError()
}

type mockHealthChecker struct{ err error }

func (m mockHealthChecker) PingContext(context.Context) error { return m.err }

const (
	userToken    = "user-token"
	companyToken = "company-token"
)

func newRouterDeps(t *testing.T) *RouterDeps {
	t.Helper()
	local := middleware.NewLocalLimiter(time.Minute)
	t.Cleanup(local.Stop)

	return &RouterDeps{
		Authenticator: tokenAuthenticator{
			userToken:    {ID: "u-1", Role: model.RoleUser, SessionID: "s-u"},
			companyToken: {ID: "c-1", Role: model.RoleCompany, SessionID: "s-c"},
		},
		CORSAllowedOrigin: "http://localhost:5173",
		RateLimiter:       middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig(), local, local),
		HealthChecker:     mockHealthChecker{},
		AuthService: &mockAuthService{
			loginUserFn: func(context.Context, auth.LoginInput) (*auth.AuthResult, error) {
				return nil, model.NewInvalidCredentialsError()
			},
		},
		AuthConfig: AuthHandlerConfig{UploadMaxBytes: 1 << 20},
		JobService: &mockJobService{
			listJobsFn: func(context.Context) ([]model.JobWithCompany, error) {
				return []model.JobWithCompany{sampleJob("j-1")}, nil
			},
			getJobFn: func(_ context.Context, id string) (*model.JobWithCompany, error) {
				j := sampleJob(id)
				return &j, nil
			},
			listCompanyJobsFn: func(context.Context, string) ([]model.JobWithApplicantCount, error) {
				return nil, nil
			},
		},
		ApplicationService: &mockApplicationService{
			listUserApplicationsFn: func(context.Context, string) ([]model.ApplicationWithJob, error) {
				return nil, nil
			},
			listCompanyApplicantsFn: func(context.Context, string) ([]model.ApplicationWithApplicant, error) {
				return nil, nil
			},
		},
		UserService: &mockUserService{getProfileFn: func(_ context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		}},
		CompanyService: &mockCompanyService{getProfileFn: func(_ context.Context, id string) (*model.Company, error) {
			return &model.Company{ID: id}, nil
		}},
	}
}

func serve(router http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set(middleware.AuthTokenHeader, token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestRouter_AccessControl は各ルートの認証・ロール制御を検証する。
func TestRouter_AccessControl(t *testing.T) {
	router := NewRouter(newRouterDeps(t))

	tests := []struct {
		method string
		path   string
		token  string
		want   int
	}{
		// 公開ルート
		{http.MethodGet, "/api/jobs", "", http.StatusOK},
		{http.MethodGet, "/api/jobs/j-1", "", http.StatusOK},

		// 認証必須
		{http.MethodGet, "/api/auth/me", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/auth/me", "forged", http.StatusUnauthorized},
		{http.MethodGet, "/api/auth/me", userToken, http.StatusOK},
		{http.MethodGet, "/api/auth/me", companyToken, http.StatusOK},
		{http.MethodPost, "/api/auth/logout", userToken, http.StatusNoContent},

		// 企業専用
		{http.MethodGet, "/api/companies/me", companyToken, http.StatusOK},
		{http.MethodGet, "/api/companies/me", userToken, http.StatusForbidden},
		{http.MethodGet, "/api/companies/me/jobs", userToken, http.StatusForbidden},
		{http.MethodGet, "/api/companies/me/applicants", companyToken, http.StatusOK},
		{http.MethodPost, "/api/jobs", userToken, http.StatusForbidden},
		{http.MethodPost, "/api/jobs", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/jobs/j-1/visibility", userToken, http.StatusForbidden},
		{http.MethodPost, "/api/applications/a-1/status", userToken, http.StatusForbidden},

		// 求職者専用
		{http.MethodGet, "/api/applications/me", userToken, http.StatusOK},
		{http.MethodGet, "/api/applications/me", companyToken, http.StatusForbidden},
		{http.MethodPost, "/api/applications", companyToken, http.StatusForbidden},
		{http.MethodGet, "/api/users/me", userToken, http.StatusOK},
		{http.MethodGet, "/api/users/me", companyToken, http.StatusForbidden},
		{http.MethodDelete, "/api/users/me", companyToken, http.StatusForbidden},
		{http.MethodPost, "/api/users/me/resume", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path+" "+tt.token, func(t *testing.T) {
			w := serve(router, tt.method, tt.path, tt.token)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d; body = %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestRouter_Health(t *testing.T) {
	deps := newRouterDeps(t)
	w := serve(NewRouter(deps), http.MethodGet, "/health", "")
	assertStatus(t, w, http.StatusOK)

	deps.HealthChecker = mockHealthChecker{err: errors.New("db down")}
	w = serve(NewRouter(deps), http.MethodGet, "/health", "")
	assertStatus(t, w, http.StatusServiceUnavailable)
	if body := decodeBody(t, w); body["success"] != false {
		t.Errorf("body = %v", body)
	}
}

func TestRouter_MetricsEndpointAndHTTPCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	deps := newRouterDeps(t)
	deps.Metrics = metrics.NewCollector(reg)
	deps.MetricsHandler = metrics.Handler(reg)
	router := NewRouter(deps)

	serve(router, http.MethodGet, "/api/jobs", "")
	serve(router, http.MethodGet, "/api/users/me", "")

	w := serve(router, http.MethodGet, "/metrics", "")
	assertStatus(t, w, http.StatusOK)
	body := w.Body.String()
	for _, want := range []string{
		`jobboard_http_requests_total{status_code="200"}`,
		`jobboard_http_requests_total{status_code="401"}`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := NewRouter(newRouterDeps(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/applications", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, middleware.AuthTokenHeader) {
		t.Errorf("Access-Control-Allow-Headers = %q", got)
	}
}

func TestRouter_AuthEndpointsAreRateLimitedPerIP(t *testing.T) {
	router := NewRouter(newRouterDeps(t))
	limit := middleware.DefaultRateLimiterConfig().AuthLimit

	login := func(ip string) *httptest.ResponseRecorder {
		req := jsonRequest(t, http.MethodPost, "/api/auth/users/login",
			map[string]string{"email": "a@example.com", "password": "wrong-pass"})
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < limit; i++ {
		if w := login("192.0.2.10"); w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i, w.Code)
		}
	}

	w := login("192.0.2.10")
	assertErrorCode(t, w, http.StatusTooManyRequests, model.ErrCodeRateLimited)
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header should be set")
	}

	if w := login("192.0.2.11"); w.Code != http.StatusUnauthorized {
		t.Errorf("other IP: status = %d, want 401", w.Code)
	}
}

// TestRouter_AuthRateLimitIgnoresForwardedFor は転送ヘッダを入れ替えても
// 同一接続元からのログイン試行が上限で拒否されることを検証する。
func TestRouter_AuthRateLimitIgnoresForwardedFor(t *testing.T) {
	router := NewRouter(newRouterDeps(t))
	limit := middleware.DefaultRateLimiterConfig().AuthLimit

	limited := 0
	for i := 0; i < limit*5; i++ {
		req := jsonRequest(t, http.MethodPost, "/api/auth/users/login",
			map[string]string{"email": "a@example.com", "password": "wrong-pass"})
		req.RemoteAddr = "192.0.2.10:1234"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i+1))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.0.1.%d", i+1))
		req.Header.Set("True-Client-IP", fmt.Sprintf("10.0.2.%d", i+1))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code == http.StatusTooManyRequests {
			limited++
		}
	}

	if want := limit * 4; limited != want {
		t.Errorf("429 responses = %d, want %d", limited, want)
	}
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	deps := newRouterDeps(t)
	deps.JobService = &mockJobService{listJobsFn: func(context.Context) ([]model.JobWithCompany, error) {
		panic("unexpected")
	}}

	w := serve(NewRouter(deps), http.MethodGet, "/api/jobs", "")
	assertErrorCode(t, w, http.StatusInternalServerError, model.ErrCodeInternal)
}

func TestRouter_SecurityHeaders(t *testing.T) {
	w := serve(NewRouter(newRouterDeps(t)), http.MethodGet, "/api/jobs", "")
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}
