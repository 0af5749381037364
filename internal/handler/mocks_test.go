package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/jobboard/internal/auth"
	"github.com/hitoshi/jobboard/internal/job"
	"github.com/hitoshi/jobboard/internal/jobfilter"
	"github.com/hitoshi/jobboard/internal/middleware"
	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/storage"
)

// --- モック定義 ---

type mockAuthService struct {
	registerUserFn    func(ctx context.Context, in auth.RegisterInput) (*auth.AuthResult, error)
	registerCompanyFn func(ctx context.Context, in auth.RegisterInput) (*auth.AuthResult, error)
	loginUserFn       func(ctx context.Context, in auth.LoginInput) (*auth.AuthResult, error)
	loginCompanyFn    func(ctx context.Context, in auth.LoginInput) (*auth.AuthResult, error)
	logoutFn          func(ctx context.Context, identity model.Identity) error
}

func (m *mockAuthService) RegisterUser(ctx context.Context, in auth.RegisterInput) (*auth.AuthResult, error) {
	return m.registerUserFn(ctx, in)
}
func (m *mockAuthService) RegisterCompany(ctx context.Context, in auth.RegisterInput) (*auth.AuthResult, error) {
	return m.registerCompanyFn(ctx, in)
}
func (m *mockAuthService) LoginUser(ctx context.Context, in auth.LoginInput) (*auth.AuthResult, error) {
	return m.loginUserFn(ctx, in)
}
func (m *mockAuthService) LoginCompany(ctx context.Context, in auth.LoginInput) (*auth.AuthResult, error) {
	return m.loginCompanyFn(ctx, in)
}
func (m *mockAuthService) Logout(ctx context.Context, identity model.Identity) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, identity)
	}
	return nil
}

type mockUserService struct {
	getProfileFn   func(ctx context.Context, userID string) (*model.User, error)
	updateResumeFn func(ctx context.Context, userID string, file storage.File) (*model.User, error)
	withdrawFn     func(ctx context.Context, userID string) error
}

func (m *mockUserService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	return m.getProfileFn(ctx, userID)
}
func (m *mockUserService) UpdateResume(ctx context.Context, userID string, file storage.File) (*model.User, error) {
	return m.updateResumeFn(ctx, userID, file)
}
func (m *mockUserService) Withdraw(ctx context.Context, userID string) error {
	if m.withdrawFn != nil {
		return m.withdrawFn(ctx, userID)
	}
	return nil
}

type mockCompanyService struct {
	getProfileFn func(ctx context.Context, companyID string) (*model.Company, error)
}

func (m *mockCompanyService) GetProfile(ctx context.Context, companyID string) (*model.Company, error) {
	return m.getProfileFn(ctx, companyID)
}

type mockJobService struct {
	listJobsFn         func(ctx context.Context) ([]model.JobWithCompany, error)
	searchJobsFn       func(ctx context.Context, c jobfilter.Criteria, page int) (jobfilter.Page[model.JobWithCompany], error)
	getJobFn           func(ctx context.Context, jobID string) (*model.JobWithCompany, error)
	postJobFn          func(ctx context.Context, companyID string, in job.PostJobInput) (*model.Job, error)
	changeVisibilityFn func(ctx context.Context, companyID, jobID string) (*model.Job, error)
	listCompanyJobsFn  func(ctx context.Context, companyID string) ([]model.JobWithApplicantCount, error)
}

func (m *mockJobService) ListJobs(ctx context.Context) ([]model.JobWithCompany, error) {
	return m.listJobsFn(ctx)
}
func (m *mockJobService) SearchJobs(ctx context.Context, c jobfilter.Criteria, page int) (jobfilter.Page[model.JobWithCompany], error) {
	return m.searchJobsFn(ctx, c, page)
}
func (m *mockJobService) GetJob(ctx context.Context, jobID string) (*model.JobWithCompany, error) {
	return m.getJobFn(ctx, jobID)
}
func (m *mockJobService) PostJob(ctx context.Context, companyID string, in job.PostJobInput) (*model.Job, error) {
	return m.postJobFn(ctx, companyID, in)
}
func (m *mockJobService) ChangeVisibility(ctx context.Context, companyID, jobID string) (*model.Job, error) {
	return m.changeVisibilityFn(ctx, companyID, jobID)
}
func (m *mockJobService) ListCompanyJobs(ctx context.Context, companyID string) ([]model.JobWithApplicantCount, error) {
	return m.listCompanyJobsFn(ctx, companyID)
}

type mockApplicationService struct {
	applyFn                 func(ctx context.Context, userID, jobID string) (*model.Application, error)
	listUserApplicationsFn  func(ctx context.Context, userID string) ([]model.ApplicationWithJob, error)
	listCompanyApplicantsFn func(ctx context.Context, companyID string) ([]model.ApplicationWithApplicant, error)
	setStatusFn             func(ctx context.Context, companyID, applicationID, status string) (*model.Application, error)
}

func (m *mockApplicationService) Apply(ctx context.Context, userID, jobID string) (*model.Application, error) {
	return m.applyFn(ctx, userID, jobID)
}
func (m *mockApplicationService) ListUserApplications(ctx context.Context, userID string) ([]model.ApplicationWithJob, error) {
	return m.listUserApplicationsFn(ctx, userID)
}
func (m *mockApplicationService) ListCompanyApplicants(ctx context.Context, companyID string) ([]model.ApplicationWithApplicant, error) {
	return m.listCompanyApplicantsFn(ctx, companyID)
}
func (m *mockApplicationService) SetStatus(ctx context.Context, companyID, applicationID, status string) (*model.Application, error) {
	return m.setStatusFn(ctx, companyID, applicationID, status)
}

var (
	_ AuthServiceInterface           = (*mockAuthService)(nil)
	_ UserServiceInterface           = (*mockUserService)(nil)
	_ CompanyProfileServiceInterface = (*mockCompanyService)(nil)
	_ JobServiceInterface            = (*mockJobService)(nil)
	_ ApplicationServiceInterface    = (*mockApplicationService)(nil)
)

// --- テストヘルパー ---

// withIdentity はテスト用にリクエストコンテキストにIdentityを注入するヘルパー。
func withIdentity(r *http.Request, id string, role model.Role) *http.Request {
	ctx := middleware.ContextWithIdentity(r.Context(), model.Identity{ID: id, Role: role, SessionID: "sess-" + id})
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest はフォーム値と任意のファイルを含むmultipartリクエストを生成する。
func multipartRequest(t *testing.T, target string, fields map[string]string, fileField, fileName string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		fw.Write(content)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// serveWithShortTimeouts はRead/WriteTimeoutを短く設定した実サーバーでreqを処理し、レスポンスを返す。
// reqはmultipartRequest等で生成したパスのみのリクエストでよい。
func serveWithShortTimeouts(t *testing.T, h http.HandlerFunc, req *http.Request, timeout time.Duration) (*http.Response, error) {
	t.Helper()
	srv := httptest.NewUnstartedServer(h)
	srv.Config.ReadTimeout = timeout
	srv.Config.WriteTimeout = timeout
	srv.Start()
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL + req.URL.RequestURI())
	if err != nil {
		t.Fatalf("url.Parse: %v", err)
	}
	req.URL = target
	req.Host = target.Host
	req.RequestURI = ""
	return srv.Client().Do(req)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	return body
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d; body = %s", w.Code, want, w.Body.String())
	}
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	assertStatus(t, w, wantStatus)
	body := decodeBody(t, w)
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
	if body["code"] != wantCode {
		t.Errorf("code = %v, want %s", body["code"], wantCode)
	}
}
