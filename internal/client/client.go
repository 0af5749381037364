// Package client は求人ボードAPIの型付きHTTPクライアントと、
// 画面が参照するクライアント状態（State）を提供する。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hitoshi/jobboard/internal/jobfilter"
)

// AuthTokenHeader は認証トークンを送るリクエストヘッダ。
const AuthTokenHeader = "X-Auth-Token"

// maxResponseBytes はレスポンスボディの読み取り上限。
const maxResponseBytes = 4 << 20

// Client は求人ボードAPIのクライアント。
// 状態を持たず、認証が必要な呼び出しにはトークンを引数で渡す。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// New はClientの新しいインスタンスを生成する。baseURLは例えば "http://localhost:8080"。
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// --- 認証 ---

// RegisterUser は求職者を登録してセッションを返す。Imageはアバター（任意）。
func (c *Client) RegisterUser(ctx context.Context, in RegisterRequest) (*Session, error) {
	return c.register(ctx, "/api/auth/users/register", in)
}

// RegisterCompany は企業を登録してセッションを返す。Imageはロゴ（必須）。
func (c *Client) RegisterCompany(ctx context.Context, in RegisterRequest) (*Session, error) {
	return c.register(ctx, "/api/auth/companies/register", in)
}

// LoginUser は求職者としてログインする。
func (c *Client) LoginUser(ctx context.Context, email, password string) (*Session, error) {
	return c.login(ctx, "/api/auth/users/login", email, password)
}

// LoginCompany は企業としてログインする。
func (c *Client) LoginCompany(ctx context.Context, email, password string) (*Session, error) {
	return c.login(ctx, "/api/auth/companies/login", email, password)
}

// Logout はトークンのセッションを破棄する。
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, "", nil)
}

// Me はトークンのプリンシパルのプロフィールを返す。
func (c *Client) Me(ctx context.Context, token string) (*Profile, error) {
	var out struct {
		Profile Profile `json:"profile"`
	}
	if err := c.getJSON(ctx, "/api/auth/me", token, &out); err != nil {
		return nil, err
	}
	return &out.Profile, nil
}

func (c *Client) register(ctx context.Context, path string, in RegisterRequest) (*Session, error) {
	fields := map[string]string{"name": in.Name, "email": in.Email, "password": in.Password}
	body, contentType, err := multipartBody(fields, "image", in.Image)
	if err != nil {
		return nil, err
	}
	var out Session
	if err := c.do(ctx, http.MethodPost, path, "", body, contentType, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) login(ctx context.Context, path, email, password string) (*Session, error) {
	var out Session
	payload := map[string]string{"email": email, "password": password}
	if err := c.postJSON(ctx, path, "", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- 求人 ---

// ListJobs は公開中の求人を作成順（古い順）に返す。
func (c *Client) ListJobs(ctx context.Context) ([]Job, error) {
	var out struct {
		Jobs []Job `json:"jobs"`
	}
	if err := c.getJSON(ctx, "/api/jobs", "", &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// SearchJobs はサーバー側で絞り込み・ページングした求人を返す。
func (c *Client) SearchJobs(ctx context.Context, criteria jobfilter.Criteria, page int) (*JobPage, error) {
	q := url.Values{}
	if criteria.Title != "" {
		q.Set("title", criteria.Title)
	}
	if criteria.Location != "" {
		q.Set("location", criteria.Location)
	}
	for _, cat := range criteria.Categories {
		q.Add("category", cat)
	}
	for _, loc := range criteria.Locations {
		q.Add("loc", loc)
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}

	path := "/api/jobs/search"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Result JobPage `json:"result"`
	}
	if err := c.getJSON(ctx, path, "", &out); err != nil {
		return nil, err
	}
	return &out.Result, nil
}

// GetJob は公開中の求人の詳細を返す。
func (c *Client) GetJob(ctx context.Context, jobID string) (*Job, error) {
	var out struct {
		Job Job `json:"job"`
	}
	if err := c.getJSON(ctx, "/api/jobs/"+url.PathEscape(jobID), "", &out); err != nil {
		return nil, err
	}
	return &out.Job, nil
}

// PostJob は企業として求人を投稿する。
func (c *Client) PostJob(ctx context.Context, token string, in PostJobRequest) (*Job, error) {
	var out struct {
		Job Job `json:"job"`
	}
	if err := c.postJSON(ctx, "/api/jobs", token, in, &out); err != nil {
		return nil, err
	}
	return &out.Job, nil
}

// ChangeVisibility は自社求人の公開状態を反転する。
func (c *Client) ChangeVisibility(ctx context.Context, token, jobID string) (*Job, error) {
	var out struct {
		Job Job `json:"job"`
	}
	path := "/api/jobs/" + url.PathEscape(jobID) + "/visibility"
	if err := c.postJSON(ctx, path, token, nil, &out); err != nil {
		return nil, err
	}
	return &out.Job, nil
}

// ListCompanyJobs は自社の全求人を応募者数付きで返す。
func (c *Client) ListCompanyJobs(ctx context.Context, token string) ([]Job, error) {
	var out struct {
		Jobs []Job `json:"jobs"`
	}
	if err := c.getJSON(ctx, "/api/companies/me/jobs", token, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// --- 応募 ---

// Apply は求職者として求人に応募する。
func (c *Client) Apply(ctx context.Context, token, jobID string) (*Application, error) {
	var out struct {
		Application Application `json:"application"`
	}
	if err := c.postJSON(ctx, "/api/applications", token, map[string]string{"job_id": jobID}, &out); err != nil {
		return nil, err
	}
	return &out.Application, nil
}

// ListMyApplications は求職者自身の応募一覧を返す。
func (c *Client) ListMyApplications(ctx context.Context, token string) ([]Application, error) {
	var out struct {
		Applications []Application `json:"applications"`
	}
	if err := c.getJSON(ctx, "/api/applications/me", token, &out); err != nil {
		return nil, err
	}
	return out.Applications, nil
}

// ListApplicants は企業の全求人への応募一覧を返す。
func (c *Client) ListApplicants(ctx context.Context, token string) ([]Application, error) {
	var out struct {
		Applications []Application `json:"applications"`
	}
	if err := c.getJSON(ctx, "/api/companies/me/applicants", token, &out); err != nil {
		return nil, err
	}
	return out.Applications, nil
}

// SetStatus は応募のステータス（accepted/rejected/pending）を変更する。
func (c *Client) SetStatus(ctx context.Context, token, applicationID, status string) (*Application, error) {
	var out struct {
		Application Application `json:"application"`
	}
	path := "/api/applications/" + url.PathEscape(applicationID) + "/status"
	if err := c.postJSON(ctx, path, token, map[string]string{"status": status}, &out); err != nil {
		return nil, err
	}
	return &out.Application, nil
}

// --- 求職者 ---

// UploadResume は履歴書（PDF）をアップロードし、更新後のプロフィールを返す。
func (c *Client) UploadResume(ctx context.Context, token string, file Upload) (*Profile, error) {
	body, contentType, err := multipartBody(nil, "resume", &file)
	if err != nil {
		return nil, err
	}
	var out struct {
		Profile Profile `json:"profile"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/users/me/resume", token, body, contentType, &out); err != nil {
		return nil, err
	}
	return &out.Profile, nil
}

// Withdraw は求職者アカウントを削除する。
func (c *Client) Withdraw(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/api/users/me", token, nil, "", nil)
}

// --- 共通処理 ---

func (c *Client) getJSON(ctx context.Context, path, token string, out any) error {
	return c.do(ctx, http.MethodGet, path, token, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, path, token string, payload, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("リクエストJSONの生成に失敗しました: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, http.MethodPost, path, token, body, contentType, out)
}

// do はリクエストを送信し、成功時はoutにデコードする。
// 2xx以外のレスポンスは*APIErrorとして返す。
func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set(AuthTokenHeader, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("APIの呼び出しに失敗しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp, data)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response, data []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "HTTP_" + strconv.Itoa(resp.StatusCode)
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	if v := resp.Header.Get("Retry-After"); v != "" {
		apiErr.RetryAfter, _ = strconv.Atoi(v)
	}
	return apiErr
}

// multipartBody はフォーム項目とファイル（任意）からmultipart/form-dataの本文を組み立てる。
func multipartBody(fields map[string]string, fileField string, file *Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("フォーム項目の書き込みに失敗しました: %w", err)
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile(fileField, file.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("ファイル項目の作成に失敗しました: %w", err)
		}
		if _, err := fw.Write(file.Content); err != nil {
			return nil, "", fmt.Errorf("ファイルの書き込みに失敗しました: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
