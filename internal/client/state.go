package client

import (
	"context"
	"slices"

	"github.com/hitoshi/jobboard/internal/jobfilter"
)

// State は画面が参照するクライアント状態。
// 値型として扱い、変更操作はすべて新しいStateを返す。スライスは内部で複製するため、
// 呼び出し元が返り値のスライスを書き換えても他のStateには影響しない。
type State struct {
	session      *Session
	jobs         []Job
	applications []Application
	criteria     jobfilter.Criteria
	page         int
}

// NewState は未ログイン・求人未取得の状態を返す。
func NewState() State {
	return State{page: 1}
}

// Session はログイン中のセッションを返す。未ログインの場合はfalse。
func (s State) Session() (Session, bool) {
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

// Token はログイン中のトークンを返す。未ログインの場合は空文字列。
func (s State) Token() string {
	if s.session == nil {
		return ""
	}
	return s.session.Token
}

// Role はログイン中のロールを返す。未ログインの場合は空文字列。
func (s State) Role() Role {
	if s.session == nil {
		return ""
	}
	return s.session.Role
}

func (s State) Jobs() []Job { return slices.Clone(s.jobs) }
func (s State) Applications() []Application { return slices.Clone(s.applications) }
func (s State) Criteria() jobfilter.Criteria { return cloneCriteria(s.criteria) }
func (s State) Page() int { return max(s.page, 1) }

// WithSession はセッションを設定した状態を返す。
// ロールが変わる場合はキャッシュ済みの応募一覧を破棄する。
func (s State) WithSession(session Session) State {
	if s.session == nil || s.session.Role != session.Role || s.session.Profile.ID != session.Profile.ID {
		s.applications = nil
	}
	s.session = &session
	return s
}

// WithoutSession はログアウト後の状態を返す。求人一覧と絞り込み条件は保持する。
func (s State) WithoutSession() State {
	s.session = nil
	s.applications = nil
	return s
}

// WithJobs は求人一覧を差し替えた状態を返す。jobsは作成順（古い順）であること。
// 現在のページは新しい一覧の範囲に丸める。
func (s State) WithJobs(jobs []Job) State {
	s.jobs = slices.Clone(jobs)
	s.page = s.clampPage(s.page)
	return s
}

// WithApplications は応募一覧を差し替えた状態を返す。
func (s State) WithApplications(apps []Application) State {
	s.applications = slices.Clone(apps)
	return s
}

// WithCriteria は絞り込み条件を変更した状態を返す。ページは常に1に戻る。
func (s State) WithCriteria(c jobfilter.Criteria) State {
	s.criteria = cloneCriteria(c)
	s.page = 1
	return s
}

// WithPage はページを変更した状態を返す。ページは [1, 総ページ数] に丸める。
func (s State) WithPage(page int) State {
	s.page = s.clampPage(page)
	return s
}

// View は現在の絞り込み条件とページで求人一覧を表示用に切り出す。新しい順。
func (s State) View() jobfilter.Page[Job] {
	return jobfilter.Paginate(jobfilter.Apply(s.jobs, s.criteria), s.page, jobfilter.DefaultPageSize)
}

// AppliedJobIDs は応募済み求人のIDを返す。
func (s State) AppliedJobIDs() []string {
	ids := make([]string, 0, len(s.applications))
	for _, a := range s.applications {
		ids = append(ids, a.JobID)
	}
	return ids
}

// HasApplied はjobIDに応募済みかどうかを返す。
func (s State) HasApplied(jobID string) bool {
	return slices.ContainsFunc(s.applications, func(a Application) bool { return a.JobID == jobID })
}

// MoreFromCompany は閲覧中の求人と同じ企業の未応募の求人を新しい順に最大3件返す。
func (s State) MoreFromCompany(current Job) []Job {
	return jobfilter.MoreFromCompany(s.jobs, current.FilterFields(), s.AppliedJobIDs(), jobfilter.MoreFromCompanyLimit)
}

func (s State) clampPage(page int) int {
	filtered := len(jobfilter.Apply(s.jobs, s.criteria))
	return jobfilter.ClampPage(page, jobfilter.TotalPages(filtered, jobfilter.DefaultPageSize))
}

func cloneCriteria(c jobfilter.Criteria) jobfilter.Criteria {
	c.Categories = slices.Clone(c.Categories)
	c.Locations = slices.Clone(c.Locations)
	return c
}

// --- ネットワーク経由の更新 ---
// いずれも引数のStateを変更せず、成功時は新しいStateを返す。失敗時は元のStateとエラーを返す。

// RefreshJobs は公開中の求人一覧を再取得した状態を返す。
func RefreshJobs(ctx context.Context, c *Client, s State) (State, error) {
	jobs, err := c.ListJobs(ctx)
	if err != nil {
		return s, err
	}
	return s.WithJobs(jobs), nil
}

// RefreshApplications はロールに応じて応募一覧を再取得した状態を返す。
// 求職者は自身の応募、企業は自社求人への応募を取得する。未ログインの場合は空にする。
func RefreshApplications(ctx context.Context, c *Client, s State) (State, error) {
	var (
		apps []Application
		err  error
	)
	switch s.Role() {
	case RoleUser:
		apps, err = c.ListMyApplications(ctx, s.Token())
	case RoleCompany:
		apps, err = c.ListApplicants(ctx, s.Token())
	default:
		return s.WithApplications(nil), nil
	}
	if err != nil {
		if IsCode(err, "UNAUTHORIZED") {
			return s.WithoutSession(), err
		}
		return s, err
	}
	return s.WithApplications(apps), nil
}

// LoginUser は求職者としてログインし、応募一覧を取得した状態を返す。
// 応募一覧の取得だけが失敗した場合はログイン済みの状態とエラーを返す。
func LoginUser(ctx context.Context, c *Client, s State, email, password string) (State, error) {
	session, err := c.LoginUser(ctx, email, password)
	if err != nil {
		return s, err
	}
	return RefreshApplications(ctx, c, s.WithSession(*session))
}

// LoginCompany は企業としてログインし、応募者一覧を取得した状態を返す。
func LoginCompany(ctx context.Context, c *Client, s State, email, password string) (State, error) {
	session, err := c.LoginCompany(ctx, email, password)
	if err != nil {
		return s, err
	}
	return RefreshApplications(ctx, c, s.WithSession(*session))
}

// Logout はサーバー側のセッションを破棄し、未ログインの状態を返す。
// サーバーが既にセッションを無効としている場合も未ログインの状態を返す。
func Logout(ctx context.Context, c *Client, s State) (State, error) {
	if s.Token() == "" {
		return s.WithoutSession(), nil
	}
	if err := c.Logout(ctx, s.Token()); err != nil && !IsCode(err, "UNAUTHORIZED") {
		return s, err
	}
	return s.WithoutSession(), nil
}
