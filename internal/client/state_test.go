package client

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/hitoshi/jobboard/internal/jobfilter"
)

// sampleJobs はn件の求人を作成順（古い順）に返す。偶数番目はEngineering/Tokyo、奇数番目はDesign/Osaka。
func sampleJobs(n int) []Job {
	jobs := make([]Job, n)
	for i := range jobs {
		category, location := "Engineering", "Tokyo"
		if i%2 == 1 {
			category, location = "Design", "Osaka"
		}
		jobs[i] = Job{
			ID:        fmt.Sprintf("j%d", i+1),
			CompanyID: fmt.Sprintf("c%d", i%3),
			Title:     fmt.Sprintf("Job %d", i+1),
			Category:  category,
			Location:  location,
		}
	}
	return jobs
}

func TestState_ZeroValue(t *testing.T) {
	var s State
	if s.Page() != 1 || s.Token() != "" || s.Role() != "" {
		t.Errorf("zero State = page %d token %q role %q", s.Page(), s.Token(), s.Role())
	}
	if _, ok := s.Session(); ok {
		t.Error("zero State should not have a session")
	}
	if v := s.View(); v.Total != 0 || v.Page != 1 {
		t.Errorf("View() = %+v", v)
	}
}

func TestState_WithCriteriaResetsPage(t *testing.T) {
	s := NewState().WithJobs(sampleJobs(20)).WithPage(3)
	if s.Page() != 3 {
		t.Fatalf("Page() = %d, want 3", s.Page())
	}

	next := s.WithCriteria(jobfilter.Criteria{Categories: []string{"Engineering"}})
	if next.Page() != 1 {
		t.Errorf("Page() after WithCriteria = %d, want 1", next.Page())
	}
	// 同じ条件の再設定でもページは戻る
	if again := next.WithPage(2).WithCriteria(next.Criteria()); again.Page() != 1 {
		t.Errorf("Page() after re-applying criteria = %d, want 1", again.Page())
	}
	// 元の状態は変わらない
	if s.Page() != 3 || !s.Criteria().Empty() {
		t.Error("WithCriteria must not modify the receiver")
	}
}

func TestState_WithPageClamps(t *testing.T) {
	s := NewState().WithJobs(sampleJobs(13)) // 3ページ

	tests := []struct {
		page, want int
	}{
		{0, 1},
		{-5, 1},
		{2, 2},
		{3, 3},
		{99, 3},
	}
	for _, tt := range tests {
		if got := s.WithPage(tt.page).Page(); got != tt.want {
			t.Errorf("WithPage(%d).Page() = %d, want %d", tt.page, got, tt.want)
		}
	}

	// 絞り込み後の件数で丸める: Engineeringは7件で2ページ
	filtered := s.WithCriteria(jobfilter.Criteria{Categories: []string{"Engineering"}})
	if got := filtered.WithPage(3).Page(); got != 2 {
		t.Errorf("filtered WithPage(3).Page() = %d, want 2", got)
	}
}

func TestState_View(t *testing.T) {
	s := NewState().WithJobs(sampleJobs(8))

	v := s.View()
	if v.Total != 8 || v.TotalPages != 2 || len(v.Items) != jobfilter.DefaultPageSize {
		t.Fatalf("View() = %+v", v)
	}
	// 新しい順
	if v.Items[0].ID != "j8" {
		t.Errorf("first item = %s, want j8", v.Items[0].ID)
	}

	v = s.WithCriteria(jobfilter.Criteria{Title: "job 1"}).View()
	if v.Total != 1 || v.Items[0].ID != "j1" {
		t.Errorf("title filter = %+v", v)
	}
}

func TestState_WithJobsReclampsPage(t *testing.T) {
	s := NewState().WithJobs(sampleJobs(20)).WithPage(4)
	shrunk := s.WithJobs(sampleJobs(7))
	if shrunk.Page() != 2 {
		t.Errorf("Page() = %d, want 2 after the list shrank", shrunk.Page())
	}
}

func TestState_DoesNotAliasSlices(t *testing.T) {
	jobs := sampleJobs(3)
	s := NewState().WithJobs(jobs)

	jobs[0].Title = "mutated"
	if s.Jobs()[0].Title != "Job 1" {
		t.Error("State must copy the input slice")
	}

	out := s.Jobs()
	out[1].Title = "mutated"
	if s.Jobs()[1].Title != "Job 2" {
		t.Error("Jobs() must return a copy")
	}

	c := jobfilter.Criteria{Categories: []string{"Design"}}
	s = s.WithCriteria(c)
	c.Categories[0] = "Engineering"
	if s.Criteria().Categories[0] != "Design" {
		t.Error("WithCriteria must copy the category set")
	}
}

func TestState_MoreFromCompany(t *testing.T) {
	jobs := []Job{
		{ID: "a", CompanyID: "acme"},
		{ID: "b", CompanyID: "acme"},
		{ID: "c", CompanyID: "other"},
		{ID: "d", CompanyID: "acme"},
		{ID: "e", CompanyID: "acme"},
		{ID: "f", CompanyID: "acme"},
	}
	s := NewState().WithJobs(jobs).WithApplications([]Application{{JobID: "e"}})

	got := s.MoreFromCompany(jobs[3]) // d を閲覧中
	var ids []string
	for _, j := range got {
		ids = append(ids, j.ID)
	}
	want := []string{"f", "b", "a"}
	if fmt.Sprint(ids) != fmt.Sprint(want) {
		t.Errorf("MoreFromCompany = %v, want %v", ids, want)
	}
	if !s.HasApplied("e") || s.HasApplied("d") {
		t.Error("HasApplied mismatch")
	}
}

func TestState_WithSessionDropsApplicationsOnPrincipalChange(t *testing.T) {
	user := Session{Token: "t1", Role: RoleUser, Profile: Profile{ID: "u1"}}
	s := NewState().WithSession(user).WithApplications([]Application{{ID: "a1"}})

	// 同一プリンシパルのトークン更新では保持する
	if got := s.WithSession(Session{Token: "t2", Role: RoleUser, Profile: Profile{ID: "u1"}}); len(got.Applications()) != 1 {
		t.Error("applications should survive a token refresh")
	}
	if got := s.WithSession(Session{Token: "t3", Role: RoleCompany, Profile: Profile{ID: "c1"}}); len(got.Applications()) != 0 {
		t.Error("applications must be dropped when the principal changes")
	}
	if got := s.WithoutSession(); got.Token() != "" || len(got.Applications()) != 0 {
		t.Error("WithoutSession should clear the session and applications")
	}
}

// --- ネットワーク経由の更新 ---

func TestRefreshJobs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, map[string]any{"success": true, "jobs": []map[string]any{
			{"id": "j1", "title": "Go"}, {"id": "j2", "title": "Rust"},
		}})
	})

	before := NewState()
	after, err := RefreshJobs(context.Background(), c, before)
	if err != nil {
		t.Fatalf("RefreshJobs: %v", err)
	}
	if len(after.Jobs()) != 2 {
		t.Errorf("jobs = %d, want 2", len(after.Jobs()))
	}
	if len(before.Jobs()) != 0 {
		t.Error("RefreshJobs must not modify its input")
	}
}

func TestRefreshJobs_ErrorKeepsState(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusInternalServerError, map[string]any{"success": false, "code": "INTERNAL_ERROR"})
	})

	before := NewState().WithJobs(sampleJobs(2))
	after, err := RefreshJobs(context.Background(), c, before)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(after.Jobs()) != 2 {
		t.Error("failed refresh should keep the cached jobs")
	}
}

func TestLoginUser_LoadsApplications(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/users/login":
			writeBody(w, http.StatusOK, map[string]any{"success": true, "token": "tok-u", "role": "user",
				"profile": map[string]any{"id": "u1"}})
		case "/api/applications/me":
			if r.Header.Get(AuthTokenHeader) != "tok-u" {
				t.Errorf("token = %q", r.Header.Get(AuthTokenHeader))
			}
			writeBody(w, http.StatusOK, map[string]any{"success": true, "applications": []map[string]any{{"id": "a1", "job_id": "j1"}}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	s, err := LoginUser(context.Background(), c, NewState(), "taro@example.com", "password123")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if s.Token() != "tok-u" || s.Role() != RoleUser || !s.HasApplied("j1") {
		t.Errorf("state = token %q role %q applied %v", s.Token(), s.Role(), s.AppliedJobIDs())
	}
}

func TestLoginCompany_LoadsApplicants(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/companies/login":
			writeBody(w, http.StatusOK, map[string]any{"success": true, "token": "tok-c", "role": "company"})
		case "/api/companies/me/applicants":
			writeBody(w, http.StatusOK, map[string]any{"success": true, "applications": []map[string]any{
				{"id": "a1", "user": map[string]any{"name": "Taro"}},
			}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	s, err := LoginCompany(context.Background(), c, NewState(), "hr@acme.example", "password123")
	if err != nil {
		t.Fatalf("LoginCompany: %v", err)
	}
	apps := s.Applications()
	if len(apps) != 1 || apps[0].User.Name != "Taro" {
		t.Errorf("applications = %+v", apps)
	}
}

func TestLogin_InvalidCredentialsKeepsState(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusUnauthorized, map[string]any{"success": false, "code": "INVALID_CREDENTIALS"})
	})

	before := NewState().WithJobs(sampleJobs(1))
	after, err := LoginUser(context.Background(), c, before, "x@example.com", "wrong")
	if !IsCode(err, "INVALID_CREDENTIALS") {
		t.Fatalf("err = %v", err)
	}
	if after.Token() != "" || len(after.Jobs()) != 1 {
		t.Error("failed login should return the previous state")
	}
}

func TestRefreshApplications_ExpiredSessionLogsOut(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusUnauthorized, map[string]any{"success": false, "code": "UNAUTHORIZED"})
	})

	s := NewState().WithSession(Session{Token: "stale", Role: RoleUser})
	after, err := RefreshApplications(context.Background(), c, s)
	if err == nil {
		t.Fatal("expected error")
	}
	if after.Token() != "" {
		t.Error("an unauthorized refresh should drop the session")
	}
}

func TestRefreshApplications_Anonymous(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("anonymous refresh must not call the API")
	})

	s, err := RefreshApplications(context.Background(), c, NewState())
	if err != nil || len(s.Applications()) != 0 {
		t.Errorf("RefreshApplications() = (%v, %v)", s.Applications(), err)
	}
}

func TestLogout(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/api/auth/logout" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	s := NewState().WithSession(Session{Token: "tok", Role: RoleUser}).WithApplications([]Application{{ID: "a1"}})
	after, err := Logout(context.Background(), c, s)
	if err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if after.Token() != "" || len(after.Applications()) != 0 {
		t.Error("Logout should clear the session")
	}
	if s.Token() != "tok" {
		t.Error("Logout must not modify its input")
	}

	if _, err := Logout(context.Background(), c, after); err != nil || calls != 1 {
		t.Errorf("anonymous Logout = %v, calls = %d", err, calls)
	}
}
