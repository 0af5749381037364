package client

import (
	"time"

	"github.com/hitoshi/jobboard/internal/jobfilter"
)

// Role はログイン中のプリンシパルの種別。
type Role string

const (
	RoleUser    Role = "user"
	RoleCompany Role = "company"
)

// Profile はログイン中の求職者または企業の情報。
// 求職者はAvatarURL/ResumeURL、企業はLogoURLのみが設定される。
type Profile struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	ResumeURL string    `json:"resume_url,omitempty"`
	LogoURL   string    `json:"logo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session は登録・ログインで得られる認証情報。
type Session struct {
	Token     string    `json:"token"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	Profile   Profile   `json:"profile"`
}

// Company は求人・応募に埋め込まれる企業情報。
type Company struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	LogoURL string `json:"logo_url"`
}

// Job は求人。一覧ではDescriptionは空で、DescriptionExcerptのみが返る。
// ApplicantCountは企業の自社求人一覧でのみ設定される。
type Job struct {
	ID                 string    `json:"id"`
	CompanyID          string    `json:"company_id"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	DescriptionExcerpt string    `json:"description_excerpt"`
	Location           string    `json:"location"`
	Category           string    `json:"category"`
	Level              string    `json:"level"`
	Salary             *int64    `json:"salary"`
	Visible            bool      `json:"visible"`
	CreatedAt          time.Time `json:"created_at"`
	Company            *Company  `json:"company,omitempty"`
	ApplicantCount     *int      `json:"applicant_count,omitempty"`
}

// FilterFields は絞り込みに用いる項目を返す。
func (j Job) FilterFields() jobfilter.Fields {
	return jobfilter.Fields{
		ID:        j.ID,
		Title:     j.Title,
		Location:  j.Location,
		Category:  j.Category,
		CompanyID: j.CompanyID,
	}
}

// JobSummary は応募に埋め込まれる求人の要約。
type JobSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Location string `json:"location"`
	Category string `json:"category"`
	Level    string `json:"level"`
	Salary   *int64 `json:"salary"`
}

// Applicant は企業向け応募者一覧に埋め込まれる求職者情報。
type Applicant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	ResumeURL string `json:"resume_url"`
}

// Application は応募。求職者の一覧ではCompany、企業の一覧ではUserが設定される。
type Application struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	CompanyID string      `json:"company_id"`
	JobID     string      `json:"job_id"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Job       *JobSummary `json:"job,omitempty"`
	Company   *Company    `json:"company,omitempty"`
	User      *Applicant  `json:"user,omitempty"`
}

// JobPage は検索APIのページング結果。
type JobPage struct {
	Items      []Job `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
	Total      int   `json:"total"`
}

// Upload はアップロードするファイル。
type Upload struct {
	Filename string
	Content  []byte
}

// RegisterRequest は登録リクエスト。企業登録ではImage（ロゴ）が必須。
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Image    *Upload
}

// PostJobRequest は求人投稿リクエスト。
type PostJobRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Category    string `json:"category"`
	Level       string `json:"level"`
	Salary      *int64 `json:"salary,omitempty"`
}
