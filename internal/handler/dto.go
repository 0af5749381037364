package handler

import (
	"time"

	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/security"
)

// userResponse は求職者プロフィールのAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url"`
	ResumeURL string    `json:"resume_url"`
	CreatedAt time.Time `json:"created_at"`
}

// companyResponse は企業プロフィールのAPIレスポンス。
type companyResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	LogoURL   string    `json:"logo_url"`
	CreatedAt time.Time `json:"created_at"`
}

type companySummaryResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	LogoURL string `json:"logo_url"`
}

// jobResponse は求人のAPIレスポンス。
// 一覧ではdescriptionの代わりにdescription_excerptを返す。
type jobResponse struct {
	ID                 string                  `json:"id"`
	CompanyID          string                  `json:"company_id"`
	Title              string                  `json:"title"`
	Description        string                  `json:"description,omitempty"`
	DescriptionExcerpt string                  `json:"description_excerpt"`
	Location           string                  `json:"location"`
	Category           string                  `json:"category"`
	Level              string                  `json:"level"`
	Salary             *int64                  `json:"salary"`
	Visible            bool                    `json:"visible"`
	CreatedAt          time.Time               `json:"created_at"`
	Company            *companySummaryResponse `json:"company,omitempty"`
	ApplicantCount     *int                    `json:"applicant_count,omitempty"`
}

type jobSummaryResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Location string `json:"location"`
	Category string `json:"category"`
	Level    string `json:"level"`
	Salary   *int64 `json:"salary"`
}

type userSummaryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	ResumeURL string `json:"resume_url"`
}

// applicationResponse は応募のAPIレスポンス。
// 求職者向けにはjobとcompany、企業向けにはjobとuserを含める。
type applicationResponse struct {
	ID        string                  `json:"id"`
	UserID    string                  `json:"user_id"`
	CompanyID string                  `json:"company_id"`
	JobID     string                  `json:"job_id"`
	Status    string                  `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
	Job       *jobSummaryResponse     `json:"job,omitempty"`
	Company   *companySummaryResponse `json:"company,omitempty"`
	User      *userSummaryResponse    `json:"user,omitempty"`
}

// pageResponse はページング付き一覧のAPIレスポンス。
type pageResponse struct {
	Items      []jobResponse `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
	Total      int           `json:"total"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Role:      string(model.RoleUser),
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		ResumeURL: u.ResumeURL,
		CreatedAt: u.CreatedAt,
	}
}

func toCompanyResponse(c *model.Company) companyResponse {
	return companyResponse{
		ID:        c.ID,
		Role:      string(model.RoleCompany),
		Name:      c.Name,
		Email:     c.Email,
		LogoURL:   c.LogoURL,
		CreatedAt: c.CreatedAt,
	}
}

func toCompanySummary(c model.CompanySummary) *companySummaryResponse {
	return &companySummaryResponse{ID: c.ID, Name: c.Name, Email: c.Email, LogoURL: c.LogoURL}
}

func toJobResponse(j model.Job, withDescription bool) jobResponse {
	resp := jobResponse{
		ID:                 j.ID,
		CompanyID:          j.CompanyID,
		Title:              j.Title,
		DescriptionExcerpt: security.Excerpt(j.Description, security.DescriptionExcerptLength),
		Location:           j.Location,
		Category:           j.Category,
		Level:              j.Level,
		Salary:             j.Salary,
		Visible:            j.Visible,
		CreatedAt:          j.CreatedAt,
	}
	if withDescription {
		resp.Description = j.Description
	}
	return resp
}

func toJobWithCompanyResponse(j model.JobWithCompany, withDescription bool) jobResponse {
	resp := toJobResponse(j.Job, withDescription)
	resp.Company = toCompanySummary(j.Company)
	return resp
}

func toJobListResponse(jobs []model.JobWithCompany) []jobResponse {
	items := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, toJobWithCompanyResponse(j, false))
	}
	return items
}

func toCompanyJobListResponse(jobs []model.JobWithApplicantCount) []jobResponse {
	items := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		resp := toJobResponse(j.Job, false)
		count := j.ApplicantCount
		resp.ApplicantCount = &count
		items = append(items, resp)
	}
	return items
}

func toJobSummary(j model.JobSummary) *jobSummaryResponse {
	return &jobSummaryResponse{
		ID:       j.ID,
		Title:    j.Title,
		Location: j.Location,
		Category: j.Category,
		Level:    j.Level,
		Salary:   j.Salary,
	}
}

func toApplicationResponse(a model.Application) applicationResponse {
	return applicationResponse{
		ID:        a.ID,
		UserID:    a.UserID,
		CompanyID: a.CompanyID,
		JobID:     a.JobID,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toUserApplicationsResponse(apps []model.ApplicationWithJob) []applicationResponse {
	items := make([]applicationResponse, 0, len(apps))
	for _, a := range apps {
		resp := toApplicationResponse(a.Application)
		resp.Job = toJobSummary(a.Job)
		resp.Company = toCompanySummary(a.Company)
		items = append(items, resp)
	}
	return items
}

func toApplicantsResponse(apps []model.ApplicationWithApplicant) []applicationResponse {
	items := make([]applicationResponse, 0, len(apps))
	for _, a := range apps {
		resp := toApplicationResponse(a.Application)
		resp.Job = toJobSummary(a.Job)
		resp.User = &userSummaryResponse{
			ID:        a.User.ID,
			Name:      a.User.Name,
			Email:     a.User.Email,
			AvatarURL: a.User.AvatarURL,
			ResumeURL: a.User.ResumeURL,
		}
		items = append(items, resp)
	}
	return items
}
