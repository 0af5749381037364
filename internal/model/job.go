package model

import (
	"time"

	"github.com/hitoshi/jobboard/internal/jobfilter"
)

// Job は企業が掲載する求人を表す。
// Description はサニタイズ済みのリッチテキスト（HTML）。
// Salary は未指定の場合nil。
type Job struct {
	ID          string
	CompanyID   string
	Title       string
	Description string
	Location    string
	Category    string
	Level       string
	Salary      *int64
	Visible     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CompanySummary は求人や応募の表示用に埋め込む企業情報。
type CompanySummary struct {
	ID      string
	Name    string
	Email   string
	LogoURL string
}

// JobWithCompany は企業情報を結合した求人。
type JobWithCompany struct {
	Job
	Company CompanySummary
}

// FilterFields は検索・絞り込みに用いる項目を返す。
func (j JobWithCompany) FilterFields() jobfilter.Fields {
	return jobfilter.Fields{
		ID:        j.ID,
		Title:     j.Title,
		Location:  j.Location,
		Category:  j.Category,
		CompanyID: j.CompanyID,
	}
}

// JobWithApplicantCount は応募者数を付与した求人。企業の求人管理画面で使用する。
type JobWithApplicantCount struct {
	Job
	ApplicantCount int
}
