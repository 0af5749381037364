package model

import (
	"strings"
	"time"
)

// ApplicationStatus は応募の選考ステータス。
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// ParseApplicationStatus は大文字小文字を区別せずにステータス文字列を解析する。
// 未知の値の場合はfalseを返す。
func ParseApplicationStatus(s string) (ApplicationStatus, bool) {
	switch ApplicationStatus(strings.ToLower(strings.TrimSpace(s))) {
	case ApplicationStatusPending:
		return ApplicationStatusPending, true
	case ApplicationStatusAccepted:
		return ApplicationStatusAccepted, true
	case ApplicationStatusRejected:
		return ApplicationStatusRejected, true
	default:
		return "", false
	}
}

// Decided は企業が設定可能な選考結果かどうかを返す。
func (s ApplicationStatus) Decided() bool {
	return s == ApplicationStatusAccepted || s == ApplicationStatusRejected
}

// Application は求職者の求人への応募を表す。
// CompanyID は応募作成時に求人から複製される。
type Application struct {
	ID        string
	UserID    string
	CompanyID string
	JobID     string
	Status    ApplicationStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserSummary は応募者一覧に埋め込む求職者情報。
type UserSummary struct {
	ID        string
	Name      string
	Email     string
	AvatarURL string
	ResumeURL string
}

// JobSummary は応募一覧に埋め込む求人情報。
type JobSummary struct {
	ID       string
	Title    string
	Location string
	Category string
	Level    string
	Salary   *int64
}

// ApplicationWithJob は求職者向けの応募一覧の1件。求人と企業情報を含む。
type ApplicationWithJob struct {
	Application
	Job     JobSummary
	Company CompanySummary
}

// ApplicationWithApplicant は企業向けの応募者一覧の1件。求職者と求人情報を含む。
type ApplicationWithApplicant struct {
	Application
	User UserSummary
	Job  JobSummary
}
