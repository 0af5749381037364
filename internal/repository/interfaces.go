// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/jobboard/internal/model"
)

// ErrDuplicate は一意制約違反で挿入できなかったことを表す。
var ErrDuplicate = errors.New("duplicate record")

// UserRepository は求職者データの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレスが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateResume は履歴書URLを更新し、更新後のユーザーを返す。
	// 見つからない場合はnilを返す。
	UpdateResume(ctx context.Context, id, resumeURL string) (*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するapplicationsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// CompanyRepository は企業データの永続化インターフェース。
type CompanyRepository interface {
	// FindByID は指定IDの企業を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Company, error)

	// FindByEmail はメールアドレスで企業を取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Company, error)

	// Create は企業を作成する。メールアドレスが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, company *model.Company) error
}

// JobRepository は求人データの永続化インターフェース。
type JobRepository interface {
	// FindByID は指定IDの求人を可視性に関わらず取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Job, error)

	// FindWithCompany は企業情報付きで求人を取得する。見つからない場合はnilを返す。
	FindWithCompany(ctx context.Context, id string) (*model.JobWithCompany, error)

	// ListVisibleWithCompany は公開中の求人を企業情報付きで作成日時の昇順に返す。
	ListVisibleWithCompany(ctx context.Context) ([]model.JobWithCompany, error)

	// ListByCompanyWithApplicantCount は企業の全求人を応募者数付きで作成日時の昇順に返す。
	// 応募者数はリクエストごとに集計する。
	ListByCompanyWithApplicantCount(ctx context.Context, companyID string) ([]model.JobWithApplicantCount, error)

	// Create は求人を作成する。
	Create(ctx context.Context, job *model.Job) error

	// SetVisible は求人の可視性を更新し、更新後の求人を返す。見つからない場合はnilを返す。
	SetVisible(ctx context.Context, id string, visible bool) (*model.Job, error)
}

// ApplicationRepository は応募データの永続化インターフェース。
type ApplicationRepository interface {
	// FindByID は指定IDの応募を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Application, error)

	// FindByUserAndJob はユーザーIDと求人IDで応募を検索する。見つからない場合はnilを返す。
	FindByUserAndJob(ctx context.Context, userID, jobID string) (*model.Application, error)

	// Create は応募を作成する。(user_id, job_id) が重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, application *model.Application) error

	// ListByUserWithJob はユーザーの応募一覧を求人・企業情報付きで新しい順に返す。
	ListByUserWithJob(ctx context.Context, userID string) ([]model.ApplicationWithJob, error)

	// ListByCompanyWithApplicant は企業の全求人への応募を応募者・求人情報付きで新しい順に返す。
	ListByCompanyWithApplicant(ctx context.Context, companyID string) ([]model.ApplicationWithApplicant, error)

	// UpdateStatus は応募ステータスを更新し、更新後の応募を返す。見つからない場合はnilを返す。
	UpdateStatus(ctx context.Context, id string, status model.ApplicationStatus) (*model.Application, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByPrincipal は指定プリンシパルの全セッションを削除する。
	DeleteByPrincipal(ctx context.Context, role model.Role, principalID string) error
}
