package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/jobboard/internal/model"
)

const applicationColumns = `a.id, a.user_id, a.company_id, a.job_id, a.status, a.created_at, a.updated_at`

// PostgresApplicationRepo はPostgreSQLを使用した応募リポジトリ。
type PostgresApplicationRepo struct {
	db *sql.DB
}

// NewPostgresApplicationRepo はPostgresApplicationRepoを生成する。
func NewPostgresApplicationRepo(db *sql.DB) *PostgresApplicationRepo {
	return &PostgresApplicationRepo{db: db}
}

func applicationScanTargets(a *model.Application) []any {
	return []any{&a.ID, &a.UserID, &a.CompanyID, &a.JobID, &a.Status, &a.CreatedAt, &a.UpdatedAt}
}

func jobSummaryScanTargets(j *model.JobSummary, salary *sql.NullInt64) []any {
	return []any{&j.ID, &j.Title, &j.Location, &j.Category, &j.Level, salary}
}

func applyJobSummarySalary(j *model.JobSummary, salary sql.NullInt64) {
	if salary.Valid {
		v := salary.Int64
		j.Salary = &v
	}
}

func (r *PostgresApplicationRepo) findOne(ctx context.Context, query string, args ...any) (*model.Application, error) {
	a := &model.Application{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(applicationScanTargets(a)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// FindByID は指定IDの応募を取得する。見つからない場合はnilを返す。
func (r *PostgresApplicationRepo) FindByID(ctx context.Context, id string) (*model.Application, error) {
	a, err := r.findOne(ctx, `SELECT `+applicationColumns+` FROM applications a WHERE a.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find application by ID: %w", err)
	}
	return a, nil
}

// FindByUserAndJob はユーザーIDと求人IDで応募を検索する。見つからない場合はnilを返す。
func (r *PostgresApplicationRepo) FindByUserAndJob(ctx context.Context, userID, jobID string) (*model.Application, error) {
	a, err := r.findOne(ctx,
		`SELECT `+applicationColumns+` FROM applications a WHERE a.user_id = $1 AND a.job_id = $2`,
		userID, jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find application by user and job: %w", err)
	}
	return a, nil
}

// Create は応募を作成する。(user_id, job_id) が重複する場合はErrDuplicateを返す。
func (r *PostgresApplicationRepo) Create(ctx context.Context, a *model.Application) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (id, user_id, company_id, job_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.UserID, a.CompanyID, a.JobID, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert application: %w", err)
	}
	return nil
}

// ListByUserWithJob はユーザーの応募一覧を求人・企業情報付きで新しい順に返す。
func (r *PostgresApplicationRepo) ListByUserWithJob(ctx context.Context, userID string) ([]model.ApplicationWithJob, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+applicationColumns+`,
		        j.id, j.title, j.location, j.category, j.level, j.salary,
		        c.id, c.name, c.email, c.logo_url
		 FROM applications a
		 JOIN jobs j ON j.id = a.job_id
		 JOIN companies c ON c.id = a.company_id
		 WHERE a.user_id = $1
		 ORDER BY a.created_at DESC, a.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user applications: %w", err)
	}
	defer rows.Close()

	result := make([]model.ApplicationWithJob, 0)
	for rows.Next() {
		var aw model.ApplicationWithJob
		var salary sql.NullInt64
		targets := applicationScanTargets(&aw.Application)
		targets = append(targets, jobSummaryScanTargets(&aw.Job, &salary)...)
		targets = append(targets, &aw.Company.ID, &aw.Company.Name, &aw.Company.Email, &aw.Company.LogoURL)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("failed to scan user application: %w", err)
		}
		applyJobSummarySalary(&aw.Job, salary)
		result = append(result, aw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user applications: %w", err)
	}
	return result, nil
}

// ListByCompanyWithApplicant は企業の全求人への応募を応募者・求人情報付きで新しい順に返す。
func (r *PostgresApplicationRepo) ListByCompanyWithApplicant(ctx context.Context, companyID string) ([]model.ApplicationWithApplicant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+applicationColumns+`,
		        u.id, u.name, u.email, u.avatar_url, u.resume_url,
		        j.id, j.title, j.location, j.category, j.level, j.salary
		 FROM applications a
		 JOIN users u ON u.id = a.user_id
		 JOIN jobs j ON j.id = a.job_id
		 WHERE a.company_id = $1
		 ORDER BY a.created_at DESC, a.id DESC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list company applicants: %w", err)
	}
	defer rows.Close()

	result := make([]model.ApplicationWithApplicant, 0)
	for rows.Next() {
		var aa model.ApplicationWithApplicant
		var salary sql.NullInt64
		targets := applicationScanTargets(&aa.Application)
		targets = append(targets, &aa.User.ID, &aa.User.Name, &aa.User.Email, &aa.User.AvatarURL, &aa.User.ResumeURL)
		targets = append(targets, jobSummaryScanTargets(&aa.Job, &salary)...)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("failed to scan company applicant: %w", err)
		}
		applyJobSummarySalary(&aa.Job, salary)
		result = append(result, aa)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate company applicants: %w", err)
	}
	return result, nil
}

// UpdateStatus は応募ステータスを更新し、更新後の応募を返す。見つからない場合はnilを返す。
func (r *PostgresApplicationRepo) UpdateStatus(ctx context.Context, id string, status model.ApplicationStatus) (*model.Application, error) {
	a, err := r.findOne(ctx,
		`UPDATE applications a SET status = $2, updated_at = now()
		 WHERE a.id = $1
		 RETURNING `+applicationColumns,
		id, status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update application status: %w", err)
	}
	return a, nil
}

// compile-time interface check
var _ ApplicationRepository = (*PostgresApplicationRepo)(nil)
