package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/jobboard/internal/model"
)

const jobColumns = `j.id, j.company_id, j.title, j.description, j.location, j.category, j.level,
	j.salary, j.visible, j.created_at, j.updated_at`

// PostgresJobRepo はPostgreSQLを使用した求人リポジトリ。
type PostgresJobRepo struct {
	db *sql.DB
}

// NewPostgresJobRepo はPostgresJobRepoを生成する。
func NewPostgresJobRepo(db *sql.DB) *PostgresJobRepo {
	return &PostgresJobRepo{db: db}
}

// rowScanner は *sql.Row と *sql.Rows の共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// jobScanTargets はjobColumnsの順にScan先を返す。salaryはNULL許容のため別途受け取る。
func jobScanTargets(job *model.Job, salary *sql.NullInt64) []any {
	return []any{
		&job.ID, &job.CompanyID, &job.Title, &job.Description, &job.Location,
		&job.Category, &job.Level, salary, &job.Visible, &job.CreatedAt, &job.UpdatedAt,
	}
}

func applySalary(job *model.Job, salary sql.NullInt64) {
	if salary.Valid {
		v := salary.Int64
		job.Salary = &v
	} else {
		job.Salary = nil
	}
}

func scanJob(s rowScanner) (*model.Job, error) {
	job := &model.Job{}
	var salary sql.NullInt64
	if err := s.Scan(jobScanTargets(job, &salary)...); err != nil {
		return nil, err
	}
	applySalary(job, salary)
	return job, nil
}

func scanJobWithCompany(s rowScanner) (model.JobWithCompany, error) {
	var jc model.JobWithCompany
	var salary sql.NullInt64
	targets := append(jobScanTargets(&jc.Job, &salary),
		&jc.Company.ID, &jc.Company.Name, &jc.Company.Email, &jc.Company.LogoURL,
	)
	if err := s.Scan(targets...); err != nil {
		return jc, err
	}
	applySalary(&jc.Job, salary)
	return jc, nil
}

// FindByID は指定IDの求人を可視性に関わらず取得する。見つからない場合はnilを返す。
func (r *PostgresJobRepo) FindByID(ctx context.Context, id string) (*model.Job, error) {
	job, err := scanJob(r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs j WHERE j.id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job by ID: %w", err)
	}
	return job, nil
}

// FindWithCompany は企業情報付きで求人を取得する。見つからない場合はnilを返す。
func (r *PostgresJobRepo) FindWithCompany(ctx context.Context, id string) (*model.JobWithCompany, error) {
	jc, err := scanJobWithCompany(r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+`, c.id, c.name, c.email, c.logo_url
		 FROM jobs j
		 JOIN companies c ON c.id = j.company_id
		 WHERE j.id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job with company: %w", err)
	}
	return &jc, nil
}

// ListVisibleWithCompany は公開中の求人を企業情報付きで作成日時の昇順に返す。
func (r *PostgresJobRepo) ListVisibleWithCompany(ctx context.Context) ([]model.JobWithCompany, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+`, c.id, c.name, c.email, c.logo_url
		 FROM jobs j
		 JOIN companies c ON c.id = j.company_id
		 WHERE j.visible
		 ORDER BY j.created_at ASC, j.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list visible jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]model.JobWithCompany, 0)
	for rows.Next() {
		jc, err := scanJobWithCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, jc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}
	return jobs, nil
}

// ListByCompanyWithApplicantCount は企業の全求人を応募者数付きで作成日時の昇順に返す。
func (r *PostgresJobRepo) ListByCompanyWithApplicantCount(ctx context.Context, companyID string) ([]model.JobWithApplicantCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+`, COUNT(a.id)
		 FROM jobs j
		 LEFT JOIN applications a ON a.job_id = j.id
		 WHERE j.company_id = $1
		 GROUP BY j.id
		 ORDER BY j.created_at ASC, j.id ASC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list company jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]model.JobWithApplicantCount, 0)
	for rows.Next() {
		var jc model.JobWithApplicantCount
		var salary sql.NullInt64
		targets := append(jobScanTargets(&jc.Job, &salary), &jc.ApplicantCount)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("failed to scan company job: %w", err)
		}
		applySalary(&jc.Job, salary)
		jobs = append(jobs, jc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate company jobs: %w", err)
	}
	return jobs, nil
}

// Create は求人を作成する。
func (r *PostgresJobRepo) Create(ctx context.Context, job *model.Job) error {
	var salary sql.NullInt64
	if job.Salary != nil {
		salary = sql.NullInt64{Int64: *job.Salary, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO jobs (id, company_id, title, description, location, category, level,
		                   salary, visible, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		job.ID, job.CompanyID, job.Title, job.Description, job.Location, job.Category, job.Level,
		salary, job.Visible, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// SetVisible は求人の可視性を更新し、更新後の求人を返す。見つからない場合はnilを返す。
func (r *PostgresJobRepo) SetVisible(ctx context.Context, id string, visible bool) (*model.Job, error) {
	job, err := scanJob(r.db.QueryRowContext(ctx,
		`UPDATE jobs j SET visible = $2, updated_at = now()
		 WHERE j.id = $1
		 RETURNING `+jobColumns,
		id, visible,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update job visibility: %w", err)
	}
	return job, nil
}

// compile-time interface check
var _ JobRepository = (*PostgresJobRepo)(nil)
