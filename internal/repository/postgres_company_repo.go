package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/jobboard/internal/model"
)

const companyColumns = `id, name, email, password_hash, logo_url, created_at, updated_at`

// PostgresCompanyRepo はPostgreSQLを使用した企業リポジトリ。
type PostgresCompanyRepo struct {
	db *sql.DB
}

// NewPostgresCompanyRepo はPostgresCompanyRepoを生成する。
func NewPostgresCompanyRepo(db *sql.DB) *PostgresCompanyRepo {
	return &PostgresCompanyRepo{db: db}
}

func (r *PostgresCompanyRepo) findOne(ctx context.Context, where string, arg string) (*model.Company, error) {
	c := &model.Company{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE `+where+` = $1`, arg,
	).Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.LogoURL, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FindByID は指定IDの企業を取得する。見つからない場合はnilを返す。
func (r *PostgresCompanyRepo) FindByID(ctx context.Context, id string) (*model.Company, error) {
	c, err := r.findOne(ctx, "id", id)
	if err != nil {
		return nil, fmt.Errorf("failed to find company by ID: %w", err)
	}
	return c, nil
}

// FindByEmail はメールアドレスで企業を取得する。見つからない場合はnilを返す。
func (r *PostgresCompanyRepo) FindByEmail(ctx context.Context, email string) (*model.Company, error) {
	c, err := r.findOne(ctx, "email", email)
	if err != nil {
		return nil, fmt.Errorf("failed to find company by email: %w", err)
	}
	return c, nil
}

// Create は企業を作成する。
func (r *PostgresCompanyRepo) Create(ctx context.Context, c *model.Company) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO companies (id, name, email, password_hash, logo_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Name, c.Email, c.PasswordHash, c.LogoURL, c.CreatedAt, c.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert company: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CompanyRepository = (*PostgresCompanyRepo)(nil)
