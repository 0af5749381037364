// Package job は求人カタログのドメインロジックを提供する。
// 公開求人の一覧・検索・詳細取得と、企業による求人投稿・公開状態の切り替えを扱う。
package job

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/jobboard/internal/jobfilter"
	"github.com/hitoshi/jobboard/internal/metrics"
	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/repository"
	"github.com/hitoshi/jobboard/internal/security"
	"github.com/hitoshi/jobboard/internal/validation"
)

// PostJobInput は求人投稿の入力。Descriptionはリッチテキストエディタが出力したHTML。
type PostJobInput struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Description string `json:"description" validate:"notblank,max=20000"`
	Location    string `json:"location" validate:"notblank,max=100"`
	Category    string `json:"category" validate:"notblank,max=100"`
	Level       string `json:"level" validate:"notblank,max=100"`
	Salary      *int64 `json:"salary" validate:"omitempty,gte=0"`
}

// Service は求人カタログのサービス層。
type Service struct {
	jobRepo   repository.JobRepository
	sanitizer security.ContentSanitizerService
	metrics   metrics.MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	jobRepo repository.JobRepository,
	sanitizer security.ContentSanitizerService,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		jobRepo:   jobRepo,
		sanitizer: sanitizer,
		metrics:   collector,
	}
}

// ListJobs は公開中の求人を企業情報付きで作成順に返す。
func (s *Service) ListJobs(ctx context.Context) ([]model.JobWithCompany, error) {
	jobs, err := s.jobRepo.ListVisibleWithCompany(ctx)
	if err != nil {
		return nil, fmt.Errorf("求人一覧の取得に失敗しました: %w", err)
	}
	return jobs, nil
}

// SearchJobs は公開中の求人に絞り込み条件を適用し、指定ページを返す。
// 絞り込み結果は新しい順。ページ番号は [1, TotalPages] に丸める。
func (s *Service) SearchJobs(ctx context.Context, criteria jobfilter.Criteria, page int) (jobfilter.Page[model.JobWithCompany], error) {
	jobs, err := s.ListJobs(ctx)
	if err != nil {
		return jobfilter.Page[model.JobWithCompany]{}, err
	}
	return jobfilter.Paginate(jobfilter.Apply(jobs, criteria), page, jobfilter.DefaultPageSize), nil
}

// GetJob は公開中の求人を企業情報付きで返す。
// 存在しない・非公開・ID形式不正の場合はJOB_NOT_FOUNDを返す。
func (s *Service) GetJob(ctx context.Context, jobID string) (*model.JobWithCompany, error) {
	if !model.IsValidID(jobID) {
		return nil, model.NewJobNotFoundError(jobID)
	}

	job, err := s.jobRepo.FindWithCompany(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if job == nil || !job.Visible {
		return nil, model.NewJobNotFoundError(jobID)
	}
	return job, nil
}

// PostJob は企業の求人を作成する。
// 企業IDは認証済みIdentityからのみ与えられ、説明文は保存前にサニタイズする。
// 新規求人は公開状態で作成する。
func (s *Service) PostJob(ctx context.Context, companyID string, in PostJobInput) (*model.Job, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	description := s.sanitizer.Sanitize(in.Description)
	if strings.TrimSpace(security.Excerpt(description, 1)) == "" {
		return nil, model.NewValidationError("description", "は必須項目です。")
	}

	now := time.Now()
	job := &model.Job{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		Title:       strings.TrimSpace(in.Title),
		Description: description,
		Location:    strings.TrimSpace(in.Location),
		Category:    strings.TrimSpace(in.Category),
		Level:       strings.TrimSpace(in.Level),
		Salary:      in.Salary,
		Visible:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("求人の作成に失敗しました: %w", err)
	}

	s.metrics.RecordJobPosted()
	slog.Info("job posted",
		slog.String("job_id", job.ID),
		slog.String("company_id", companyID),
	)
	return job, nil
}

// ChangeVisibility は求人の公開状態を反転する。
// 求人が存在しない場合はJOB_NOT_FOUND、所有企業以外の場合はFORBIDDENを返し、書き込みは行わない。
func (s *Service) ChangeVisibility(ctx context.Context, companyID, jobID string) (*model.Job, error) {
	if !model.IsValidID(jobID) {
		return nil, model.NewJobNotFoundError(jobID)
	}

	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if job == nil {
		return nil, model.NewJobNotFoundError(jobID)
	}
	if job.CompanyID != companyID {
		return nil, model.NewForbiddenError()
	}

	updated, err := s.jobRepo.SetVisible(ctx, jobID, !job.Visible)
	if err != nil {
		return nil, fmt.Errorf("公開状態の更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewJobNotFoundError(jobID)
	}

	s.metrics.RecordVisibilityChange()
	return updated, nil
}

// ListCompanyJobs は企業の全求人（非公開を含む）を応募者数付きで返す。
func (s *Service) ListCompanyJobs(ctx context.Context, companyID string) ([]model.JobWithApplicantCount, error) {
	jobs, err := s.jobRepo.ListByCompanyWithApplicantCount(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("企業の求人一覧の取得に失敗しました: %w", err)
	}
	return jobs, nil
}
