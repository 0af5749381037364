// Package application は求人への応募ワークフローを提供する。
// 求職者による応募と、企業による応募者一覧の確認・選考ステータスの更新を扱う。
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/jobboard/internal/metrics"
	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/repository"
)

// Service は応募ワークフローのサービス層。
type Service struct {
	appRepo  repository.ApplicationRepository
	jobRepo  repository.JobRepository
	userRepo repository.UserRepository
	metrics  metrics.MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	appRepo repository.ApplicationRepository,
	jobRepo repository.JobRepository,
	userRepo repository.UserRepository,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		appRepo:  appRepo,
		jobRepo:  jobRepo,
		userRepo: userRepo,
		metrics:  collector,
	}
}

// Apply は求職者を求人に応募させる。
// 検査順: ユーザー存在 → 求人存在かつ公開中 → 応募済みでない → 履歴書登録済み。
// 応募はpendingで作成し、求人の企業IDを複製して保持する。
// 事前確認をすり抜けた同時応募は一意制約違反となり、ALREADY_APPLIEDとして返す。
func (s *Service) Apply(ctx context.Context, userID, jobID string) (*model.Application, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	if !model.IsValidID(jobID) {
		return nil, model.NewJobNotFoundError(jobID)
	}
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if job == nil || !job.Visible {
		return nil, model.NewJobNotFoundError(jobID)
	}

	existing, err := s.appRepo.FindByUserAndJob(ctx, userID, jobID)
	if err != nil {
		return nil, fmt.Errorf("応募の確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewAlreadyAppliedError()
	}

	if !user.HasResume() {
		return nil, model.NewResumeMissingError()
	}

	now := time.Now()
	app := &model.Application{
		ID:        uuid.New().String(),
		UserID:    userID,
		CompanyID: job.CompanyID,
		JobID:     jobID,
		Status:    model.ApplicationStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.appRepo.Create(ctx, app); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewAlreadyAppliedError()
		}
		return nil, fmt.Errorf("応募の作成に失敗しました: %w", err)
	}

	s.metrics.RecordApplicationCreated()
	slog.Info("application created",
		slog.String("application_id", app.ID),
		slog.String("user_id", userID),
		slog.String("job_id", jobID),
	)
	return app, nil
}

// ListUserApplications は求職者の応募一覧を求人・企業情報付きで返す。
func (s *Service) ListUserApplications(ctx context.Context, userID string) ([]model.ApplicationWithJob, error) {
	apps, err := s.appRepo.ListByUserWithJob(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("応募一覧の取得に失敗しました: %w", err)
	}
	return apps, nil
}

// ListCompanyApplicants は企業の全求人への応募を応募者・求人情報付きで返す。
func (s *Service) ListCompanyApplicants(ctx context.Context, companyID string) ([]model.ApplicationWithApplicant, error) {
	apps, err := s.appRepo.ListByCompanyWithApplicant(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("応募者一覧の取得に失敗しました: %w", err)
	}
	return apps, nil
}

// SetStatus は応募の選考ステータスを更新する。
// ステータスは大文字小文字を区別せずに解釈し、accepted/rejectedのみ受け付ける。
// 応募が存在しない場合はAPPLICATION_NOT_FOUND、
// 呼び出し企業の求人への応募でない場合はFORBIDDENを返し、書き込みは行わない。
func (s *Service) SetStatus(ctx context.Context, companyID, applicationID, rawStatus string) (*model.Application, error) {
	status, ok := model.ParseApplicationStatus(rawStatus)
	if !ok || !status.Decided() {
		return nil, model.NewInvalidStatusError(rawStatus)
	}

	if !model.IsValidID(applicationID) {
		return nil, model.NewApplicationNotFoundError(applicationID)
	}
	app, err := s.appRepo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("応募の取得に失敗しました: %w", err)
	}
	if app == nil {
		return nil, model.NewApplicationNotFoundError(applicationID)
	}
	if app.CompanyID != companyID {
		return nil, model.NewForbiddenError()
	}

	updated, err := s.appRepo.UpdateStatus(ctx, applicationID, status)
	if err != nil {
		return nil, fmt.Errorf("ステータスの更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewApplicationNotFoundError(applicationID)
	}

	s.metrics.RecordStatusChange(string(status))
	slog.Info("application status changed",
		slog.String("application_id", applicationID),
		slog.String("status", string(status)),
	)
	return updated, nil
}
