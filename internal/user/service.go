// Package user は求職者アカウントのドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/repository"
	"github.com/hitoshi/jobboard/internal/storage"
)

// Service は求職者アカウントのサービス層。
// プロフィール取得、履歴書の登録、退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	files       storage.FileStore
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	files storage.FileStore,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		files:       files,
	}
}

// GetProfile は求職者のプロフィールを返す。
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateResume は履歴書をアップロードし、そのURLを求職者に保存する。
// 既存の履歴書URLは置き換える。
func (s *Service) UpdateResume(ctx context.Context, userID string, file storage.File) (*model.User, error) {
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	url, err := s.files.Store(ctx, storage.KindResume, file)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.UpdateResume(ctx, userID, url)
	if err != nil {
		return nil, fmt.Errorf("履歴書URLの更新に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("履歴書を更新しました", slog.String("user_id", userID))
	return user, nil
}

// Withdraw は求職者の退会処理を実行する。
// 削除順序: sessions → user（+ CASCADE: applications）
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return err
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	// 1. セッションを削除
	if err := s.sessionRepo.DeleteByPrincipal(ctx, model.RoleUser, userID); err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}

	// 2. ユーザーを削除（applicationsはCASCADE削除）
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)

	return nil
}
