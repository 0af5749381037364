// Package company は企業アカウントのドメインロジックを提供する。
package company

import (
	"context"
	"fmt"

	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/repository"
)

// Service は企業アカウントのサービス層。
type Service struct {
	companyRepo repository.CompanyRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(companyRepo repository.CompanyRepository) *Service {
	return &Service{companyRepo: companyRepo}
}

// GetProfile は企業のプロフィール（リクルーター画面の企業情報）を返す。
func (s *Service) GetProfile(ctx context.Context, companyID string) (*model.Company, error) {
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("企業の取得に失敗しました: %w", err)
	}
	if company == nil {
		return nil, model.NewCompanyNotFoundError()
	}
	return company, nil
}
