package service

import (
	"context"
	"fmt"

	"Lee_QnA/internal/model"
	"Lee_QnA/internal/repository/database"

	"gorm.io/gorm"
)

// HistorySaver 删除历史写入，QnaService 在业务事务提交后调用
type HistorySaver interface {
	SaveAll(ctx context.Context, histories []model.DeleteHistory) error
}

type DeleteHistoryService struct {
	repo *database.DeleteHistoryRepository
}

// NewDeleteHistoryService db 必须是根连接池而不是事务句柄
func NewDeleteHistoryService(db *gorm.DB) *DeleteHistoryService {
	return &DeleteHistoryService{
		repo: &database.DeleteHistoryRepository{DB: db},
	}
}

func (s *DeleteHistoryService) SaveAll(ctx context.Context, histories []model.DeleteHistory) error {
	if err := s.repo.SaveAll(ctx, histories); err != nil {
		return fmt.Errorf("save %d delete histories: %w", len(histories), err)
	}
	return nil
}

func (s *DeleteHistoryService) FindAll(ctx context.Context) ([]model.DeleteHistory, error) {
	return s.repo.FindAll(ctx)
}
