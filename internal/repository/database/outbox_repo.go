package database

import (
	"context"

	"Lee_QnA/internal/model"

	"gorm.io/gorm"
)

// MaxOutboxRetry 超过次数的失败事件不再自动投递，需人工处理
const MaxOutboxRetry = 5

type OutboxRepository struct {
	DB *gorm.DB
}

// Insert 与软删除在同一事务中写入
func (r *OutboxRepository) Insert(ctx context.Context, histories []model.DeleteHistory) error {
	if len(histories) == 0 {
		return nil
	}
	rows := make([]model.DeleteOutbox, 0, len(histories))
	for _, h := range histories {
		rows = append(rows, model.NewDeleteOutbox(h))
	}
	return r.DB.WithContext(ctx).Create(&rows).Error
}

// List 待投递和可重试的事件，按 id 升序
func (r *OutboxRepository) List(ctx context.Context, batchSize int) ([]model.DeleteOutbox, error) {
	var list []model.DeleteOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = ? OR (status = ? AND retry < ?)", model.OutboxPending, model.OutboxFailed, MaxOutboxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// RetryUpdate 投递失败，记为失败并累加重试次数
func (r *OutboxRepository) RetryUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.DeleteOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}

// SuccessUpdate 投递成功
func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.DeleteOutbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}
