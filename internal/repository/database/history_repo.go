package database

import (
	"context"

	"Lee_QnA/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeleteHistoryRepository 持有根连接池，不接受调用方的事务句柄：
// SaveAll 总是在自己的新事务里提交，与业务事务互不影响。
type DeleteHistoryRepository struct {
	DB *gorm.DB
}

func (r *DeleteHistoryRepository) SaveAll(ctx context.Context, histories []model.DeleteHistory) error {
	if len(histories) == 0 {
		return nil
	}
	root := r.DB.Session(&gorm.Session{NewDB: true})
	return root.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range histories {
			if err := tx.Omit(clause.Associations).Create(&histories[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindAll 按写入顺序返回
func (r *DeleteHistoryRepository) FindAll(ctx context.Context) ([]model.DeleteHistory, error) {
	var list []model.DeleteHistory
	err := r.DB.WithContext(ctx).Order("id ASC").Find(&list).Error
	return list, err
}
