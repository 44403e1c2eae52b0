package database

import (
	"context"

	"Lee_QnA/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRepository struct {
	DB *gorm.DB
}

func (r *AnswerRepository) Create(ctx context.Context, a *model.Answer) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(a).Error
}

// FindForDelete 可能已删除（幂等重试），必须属于给定问题
func (r *AnswerRepository) FindForDelete(ctx context.Context, questionID, answerID uint64) (*model.Answer, error) {
	var a model.Answer
	err := r.DB.WithContext(ctx).
		Preload("Writer").
		Where("question_id = ?", questionID).
		First(&a, answerID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// ListByQuestion 未删除的回答，按 id 升序
func (r *AnswerRepository) ListByQuestion(ctx context.Context, questionID uint64) ([]model.Answer, error) {
	var list []model.Answer
	err := r.DB.WithContext(ctx).
		Scopes(notDeleted).
		Preload("Writer").
		Where("question_id = ?", questionID).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

func (r *AnswerRepository) MarkDeleted(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(&model.Answer{}).
		Where("id IN ?", ids).
		Update("deleted", true).Error
}
