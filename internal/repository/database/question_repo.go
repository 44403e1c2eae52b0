package database

import (
	"context"

	"Lee_QnA/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionRepository struct {
	DB *gorm.DB
}

// liveAnswers 预加载未删除的回答，按 id 升序
func liveAnswers(db *gorm.DB) *gorm.DB {
	return db.Scopes(notDeleted).Order("id ASC")
}

func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(q).Error
}

// FindByID 只查未删除的问题
func (r *QuestionRepository) FindByID(ctx context.Context, id uint64) (*model.Question, error) {
	return r.find(r.DB.WithContext(ctx).Scopes(notDeleted), id)
}

// FindForDelete 删除流程用：问题本身可能已删除（幂等重试），回答仍只取未删除的
func (r *QuestionRepository) FindForDelete(ctx context.Context, id uint64) (*model.Question, error) {
	return r.find(r.DB.WithContext(ctx), id)
}

func (r *QuestionRepository) find(q *gorm.DB, id uint64) (*model.Question, error) {
	var question model.Question
	err := q.Preload("Writer").
		Preload("Answers", liveAnswers).
		Preload("Answers.Writer").
		First(&question, id).Error
	if err != nil {
		return nil, translate(err)
	}
	for _, a := range question.Answers {
		a.ToQuestion(&question)
	}
	return &question, nil
}

// List 基础分页，新的在前
func (r *QuestionRepository) List(ctx context.Context, offset, limit int) ([]model.Question, error) {
	var list []model.Question
	err := r.DB.WithContext(ctx).
		Scopes(notDeleted).
		Preload("Writer").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, err
}

// ListAfter 全量重建索引用的游标遍历
func (r *QuestionRepository) ListAfter(ctx context.Context, lastID uint64, limit int) ([]model.Question, error) {
	var list []model.Question
	err := r.DB.WithContext(ctx).
		Scopes(notDeleted).
		Preload("Writer").
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *QuestionRepository) UpdateContents(ctx context.Context, q *model.Question) error {
	return r.DB.WithContext(ctx).Model(&model.Question{}).
		Where("id = ?", q.ID).
		Scopes(notDeleted).
		Updates(map[string]any{"title": q.Title, "contents": q.Contents}).Error
}

// SaveDeleted 持久化聚合删除后的状态：问题与本次删除的回答
func (r *QuestionRepository) SaveDeleted(ctx context.Context, q *model.Question, answerIDs []uint64) error {
	if err := r.DB.WithContext(ctx).Model(&model.Question{}).
		Where("id = ?", q.ID).
		Update("deleted", true).Error; err != nil {
		return err
	}
	return (&AnswerRepository{DB: r.DB}).MarkDeleted(ctx, answerIDs)
}

// FindByIDs 按给定顺序返回仍未删除的问题，不存在的 id 直接跳过
func (r *QuestionRepository) FindByIDs(ctx context.Context, ids []uint64) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []model.Question
	if err := r.DB.WithContext(ctx).
		Scopes(notDeleted).
		Preload("Writer").
		Where("id IN ?", ids).
		Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint64]model.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}
	list := make([]model.Question, 0, len(found))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			list = append(list, q)
		}
	}
	return list, nil
}
