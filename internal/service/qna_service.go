package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Lee_QnA/internal/metrics"
	"Lee_QnA/internal/model"
	"Lee_QnA/internal/repository/database"
	"Lee_QnA/internal/search"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrHistoryNotSaved 软删除已提交，但删除历史没有写入
var ErrHistoryNotSaved = errors.New("delete history not saved")

const (
	defaultPageSize = 20
	maxPageSize     = 100
	reindexBatch    = 500
)

// Indexer 问题搜索索引
type Indexer interface {
	IndexQuestions(questions []model.Question) error
	RemoveQuestion(id uint64) error
	Search(query string, limit int64) ([]uint64, error)
}

type QnaService struct {
	db       *gorm.DB
	history  HistorySaver
	index    Indexer
	notifier Notifier
	metrics  *metrics.Metrics
	log      *logrus.Entry
	now      func() time.Time
}

type Option func(*QnaService)

func WithIndexer(index Indexer) Option {
	return func(s *QnaService) { s.index = index }
}

func WithNotifier(n Notifier) Option {
	return func(s *QnaService) { s.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *QnaService) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *QnaService) { s.now = now }
}

func NewQnaService(db *gorm.DB, history HistorySaver, log *logrus.Entry, opts ...Option) *QnaService {
	s := &QnaService{
		db:       db,
		history:  history,
		index:    search.Nop{},
		notifier: nopNotifier{},
		log:      log.WithField("component", "qna"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *QnaService) findUser(ctx context.Context, db *gorm.DB, id uint64) (*model.User, error) {
	return (&database.UserRepository{DB: db}).FindByID(ctx, id)
}

// CreateQuestion 创建问题，索引失败不影响结果
func (s *QnaService) CreateQuestion(ctx context.Context, writerID uint64, title, contents string) (*model.Question, error) {
	writer, err := s.findUser(ctx, s.db, writerID)
	if err != nil {
		return nil, err
	}
	q, err := model.NewQuestion(title, contents, writer)
	if err != nil {
		return nil, err
	}
	if err := (&database.QuestionRepository{DB: s.db}).Create(ctx, q); err != nil {
		return nil, err
	}
	s.indexQuestion(q)
	return q, nil
}

func (s *QnaService) ShowQuestion(ctx context.Context, id uint64) (*model.Question, error) {
	return (&database.QuestionRepository{DB: s.db}).FindByID(ctx, id)
}

// ListQuestions page 从 1 开始
func (s *QnaService) ListQuestions(ctx context.Context, page, size int) ([]model.Question, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return (&database.QuestionRepository{DB: s.db}).List(ctx, (page-1)*size, size)
}

func (s *QnaService) UpdateQuestion(ctx context.Context, requesterID, id uint64, title, contents string) (*model.Question, error) {
	var q *model.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requester, err := s.findUser(ctx, tx, requesterID)
		if err != nil {
			return err
		}
		questions := &database.QuestionRepository{DB: tx}
		if q, err = questions.FindByID(ctx, id); err != nil {
			return err
		}
		if err := q.Update(requester, title, contents); err != nil {
			return err
		}
		return questions.UpdateContents(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	s.indexQuestion(q)
	return q, nil
}

// DeleteQuestion 软删除问题及其回答。
// 业务事务内写状态和 outbox，提交后再用独立事务写删除历史；
// 历史写入失败时软删除不回滚，返回 ErrHistoryNotSaved。
func (s *QnaService) DeleteQuestion(ctx context.Context, requesterID, id uint64) ([]model.DeleteHistory, error) {
	var histories []model.DeleteHistory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requester, err := s.findUser(ctx, tx, requesterID)
		if err != nil {
			return err
		}
		questions := &database.QuestionRepository{DB: tx}
		q, err := questions.FindForDelete(ctx, id)
		if err != nil {
			return err
		}

		live := q.LiveAnswers()
		hs, err := q.Delete(requester, s.now().UTC())
		if err != nil {
			return err
		}
		if len(hs) == 0 {
			return nil
		}

		answerIDs := make([]uint64, 0, len(live))
		for _, a := range live {
			answerIDs = append(answerIDs, a.ID)
		}
		if err := questions.SaveDeleted(ctx, q, answerIDs); err != nil {
			return err
		}
		if err := (&database.OutboxRepository{DB: tx}).Insert(ctx, hs); err != nil {
			return err
		}
		histories = hs
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(histories) == 0 {
		return nil, nil
	}

	s.countDeletions(histories)
	if err := s.index.RemoveQuestion(id); err != nil {
		s.log.WithError(err).WithField("question_id", id).Warn("remove question from search index failed")
	}
	if err := s.saveHistories(ctx, histories); err != nil {
		return histories, err
	}
	return histories, nil
}

// AddAnswer 回答必须挂在未删除的问题下
func (s *QnaService) AddAnswer(ctx context.Context, writerID, questionID uint64, contents string) (*model.Answer, error) {
	writer, err := s.findUser(ctx, s.db, writerID)
	if err != nil {
		return nil, err
	}
	q, err := (&database.QuestionRepository{DB: s.db}).FindByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	a, err := model.NewAnswer(contents, writer, q)
	if err != nil {
		return nil, err
	}
	if err := (&database.AnswerRepository{DB: s.db}).Create(ctx, a); err != nil {
		return nil, err
	}

	if err := s.notifier.NotifyAnswer(ctx, q, a); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"question_id": q.ID,
			"answer_id":   a.ID,
		}).Warn("answer notification failed")
	}
	return a, nil
}

func (s *QnaService) ListAnswers(ctx context.Context, questionID uint64) ([]model.Answer, error) {
	if _, err := (&database.QuestionRepository{DB: s.db}).FindByID(ctx, questionID); err != nil {
		return nil, err
	}
	return (&database.AnswerRepository{DB: s.db}).ListByQuestion(ctx, questionID)
}

// DeleteAnswer 只有回答作者可以删除；已删除时不产生历史
func (s *QnaService) DeleteAnswer(ctx context.Context, requesterID, questionID, answerID uint64) ([]model.DeleteHistory, error) {
	var histories []model.DeleteHistory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requester, err := s.findUser(ctx, tx, requesterID)
		if err != nil {
			return err
		}
		answers := &database.AnswerRepository{DB: tx}
		a, err := answers.FindForDelete(ctx, questionID, answerID)
		if err != nil {
			return err
		}
		h, err := a.Delete(requester, s.now().UTC())
		if err != nil || h == nil {
			return err
		}
		if err := answers.MarkDeleted(ctx, []uint64{a.ID}); err != nil {
			return err
		}
		hs := []model.DeleteHistory{*h}
		if err := (&database.OutboxRepository{DB: tx}).Insert(ctx, hs); err != nil {
			return err
		}
		histories = hs
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(histories) == 0 {
		return nil, nil
	}

	s.countDeletions(histories)
	if err := s.saveHistories(ctx, histories); err != nil {
		return histories, err
	}
	return histories, nil
}

// SearchQuestions 索引只给出 id，内容以数据库为准，已删除的问题不会返回
func (s *QnaService) SearchQuestions(ctx context.Context, query string, limit int) ([]model.Question, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	ids, err := s.index.Search(query, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("search questions: %w", err)
	}
	return (&database.QuestionRepository{DB: s.db}).FindByIDs(ctx, ids)
}

// Reindex 全量重建搜索索引，返回写入的问题数
func (s *QnaService) Reindex(ctx context.Context) (int, error) {
	questions := &database.QuestionRepository{DB: s.db}
	var lastID uint64
	total := 0
	for {
		batch, err := questions.ListAfter(ctx, lastID, reindexBatch)
		if err != nil {
			return total, err
		}
		if len(batch) == 0 {
			return total, nil
		}
		if err := s.index.IndexQuestions(batch); err != nil {
			return total, err
		}
		total += len(batch)
		lastID = batch[len(batch)-1].ID
	}
}

func (s *QnaService) saveHistories(ctx context.Context, histories []model.DeleteHistory) error {
	err := s.history.SaveAll(ctx, histories)
	if err == nil {
		return nil
	}
	if s.metrics != nil {
		s.metrics.HistorySaveFailures.Inc()
	}
	s.log.WithError(err).WithFields(logrus.Fields{
		"content_type": histories[0].ContentType,
		"content_id":   histories[0].ContentID,
		"count":        len(histories),
	}).Error("delete committed but history not saved")
	return fmt.Errorf("%w: %w", ErrHistoryNotSaved, err)
}

func (s *QnaService) countDeletions(histories []model.DeleteHistory) {
	if s.metrics == nil {
		return
	}
	for _, h := range histories {
		s.metrics.Deletions.WithLabelValues(string(h.ContentType)).Inc()
	}
}

func (s *QnaService) indexQuestion(q *model.Question) {
	if err := s.index.IndexQuestions([]model.Question{*q}); err != nil {
		s.log.WithError(err).WithField("question_id", q.ID).Warn("index question failed")
	}
}
