package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"Lee_QnA/internal/config"
	"Lee_QnA/internal/logger"
	"Lee_QnA/internal/metrics"
	"Lee_QnA/internal/model"
	"Lee_QnA/internal/repository/database"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver:      "sqlite",
		DSN:         filepath.Join(t.TempDir(), "qna.db") + "?_busy_timeout=5000",
		AutoMigrate: true,
	}, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func seedUser(t *testing.T, db *gorm.DB, userID, email string) *model.User {
	t.Helper()
	u, err := model.NewUser(userID, "password", userID, email)
	require.NoError(t, err)
	require.NoError(t, (&database.UserRepository{DB: db}).Create(context.Background(), u))
	return u
}

type fakeIndex struct {
	indexed []uint64
	removed []uint64
	hits    []uint64
	err     error
}

func (f *fakeIndex) IndexQuestions(qs []model.Question) error {
	for _, q := range qs {
		f.indexed = append(f.indexed, q.ID)
	}
	return f.err
}

func (f *fakeIndex) RemoveQuestion(id uint64) error {
	f.removed = append(f.removed, id)
	return f.err
}

func (f *fakeIndex) Search(string, int64) ([]uint64, error) {
	return f.hits, f.err
}

type failingSaver struct{ err error }

func (f failingSaver) SaveAll(context.Context, []model.DeleteHistory) error { return f.err }

type qnaFixture struct {
	db       *gorm.DB
	svc      *QnaService
	history  *DeleteHistoryService
	index    *fakeIndex
	metrics  *metrics.Metrics
	javajigi *model.User
	sanjigi  *model.User
}

func newQnaFixture(t *testing.T, opts ...Option) *qnaFixture {
	t.Helper()
	db := newTestDB(t)
	f := &qnaFixture{
		db:       db,
		history:  NewDeleteHistoryService(db),
		index:    &fakeIndex{},
		metrics:  metrics.New(),
		javajigi: seedUser(t, db, "javajigi", "javajigi@slipp.net"),
		sanjigi:  seedUser(t, db, "sanjigi", "sanjigi@slipp.net"),
	}
	base := []Option{WithIndexer(f.index), WithMetrics(f.metrics), WithClock(func() time.Time { return fixedNow })}
	f.svc = NewQnaService(db, f.history, logger.Discard(), append(base, opts...)...)
	return f
}

func (f *qnaFixture) question(t *testing.T, writer *model.User) *model.Question {
	t.Helper()
	q, err := f.svc.CreateQuestion(context.Background(), writer.ID, "title1", "contents1")
	require.NoError(t, err)
	return q
}

func (f *qnaFixture) answer(t *testing.T, q *model.Question, writer *model.User) *model.Answer {
	t.Helper()
	a, err := f.svc.AddAnswer(context.Background(), writer.ID, q.ID, "answer contents")
	require.NoError(t, err)
	return a
}

func (f *qnaFixture) histories(t *testing.T) []model.DeleteHistory {
	t.Helper()
	list, err := f.history.FindAll(context.Background())
	require.NoError(t, err)
	return list
}

func TestDeleteQuestion_WithOwnAnswers(t *testing.T) {
	f := newQnaFixture(t)
	ctx := context.Background()
	q := f.question(t, f.javajigi)
	a1 := f.answer(t, q, f.javajigi)
	a2 := f.answer(t, q, f.javajigi)

	histories, err := f.svc.DeleteQuestion(ctx, f.javajigi.ID, q.ID)
	require.NoError(t, err)
	require.Len(t, histories, 3)

	saved := f.histories(t)
	require.Len(t, saved, 3)
	assert.Equal(t, model.ContentTypeQuestion, saved[0].ContentType)
	assert.Equal(t, q.ID, saved[0].ContentID)
	assert.Equal(t, model.ContentTypeAnswer, saved[1].ContentType)
	assert.Equal(t, a1.ID, saved[1].ContentID)
	assert.Equal(t, a2.ID, saved[2].ContentID)
	for _, h := range saved {
		assert.Equal(t, f.javajigi.ID, h.DeletedByID)
		assert.True(t, h.CreatedAt.Equal(fixedNow))
	}

	_, err = f.svc.ShowQuestion(ctx, q.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	var deletedAnswers int64
	require.NoError(t, f.db.Model(&model.Answer{}).Where("deleted = ?", true).Count(&deletedAnswers).Error)
	assert.Equal(t, int64(2), deletedAnswers)

	pending, err := (&database.OutboxRepository{DB: f.db}).List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	assert.Equal(t, []uint64{q.ID}, f.index.removed)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Deletions.WithLabelValues("QUESTION")))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Deletions.WithLabelValues("ANSWER")))
}

func TestDeleteQuestion_WithoutAnswers(t *testing.T) {
	f := newQnaFixture(t)
	q := f.question(t, f.javajigi)

	histories, err := f.svc.DeleteQuestion(context.Background(), f.javajigi.ID, q.ID)
	require.NoError(t, err)
	require.Len(t, histories, 1)
	assert.Len(t, f.histories(t), 1)
}

func TestDeleteQuestion_Rejected(t *testing.T) {
	tests := []struct {
		name      string
		answerBy  func(f *qnaFixture) *model.User
		requester func(f *qnaFixture) *model.User
		wantErr   error
	}{
		{
			name:      "not owner",
			requester: func(f *qnaFixture) *model.User { return f.sanjigi },
			wantErr:   model.ErrNotOwner,
		},
		{
			name:      "answer by other user",
			answerBy:  func(f *qnaFixture) *model.User { return f.sanjigi },
			requester: func(f *qnaFixture) *model.User { return f.javajigi },
			wantErr:   model.ErrAnswersNotOwned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQnaFixture(t)
			ctx := context.Background()
			q := f.question(t, f.javajigi)
			if tt.answerBy != nil {
				f.answer(t, q, tt.answerBy(f))
			}

			histories, err := f.svc.DeleteQuestion(ctx, tt.requester(f).ID, q.ID)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, histories)
			assert.Empty(t, f.histories(t))

			again, err := f.svc.ShowQuestion(ctx, q.ID)
			require.NoError(t, err)
			assert.False(t, again.Deleted)
			for _, a := range again.Answers {
				assert.False(t, a.Deleted)
			}

			pending, err := (&database.OutboxRepository{DB: f.db}).List(ctx, 10)
			require.NoError(t, err)
			assert.Empty(t, pending)
		})
	}
}

func TestDeleteQuestion_ForeignAnswerAlreadyDeleted(t *testing.T) {
	f := newQnaFixture(t)
	ctx := context.Background()
	q := f.question(t, f.javajigi)
	foreign := f.answer(t, q, f.sanjigi)

	_, err := f.svc.DeleteAnswer(ctx, f.sanjigi.ID, q.ID, foreign.ID)
	require.NoError(t, err)

	histories, err := f.svc.DeleteQuestion(ctx, f.javajigi.ID, q.ID)
	require.NoError(t, err)
	require.Len(t, histories, 1)
	assert.Equal(t, model.ContentTypeQuestion, histories[0].ContentType)
	assert.Len(t, f.histories(t), 2)
}

func TestDeleteQuestion_Twice(t *testing.T) {
	f := newQnaFixture(t)
	ctx := context.Background()
	q := f.question(t, f.javajigi)

	_, err := f.svc.DeleteQuestion(ctx, f.javajigi.ID, q.ID)
	require.NoError(t, err)

	histories, err := f.svc.DeleteQuestion(ctx, f.javajigi.ID, q.ID)
	require.NoError(t, err)
	assert.Empty(t, histories)
	assert.Len(t, f.histories(t), 1)

	_, err = f.svc.DeleteQuestion(ctx, f.sanjigi.ID, q.ID)
	assert.ErrorIs(t, err, model.ErrNotOwner)
}

func TestDeleteQuestion_NotFound(t *testing.T) {
	f := newQnaFixture(t)
	_, err := f.svc.DeleteQuestion(context.Background(), f.javajigi.ID, 999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestDeleteQuestion_HistoryNotSaved(t *testing.T) {
	diskFull := errors.New("disk full")
	f := newQnaFixture(t)
	f.svc.history = failingSaver{err: diskFull}
	ctx := context.Background()
	q := f.question(t, f.javajigi)
	f.answer(t, q, f.javajigi)

	histories, err := f.svc.DeleteQuestion(ctx, f.javajigi.ID, q.ID)
	assert.ErrorIs(t, err, ErrHistoryNotSaved)
	assert.ErrorIs(t, err, diskFull)
	assert.Len(t, histories, 2)

	// 软删除已提交
	_, err = f.svc.ShowQuestion(ctx, q.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.Empty(t, f.histories(t))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.HistorySaveFailures))
}

func TestDeleteAnswer(t *testing.T) {
	f := newQnaFixture(t)
	ctx := context.Background()
	q := f.question(t, f.javajigi)
	a := f.answer(t, q, f.sanjigi)

	_, err := f.svc.DeleteAnswer(ctx, f.javajigi.ID, q.ID, a.ID)
	assert.ErrorIs(t, err, model.ErrNotOwner)

	_, err = f.svc.DeleteAnswer(ctx, f.sanjigi.ID, q.ID+1, a.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	histories, err := f.svc.DeleteAnswer(ctx, f.sanjigi.ID, q.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, histories, 1)
	assert.Equal(t, model.ContentTypeAnswer, histories[0].ContentType)
	assert.Equal(t, f.sanjigi.ID, histories[0].DeletedByID)

	histories, err = f.svc.DeleteAnswer(ctx, f.sanjigi.ID, q.ID, a.ID)
	require.NoError(t, err)
	assert.Empty(t, histories)

	live, err := f.svc.ListAnswers(ctx, q.ID)
	require.NoError(t, err)
	assert.Empty(t, live)
	assert.Len(t, f.histories(t), 1)
}

func TestUpdateQuestion(t *testing.T) {
	f := newQnaFixture(t)
	ctx := context.Background()
	q := f.question(t, f.javajigi)

	_, err := f.svc.UpdateQuestion(ctx, f.sanjigi.ID, q.ID, "title2", "contents2")
	assert.ErrorIs(t, err, model.ErrNotOwner)

	_, err = f.svc.UpdateQuestion(ctx, f.javajigi.ID, q.ID, "ab", "contents2")
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Map(), "title")

	updated, err := f.svc.UpdateQuestion(ctx, f.javajigi.ID, q.ID, "title2", "contents2")
	require.NoError(t, err)
	assert.Equal(t, "title2", updated.Title)

	reloaded, err := f.svc.ShowQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "title2", reloaded.Title)
	assert.Equal(t, "contents2", reloaded.Contents)
	assert.Equal(t, []uint64{q.ID, q.ID}, f.index.indexed)
}

type recordingNotifier struct {
	calls int
	err   error
}

func (n *recordingNotifier) NotifyAnswer(context.Context, *model.Question, *model.Answer) error {
	n.calls++
	return n.err
}

func TestAddAnswer(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	f := newQnaFixture(t, WithNotifier(notifier))
	ctx := context.Background()
	q := f.question(t, f.javajigi)

	a, err := f.svc.AddAnswer(ctx, f.sanjigi.ID, q.ID, "an answer")
	require.NoError(t, err)
	assert.Equal(t, q.ID, a.QuestionID)
	assert.Equal(t, 1, notifier.calls)

	_, err = f.svc.AddAnswer(ctx, f.sanjigi.ID, q.ID, "   ")
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.svc.AddAnswer(ctx, f.sanjigi.ID, 999, "an answer")
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = f.svc.ListAnswers(ctx, 999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestListQuestions_Paging(t *testing.T) {
	f := newQnaFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.question(t, f.javajigi)
	}

	first, err := f.svc.ListQuestions(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := f.svc.ListQuestions(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, second, 1)

	all, err := f.svc.ListQuestions(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSearchQuestions_SkipsDeleted(t *testing.T) {
	f := newQnaFixture(t)
	ctx := context.Background()
	q1 := f.question(t, f.javajigi)
	q2 := f.question(t, f.javajigi)
	_, err := f.svc.DeleteQuestion(ctx, f.javajigi.ID, q1.ID)
	require.NoError(t, err)

	f.index.hits = []uint64{q1.ID, q2.ID}
	found, err := f.svc.SearchQuestions(ctx, "title", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, q2.ID, found[0].ID)
}

func TestReindex(t *testing.T) {
	f := newQnaFixture(t)
	ctx := context.Background()
	q1 := f.question(t, f.javajigi)
	q2 := f.question(t, f.javajigi)
	q3 := f.question(t, f.javajigi)
	_, err := f.svc.DeleteQuestion(ctx, f.javajigi.ID, q2.ID)
	require.NoError(t, err)

	f.index.indexed = nil
	n, err := f.svc.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []uint64{q1.ID, q3.ID}, f.index.indexed)
}
