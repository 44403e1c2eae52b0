package model

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	javajigi = &User{ID: 1, UserID: "javajigi", Name: "자바지기", Email: "javajigi@slipp.net"}
	sanjigi  = &User{ID: 2, UserID: "sanjigi", Name: "산지기", Email: "sanjigi@slipp.net"}
	now      = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
)

func newQuestion(t *testing.T, writer *User) *Question {
	t.Helper()
	q, err := NewQuestion("Sample title", "abc", writer)
	require.NoError(t, err)
	q.ID = 10
	return q
}

func addAnswer(t *testing.T, q *Question, id uint64, writer *User) *Answer {
	t.Helper()
	a, err := NewAnswer("an answer", writer, q)
	require.NoError(t, err)
	a.ID = id
	return a
}

func TestNewQuestion_TitleBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr bool
	}{
		{name: "length 2", title: "ab", wantErr: true},
		{name: "length 3", title: "abc"},
		{name: "length 100", title: strings.Repeat("a", 100)},
		{name: "length 101", title: strings.Repeat("a", 101), wantErr: true},
		{name: "multibyte counted as runes", title: "질문입"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := NewQuestion(tt.title, "contents", javajigi)
			if tt.wantErr {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Map(), "title")
				assert.Nil(t, q)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, javajigi.ID, q.WriterID)
			assert.False(t, q.Deleted)
		})
	}
}

func TestNewQuestion_ContentsTooShort(t *testing.T) {
	_, err := NewQuestion("ab", "ab", javajigi)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
	assert.Contains(t, verr.Map(), "contents")
}

func TestQuestion_Update(t *testing.T) {
	t.Run("owner", func(t *testing.T) {
		q := newQuestion(t, javajigi)
		require.NoError(t, q.Update(javajigi, "New", "xyz"))
		assert.Equal(t, "New", q.Title)
		assert.Equal(t, "xyz", q.Contents)
	})

	t.Run("not owner", func(t *testing.T) {
		q := newQuestion(t, javajigi)
		err := q.Update(sanjigi, "New", "xyz")
		assert.ErrorIs(t, err, ErrNotOwner)
		assert.Equal(t, "Sample title", q.Title)
		assert.Equal(t, "abc", q.Contents)
	})

	t.Run("invalid leaves question unmodified", func(t *testing.T) {
		q := newQuestion(t, javajigi)
		err := q.Update(javajigi, "No", "xyz")
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, "Sample title", q.Title)
	})
}

func TestQuestion_Delete(t *testing.T) {
	t.Run("without answers", func(t *testing.T) {
		q := newQuestion(t, javajigi)

		histories, err := q.Delete(javajigi, now)
		require.NoError(t, err)
		assert.True(t, q.Deleted)
		require.Len(t, histories, 1)
		assert.Equal(t, NewDeleteHistory(ContentTypeQuestion, q.ID, javajigi, now), histories[0])
	})

	t.Run("own answers are deleted with the question", func(t *testing.T) {
		q := newQuestion(t, javajigi)
		a1 := addAnswer(t, q, 100, javajigi)
		a2 := addAnswer(t, q, 101, javajigi)

		histories, err := q.Delete(javajigi, now)
		require.NoError(t, err)
		assert.True(t, q.Deleted)
		assert.True(t, a1.Deleted)
		assert.True(t, a2.Deleted)
		require.Len(t, histories, 3)
		assert.Equal(t, ContentTypeQuestion, histories[0].ContentType)
		assert.Equal(t, uint64(100), histories[1].ContentID)
		assert.Equal(t, uint64(101), histories[2].ContentID)
		for _, h := range histories {
			assert.Equal(t, javajigi.ID, h.DeletedByID)
			assert.Equal(t, now, h.CreatedAt)
		}
	})

	t.Run("not owner", func(t *testing.T) {
		q := newQuestion(t, javajigi)
		a := addAnswer(t, q, 100, javajigi)

		histories, err := q.Delete(sanjigi, now)
		assert.ErrorIs(t, err, ErrNotOwner)
		assert.Nil(t, histories)
		assert.False(t, q.Deleted)
		assert.False(t, a.Deleted)
	})

	t.Run("answer by someone else", func(t *testing.T) {
		q := newQuestion(t, javajigi)
		own := addAnswer(t, q, 100, javajigi)
		other := addAnswer(t, q, 101, sanjigi)

		histories, err := q.Delete(javajigi, now)
		assert.ErrorIs(t, err, ErrAnswersNotOwned)
		assert.Empty(t, histories)
		assert.False(t, q.Deleted)
		assert.False(t, own.Deleted)
		assert.False(t, other.Deleted)
	})

	t.Run("deleted foreign answers are ignored", func(t *testing.T) {
		q := newQuestion(t, javajigi)
		other := addAnswer(t, q, 100, sanjigi)
		other.Deleted = true
		own := addAnswer(t, q, 101, javajigi)

		histories, err := q.Delete(javajigi, now)
		require.NoError(t, err)
		assert.True(t, own.Deleted)
		require.Len(t, histories, 2)
		assert.Equal(t, uint64(101), histories[1].ContentID)
	})

	t.Run("already deleted is a no-op", func(t *testing.T) {
		q := newQuestion(t, javajigi)
		_, err := q.Delete(javajigi, now)
		require.NoError(t, err)

		histories, err := q.Delete(javajigi, now)
		require.NoError(t, err)
		assert.Empty(t, histories)
		assert.True(t, q.Deleted)

		_, err = q.Delete(sanjigi, now)
		assert.True(t, errors.Is(err, ErrNotOwner))
	})
}

func TestQuestion_AddAnswer(t *testing.T) {
	q := newQuestion(t, javajigi)
	a1 := addAnswer(t, q, 5, sanjigi)
	a2 := addAnswer(t, q, 3, javajigi)

	assert.Equal(t, []*Answer{a1, a2}, q.Answers)
	assert.Same(t, q, a1.Question())
	assert.Equal(t, q.ID, a2.QuestionID)
	assert.True(t, q.IsOwner(javajigi))
	assert.False(t, q.IsOwner(sanjigi))
	assert.Equal(t, "/api/questions/10", q.URL())
}
