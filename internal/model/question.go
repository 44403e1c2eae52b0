package model

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	TitleMinLen    = 3
	TitleMaxLen    = 100
	ContentsMinLen = 3
)

// Question 聚合根，持有自己的回答列表
type Question struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:100;not null" json:"title"`
	Contents  string    `gorm:"type:text;not null" json:"contents"`
	WriterID  uint64    `gorm:"not null;index" json:"writerId"`
	Writer    *User     `gorm:"foreignKey:WriterID;constraint:OnDelete:RESTRICT" json:"writer,omitempty"`
	Answers   []*Answer `gorm:"foreignKey:QuestionID" json:"answers,omitempty"`
	Deleted   bool      `gorm:"not null;default:false;index" json:"deleted"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewQuestion(title, contents string, writer *User) (*Question, error) {
	if err := validateQuestion(title, contents); err != nil {
		return nil, err
	}
	q := &Question{Title: title, Contents: contents}
	q.WriteBy(writer)
	return q, nil
}

func validateQuestion(title, contents string) error {
	v := &validator{}
	n := utf8.RuneCountInString(title)
	v.check(n >= TitleMinLen && n <= TitleMaxLen, "title",
		fmt.Sprintf("length must be between %d and %d", TitleMinLen, TitleMaxLen))
	v.check(utf8.RuneCountInString(contents) >= ContentsMinLen, "contents",
		fmt.Sprintf("length must be at least %d", ContentsMinLen))
	return v.err()
}

func (q *Question) WriteBy(loginUser *User) {
	q.Writer = loginUser
	if loginUser != nil {
		q.WriterID = loginUser.ID
	}
}

func (q *Question) IsOwner(user *User) bool {
	return q.writer().Equals(user)
}

// Update 校验失败或非作者时不做任何修改
func (q *Question) Update(requester *User, title, contents string) error {
	if !q.IsOwner(requester) {
		return ErrNotOwner
	}
	if err := validateQuestion(title, contents); err != nil {
		return err
	}
	q.Title = title
	q.Contents = contents
	return nil
}

// Delete 软删除问题及其全部回答，返回需要记录的删除历史（问题在前，回答按顺序在后）。
// 已删除的问题再次删除视为幂等，不产生历史。
func (q *Question) Delete(requester *User, at time.Time) ([]DeleteHistory, error) {
	if !q.IsOwner(requester) {
		return nil, ErrNotOwner
	}
	if q.Deleted {
		return nil, nil
	}

	live := q.LiveAnswers()
	for _, a := range live {
		if !a.IsOwner(q.writer()) {
			return nil, ErrAnswersNotOwned
		}
	}
	// 回答按请求者重新校验，全部通过后才改状态
	for _, a := range live {
		if !a.IsOwner(requester) {
			return nil, ErrNotOwner
		}
	}

	histories := make([]DeleteHistory, 0, len(live)+1)
	q.Deleted = true
	histories = append(histories, NewDeleteHistory(ContentTypeQuestion, q.ID, requester, at))
	for _, a := range live {
		h, err := a.Delete(requester, at)
		if err != nil {
			return nil, err
		}
		if h != nil {
			histories = append(histories, *h)
		}
	}
	return histories, nil
}

// AddAnswer 挂到本问题下，保持插入顺序
func (q *Question) AddAnswer(answer *Answer) {
	answer.ToQuestion(q)
	q.Answers = append(q.Answers, answer)
}

// LiveAnswers 未删除的回答
func (q *Question) LiveAnswers() []*Answer {
	out := make([]*Answer, 0, len(q.Answers))
	for _, a := range q.Answers {
		if !a.Deleted {
			out = append(out, a)
		}
	}
	return out
}

func (q *Question) URL() string {
	return fmt.Sprintf("/api/questions/%d", q.ID)
}

func (q *Question) writer() *User {
	if q.Writer != nil {
		return q.Writer
	}
	return &User{ID: q.WriterID}
}
