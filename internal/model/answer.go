package model

import (
	"strings"
	"time"
)

type Answer struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	Contents   string    `gorm:"type:text;not null" json:"contents"`
	WriterID   uint64    `gorm:"not null;index" json:"writerId"`
	Writer     *User     `gorm:"foreignKey:WriterID;constraint:OnDelete:RESTRICT" json:"writer,omitempty"`
	QuestionID uint64    `gorm:"not null;index:idx_answer_question_deleted,priority:1" json:"questionId"`
	Deleted    bool      `gorm:"not null;default:false;index:idx_answer_question_deleted,priority:2" json:"deleted"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	question *Question
}

// NewAnswer 任何登录用户都可以回答；question 不为空时直接挂上
func NewAnswer(contents string, writer *User, question *Question) (*Answer, error) {
	v := &validator{}
	v.check(strings.TrimSpace(contents) != "", "contents", "must not be blank")
	if err := v.err(); err != nil {
		return nil, err
	}

	a := &Answer{Contents: contents, Writer: writer}
	if writer != nil {
		a.WriterID = writer.ID
	}
	if question != nil {
		question.AddAnswer(a)
	}
	return a, nil
}

func (a *Answer) ToQuestion(q *Question) {
	a.question = q
	a.QuestionID = q.ID
}

// Question 所属问题，仅在同一聚合内加载时有值
func (a *Answer) Question() *Question {
	return a.question
}

func (a *Answer) IsOwner(user *User) bool {
	return a.writer().Equals(user)
}

// Delete 只校验请求者是否为回答作者；已删除时幂等返回 nil
func (a *Answer) Delete(requester *User, at time.Time) (*DeleteHistory, error) {
	if !a.IsOwner(requester) {
		return nil, ErrNotOwner
	}
	if a.Deleted {
		return nil, nil
	}
	a.Deleted = true
	h := NewDeleteHistory(ContentTypeAnswer, a.ID, requester, at)
	return &h, nil
}

func (a *Answer) writer() *User {
	if a.Writer != nil {
		return a.Writer
	}
	return &User{ID: a.WriterID}
}
