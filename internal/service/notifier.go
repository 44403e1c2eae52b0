package service

import (
	"context"
	"fmt"

	"Lee_QnA/internal/config"
	"Lee_QnA/internal/model"
	"Lee_QnA/internal/pkg"
)

// Notifier 新回答提醒
type Notifier interface {
	NotifyAnswer(ctx context.Context, q *model.Question, a *model.Answer) error
}

type AnswerNotifier struct {
	cfg     config.SMTPConfig
	baseURL string
	send    func(cfg config.SMTPConfig, to, subject, htmlBody string) error
}

func NewAnswerNotifier(cfg config.SMTPConfig, baseURL string) *AnswerNotifier {
	return &AnswerNotifier{cfg: cfg, baseURL: baseURL, send: pkg.SendEmail}
}

// NotifyAnswer 作者自己回答或没有邮箱时不发送
func (n *AnswerNotifier) NotifyAnswer(ctx context.Context, q *model.Question, a *model.Answer) error {
	if q.Writer == nil || q.Writer.Email == "" || q.IsOwner(a.Writer) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	answerer := ""
	if a.Writer != nil {
		answerer = a.Writer.Name
	}
	subject := fmt.Sprintf("[QnA] %s 有新回答", q.Title)
	body := pkg.AnswerNoticeHTML(q.Title, answerer, a.Contents, n.baseURL+q.URL())
	return n.send(n.cfg, q.Writer.Email, subject, body)
}

type nopNotifier struct{}

func (nopNotifier) NotifyAnswer(context.Context, *model.Question, *model.Answer) error { return nil }
