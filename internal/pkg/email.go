package pkg

import (
	"crypto/tls"
	"fmt"
	"html"

	"Lee_QnA/internal/config"

	"gopkg.in/gomail.v2"
)

func SendEmail(cfg config.SMTPConfig, to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return d.DialAndSend(m)
}

// AnswerNoticeHTML 新回答提醒邮件正文，用户输入全部转义
func AnswerNoticeHTML(questionTitle, answerWriter, contents, link string) string {
	return fmt.Sprintf(`<p>您好，</p><p>您的问题 <b>%s</b> 收到了 <b>%s</b> 的新回答：</p><blockquote>%s</blockquote><p><a href="%s">查看问题</a></p>`,
		html.EscapeString(questionTitle),
		html.EscapeString(answerWriter),
		html.EscapeString(contents),
		html.EscapeString(link),
	)
}
