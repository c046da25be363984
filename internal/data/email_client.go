package data

import (
	"context"
	"fmt"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/biz"
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	sendgrid "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// emailClient SendGrid 邮件通道适配器
type emailClient struct {
	client   *sendgrid.Client
	from     string
	fromName string
	log      *log.Helper
}

// NewEmailClient 创建邮件通道客户端
func NewEmailClient(c *conf.Bootstrap, logger log.Logger) biz.EmailSender {
	var apiKey, from, fromName string
	if c != nil && c.Delivery != nil {
		apiKey = c.Delivery.Email.SendgridKey
		from = c.Delivery.Email.From
		fromName = c.Delivery.Email.FromName
	}
	return &emailClient{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: fromName,
		log:      log.NewHelper(logger),
	}
}

// SendEmail 发送单封 HTML 邮件
func (c *emailClient) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	from := mail.NewEmail(c.fromName, c.from)
	recipient := mail.NewEmail(to, to)
	message := mail.NewSingleEmail(from, subject, recipient, "", htmlBody)

	resp, err := c.client.SendWithContext(ctx, message)
	if err != nil {
		c.log.Errorf("Failed to send email to %s: %v", to, err)
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Errorf("Email provider rejected send to %s: status=%d body=%s", to, resp.StatusCode, resp.Body)
		return fmt.Errorf("email send failed with status %d", resp.StatusCode)
	}
	return nil
}
