package data

import (
	"context"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/biz"
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// smsClient Twilio 短信通道适配器
type smsClient struct {
	client *twilio.RestClient
	from   string
	log    *log.Helper
}

// NewSMSClient 创建短信通道客户端
func NewSMSClient(c *conf.Bootstrap, logger log.Logger) biz.SMSSender {
	var sid, token, from string
	if c != nil && c.Delivery != nil {
		sid = c.Delivery.Sms.TwilioAccountSid
		token = c.Delivery.Sms.TwilioAuthToken
		from = c.Delivery.Sms.From
	}
	return &smsClient{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: sid,
			Password: token,
		}),
		from: from,
		log:  log.NewHelper(logger),
	}
}

// SendSMS 发送一条短信. twilio-go does not take a context; the dispatch engine
// enforces the per-delivery deadline around this call.
func (c *smsClient) SendSMS(_ context.Context, to, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetBody(body)

	if _, err := c.client.Api.CreateMessage(params); err != nil {
		c.log.Errorf("Failed to send sms to %s: %v", to, err)
		return err
	}
	return nil
}
