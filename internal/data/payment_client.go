package data

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/biz"
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// paymentClient Stripe 支付适配器
type paymentClient struct {
	webhookSecret string
	successURL    string
	cancelURL     string
	log           *log.Helper
}

// NewPaymentClient 创建支付客户端
func NewPaymentClient(c *conf.Bootstrap, logger log.Logger) biz.PaymentClient {
	p := &paymentClient{log: log.NewHelper(logger)}
	if c != nil && c.Payment != nil {
		stripe.Key = c.Payment.StripeKey
		p.webhookSecret = c.Payment.WebhookSecret
		p.successURL = c.Payment.SuccessURL
		p.cancelURL = c.Payment.CancelURL
	}
	return p
}

// CreateCheckoutSession 创建一次性支付的 checkout session
func (p *paymentClient) CreateCheckoutSession(_ context.Context, email string, amountCents int64, currency, productName string, metadata map[string]string) (string, string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(amountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(productName),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(p.successURL),
		CancelURL:  stripe.String(p.cancelURL),
	}
	if email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	s, err := session.New(params)
	if err != nil {
		p.log.Errorf("Failed to create checkout session: %v", err)
		return "", "", fmt.Errorf("create checkout session: %w", err)
	}
	return s.ID, s.URL, nil
}

// GetCheckoutSession 查询 checkout session 状态
func (p *paymentClient) GetCheckoutSession(_ context.Context, sessionID string) (*biz.CheckoutSession, error) {
	s, err := session.Get(sessionID, nil)
	if err != nil {
		p.log.Errorf("Failed to retrieve checkout session %s: %v", sessionID, err)
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}
	return toCheckoutSession(s), nil
}

// VerifyWebhook 校验回调签名并解码事件
func (p *paymentClient) VerifyWebhook(payload []byte, signature string) (*biz.WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification: %w", err)
	}

	result := &biz.WebhookEvent{Type: string(event.Type)}
	if event.Type == "checkout.session.completed" {
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		result.Session = toCheckoutSession(&s)
	}
	return result, nil
}

func toCheckoutSession(s *stripe.CheckoutSession) *biz.CheckoutSession {
	cs := &biz.CheckoutSession{
		ID:       s.ID,
		URL:      s.URL,
		Paid:     s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Metadata: s.Metadata,
	}
	if s.PaymentIntent != nil {
		cs.PaymentIntentID = s.PaymentIntent.ID
	}
	return cs
}
