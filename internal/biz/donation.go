package biz

import (
	"context"
	"fmt"
	"time"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
)

// Donation 捐赠记录
type Donation struct {
	ID              uint64
	Name            string
	Email           string
	AmountCents     int64
	Currency        string
	Status          string // pending, succeeded
	StripeSessionID string
	PaymentIntentID string
	IsAnonymous     bool
	CreatedAt       time.Time
}

// DonationRepo 数据层接口
type DonationRepo interface {
	CreateDonation(ctx context.Context, d *Donation) error
	MarkSucceeded(ctx context.Context, stripeSessionID, paymentIntentID string) error
}

// CheckoutSession 支付会话 (防腐层视图)
type CheckoutSession struct {
	ID              string
	URL             string
	Paid            bool
	PaymentIntentID string
	Metadata        map[string]string
}

// WebhookEvent 经过签名校验的支付回调事件
type WebhookEvent struct {
	Type    string
	Session *CheckoutSession
}

// PaymentClient 支付服务客户端接口 (防腐层)
type PaymentClient interface {
	CreateCheckoutSession(ctx context.Context, email string, amountCents int64, currency, productName string, metadata map[string]string) (sessionID, url string, err error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	// VerifyWebhook checks the provider signature over the raw payload and
	// decodes the event. Invalid signatures are an error.
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// DonationUsecase 捐赠业务逻辑
type DonationUsecase struct {
	repo          DonationRepo
	paymentClient PaymentClient
	currency      string
	log           *log.Helper
}

func NewDonationUsecase(repo DonationRepo, paymentClient PaymentClient, logger log.Logger) *DonationUsecase {
	return &DonationUsecase{
		repo:          repo,
		paymentClient: paymentClient,
		currency:      "CAD",
		log:           log.NewHelper(logger),
	}
}

// CreateDonation opens a checkout session and records the donation as pending.
func (uc *DonationUsecase) CreateDonation(ctx context.Context, name, email string, amountCents int64, isAnonymous bool) (string, error) {
	if amountCents <= 0 {
		return "", fmt.Errorf("invalid amount")
	}

	sessionID, url, err := uc.paymentClient.CreateCheckoutSession(ctx, email, amountCents, uc.currency, "Donation", nil)
	if err != nil {
		uc.log.Errorf("Failed to create donation checkout session: %v", err)
		return "", err
	}

	d := &Donation{
		Name:            name,
		Email:           email,
		AmountCents:     amountCents,
		Currency:        uc.currency,
		Status:          constants.DonationStatusPending,
		StripeSessionID: sessionID,
		IsAnonymous:     isAnonymous,
	}
	if err := uc.repo.CreateDonation(ctx, d); err != nil {
		uc.log.Errorf("Failed to record pending donation for session %s: %v", sessionID, err)
		return "", err
	}

	return url, nil
}

// HandleWebhook reconciles a verified provider event against the donation row.
func (uc *DonationUsecase) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := uc.paymentClient.VerifyWebhook(payload, signature)
	if err != nil {
		return err
	}

	if event.Type != "checkout.session.completed" || event.Session == nil {
		// 其他事件类型直接确认
		return nil
	}

	if err := uc.repo.MarkSucceeded(ctx, event.Session.ID, event.Session.PaymentIntentID); err != nil {
		uc.log.Errorf("Failed to mark donation succeeded for session %s: %v", event.Session.ID, err)
		return err
	}
	return nil
}
