package service

import (
	"context"
	"math"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/biz"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// DonationService 捐赠接口
type DonationService struct {
	uc  *biz.DonationUsecase
	log *log.Helper
}

// NewDonationService 创建捐赠服务实例
func NewDonationService(uc *biz.DonationUsecase, logger log.Logger) *DonationService {
	return &DonationService{
		uc:  uc,
		log: log.NewHelper(logger),
	}
}

type DonateRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Amount      float64 `json:"amount"` // whole currency units
	IsAnonymous bool    `json:"is_anonymous"`
}

type DonateReply struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
}

// Donate 创建捐赠 checkout session
func (s *DonationService) Donate(ctx context.Context, req *DonateRequest) (*DonateReply, error) {
	amountCents := int64(math.Round(req.Amount * 100))
	if amountCents <= 0 {
		return nil, kerrors.BadRequest("INVALID_AMOUNT", "Invalid donation amount")
	}

	url, err := s.uc.CreateDonation(ctx, req.Name, req.Email, amountCents, req.IsAnonymous)
	if err != nil {
		s.log.Errorf("Donation creation failed: %v", err)
		return nil, kerrors.InternalServer("DONATION_FAILED", "Failed to create donation")
	}
	return &DonateReply{Success: true, URL: url}, nil
}

type WebhookReply struct {
	Received bool `json:"received"`
}

// StripeWebhook 处理支付回调 (raw body + signature header)
func (s *DonationService) StripeWebhook(ctx context.Context, payload []byte, signature string) (*WebhookReply, error) {
	if signature == "" {
		return nil, kerrors.BadRequest("MISSING_SIGNATURE", "Missing Stripe signature")
	}

	if err := s.uc.HandleWebhook(ctx, payload, signature); err != nil {
		s.log.Errorf("Stripe webhook handling failed: %v", err)
		return nil, kerrors.BadRequest("WEBHOOK_ERROR", err.Error())
	}
	return &WebhookReply{Received: true}, nil
}
