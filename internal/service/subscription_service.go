package service

import (
	"context"
	"errors"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/biz"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// SubscriptionService 订阅相关接口
type SubscriptionService struct {
	uc        *biz.SubscriptionUsecase
	contentUc *biz.ContentUsecase
	log       *log.Helper
}

// NewSubscriptionService 创建订阅服务实例
func NewSubscriptionService(uc *biz.SubscriptionUsecase, contentUc *biz.ContentUsecase, logger log.Logger) *SubscriptionService {
	return &SubscriptionService{
		uc:        uc,
		contentUc: contentUc,
		log:       log.NewHelper(logger),
	}
}

type SignupRequest struct {
	PathID         uint64 `json:"path_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	DeliveryMethod string `json:"delivery_method"`
}

type SignupReply struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	CheckoutURL string `json:"checkout_url,omitempty"`
}

// Signup 注册订阅
func (s *SubscriptionService) Signup(ctx context.Context, req *SignupRequest) (*SignupReply, error) {
	if req.PathID == 0 || req.Name == "" {
		return nil, kerrors.BadRequest("MISSING_FIELDS", "Missing required fields")
	}
	if req.Email == "" && req.Phone == "" {
		return nil, kerrors.BadRequest("MISSING_CONTACT", "Email or phone required")
	}

	result, err := s.uc.Signup(ctx, req.PathID, req.Name, req.Email, req.Phone, req.DeliveryMethod)
	if err != nil {
		if errors.Is(err, biz.ErrAlreadySubscribed) {
			return nil, kerrors.BadRequest("ALREADY_SUBSCRIBED", "Already subscribed or subscription error")
		}
		s.log.Errorf("Signup failed for path %d: %v", req.PathID, err)
		return nil, kerrors.InternalServer("SIGNUP_FAILED", "Subscription creation failed")
	}

	return &SignupReply{
		Success:     true,
		Message:     "Subscription created. Reflections will start from tomorrow.",
		CheckoutURL: result.CheckoutURL,
	}, nil
}

type UnsubscribeRequest struct {
	Token string `json:"token"`
}

type UnsubscribeReply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Unsubscribe 退订
func (s *SubscriptionService) Unsubscribe(ctx context.Context, req *UnsubscribeRequest) (*UnsubscribeReply, error) {
	if req.Token == "" {
		return nil, kerrors.BadRequest("MISSING_TOKEN", "Missing token")
	}

	already, err := s.uc.Unsubscribe(ctx, req.Token)
	if err != nil {
		if errors.Is(err, biz.ErrSubscriptionNotFound) {
			return nil, kerrors.NotFound("SUBSCRIPTION_NOT_FOUND", "Subscription not found")
		}
		s.log.Errorf("Unsubscribe failed: %v", err)
		return nil, kerrors.InternalServer("UNSUBSCRIBE_FAILED", "Failed to unsubscribe")
	}

	msg := "Unsubscribed successfully"
	if already {
		msg = "Already unsubscribed"
	}
	return &UnsubscribeReply{Success: true, Message: msg}, nil
}

type TodaysPathRequest struct {
	Token string `json:"token"`
	Day   int    `json:"day"`
}

type TodaysPathReply struct {
	OK         bool   `json:"ok"`
	Message    string `json:"message,omitempty"`
	Snippet    string `json:"snippet,omitempty"`
	MeaningPb  string `json:"meaning_pb,omitempty"`
	MeaningEn  string `json:"meaning_en,omitempty"`
	Reflection string `json:"reflection,omitempty"`
	CanGoNext  bool   `json:"canGoNext"`
}

// TodaysPath 阅读页数据. Business misses reply ok=false with HTTP 200, the
// shape the reading page renders directly.
func (s *SubscriptionService) TodaysPath(ctx context.Context, req *TodaysPathRequest) (*TodaysPathReply, error) {
	if req.Token == "" || req.Day < 1 {
		return nil, kerrors.BadRequest("INVALID_LINK", "Invalid link")
	}

	reading, err := s.contentUc.ReadDay(ctx, req.Token, req.Day)
	switch {
	case errors.Is(err, biz.ErrNotSubscribed):
		return &TodaysPathReply{OK: false, Message: "Not subscribed"}, nil
	case errors.Is(err, biz.ErrNotYetAvailable):
		return &TodaysPathReply{OK: false, Message: "Available later"}, nil
	case errors.Is(err, biz.ErrContentNotFound):
		return &TodaysPathReply{OK: false, Message: "Content not found"}, nil
	case err != nil:
		s.log.Errorf("Failed to read day %d: %v", req.Day, err)
		return nil, kerrors.InternalServer("READ_FAILED", "Failed to load content")
	}

	return &TodaysPathReply{
		OK:         true,
		Snippet:    reading.Content.Snippet,
		MeaningPb:  reading.Content.MeaningPb,
		MeaningEn:  reading.Content.MeaningEn,
		Reflection: reading.Content.Reflection,
		CanGoNext:  reading.CanGoNext,
	}, nil
}

type ConfirmPaymentRequest struct {
	SessionID string `json:"session_id"`
}

type ConfirmPaymentReply struct {
	Success bool `json:"success"`
}

// ConfirmPayment 支付确认回跳
func (s *SubscriptionService) ConfirmPayment(ctx context.Context, req *ConfirmPaymentRequest) (*ConfirmPaymentReply, error) {
	if req.SessionID == "" {
		return nil, kerrors.BadRequest("MISSING_SESSION", "Missing session_id")
	}

	if err := s.uc.ConfirmPayment(ctx, req.SessionID); err != nil {
		if errors.Is(err, biz.ErrPaymentNotCompleted) {
			return nil, kerrors.BadRequest("PAYMENT_INCOMPLETE", "Payment not completed")
		}
		s.log.Errorf("Confirm payment failed for session %s: %v", req.SessionID, err)
		return nil, kerrors.InternalServer("CONFIRM_FAILED", "Failed to update subscription")
	}
	return &ConfirmPaymentReply{Success: true}, nil
}
