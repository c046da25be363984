package biz

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

var (
	// ErrAlreadySubscribed 用户已订阅该 path
	ErrAlreadySubscribed = errors.New("already subscribed")
	// ErrPathNotFound path 不存在或未启用
	ErrPathNotFound = errors.New("path not found")
	// ErrSubscriptionNotFound 订阅不存在
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrPaymentNotCompleted checkout session 尚未完成支付
	ErrPaymentNotCompleted = errors.New("payment not completed")
)

// User 用户
type User struct {
	ID        uint64
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

// Path 内容计划
type Path struct {
	ID          uint64
	Name        string
	Description string
	ContentType string // progressive, daily
	TotalDays   int    // 0 = unbounded
	IsPaid      bool
	PriceCents  int64
	Currency    string
	Active      bool
}

// Subscription 用户订阅记录
type Subscription struct {
	ID               uint64
	UserID           uint64
	PathID           uint64
	Status           string // active, cancelled, completed
	CurrentDay       int
	DeliveryMethod   string // email, sms
	SecureToken      string
	UnsubscribeToken string
	IsPaid           bool
	StartDate        time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DispatchSubscription is the fixed join row the dispatch run operates on:
// one active subscription with its user contact and path metadata.
type DispatchSubscription struct {
	SubscriptionID   uint64
	PathID           uint64
	PathName         string
	ContentType      string
	TotalDays        int
	CurrentDay       int
	DeliveryMethod   string
	SecureToken      string
	UnsubscribeToken string
	Email            string
	Phone            string
}

// UserRepo 数据层接口
type UserRepo interface {
	// UpsertByContact creates the user or returns the existing one matched by
	// email (preferred) or phone, refreshing missing contact fields.
	UpsertByContact(ctx context.Context, name, email, phone string) (*User, error)
}

// PathRepo 数据层接口
type PathRepo interface {
	GetPath(ctx context.Context, id uint64) (*Path, error)
}

// SubscriptionRepo 数据层接口
type SubscriptionRepo interface {
	CreateSubscription(ctx context.Context, sub *Subscription) error
	GetBySecureToken(ctx context.Context, token string) (*Subscription, error)
	GetByUnsubscribeToken(ctx context.Context, token string) (*Subscription, error)
	UpdateStatus(ctx context.Context, id uint64, status string) error
	MarkPaid(ctx context.Context, userID, pathID uint64) error
	// AdvanceActiveDay increments current_day of every active subscription in
	// one statement and reports how many rows moved.
	AdvanceActiveDay(ctx context.Context) (int64, error)
	ListActiveForDispatch(ctx context.Context) ([]*DispatchSubscription, error)
}

// SignupResult 注册结果
type SignupResult struct {
	Subscription *Subscription
	// CheckoutURL is set for paid paths: the subscriber completes payment there.
	CheckoutURL string
}

// SubscriptionUsecase 订阅业务逻辑
type SubscriptionUsecase struct {
	tx            Transaction
	userRepo      UserRepo
	pathRepo      PathRepo
	subRepo       SubscriptionRepo
	email         EmailSender
	sms           SMSSender
	composer      *MessageComposer
	paymentClient PaymentClient
	log           *log.Helper
}

func NewSubscriptionUsecase(tx Transaction, userRepo UserRepo, pathRepo PathRepo, subRepo SubscriptionRepo,
	email EmailSender, sms SMSSender, composer *MessageComposer, paymentClient PaymentClient, logger log.Logger) *SubscriptionUsecase {
	return &SubscriptionUsecase{
		tx:            tx,
		userRepo:      userRepo,
		pathRepo:      pathRepo,
		subRepo:       subRepo,
		email:         email,
		sms:           sms,
		composer:      composer,
		paymentClient: paymentClient,
		log:           log.NewHelper(logger),
	}
}

// Signup enrolls a user in a path. The user row and the subscription are
// created in one transaction; the welcome message is best-effort.
func (uc *SubscriptionUsecase) Signup(ctx context.Context, pathID uint64, name, email, phone, deliveryMethod string) (*SignupResult, error) {
	if name == "" || pathID == 0 {
		return nil, fmt.Errorf("missing required fields")
	}
	if email == "" && phone == "" {
		return nil, fmt.Errorf("email or phone required")
	}
	if deliveryMethod != constants.DeliveryMethodEmail && deliveryMethod != constants.DeliveryMethodSMS {
		return nil, fmt.Errorf("unsupported delivery method: %s", deliveryMethod)
	}

	path, err := uc.pathRepo.GetPath(ctx, pathID)
	if err != nil {
		return nil, err
	}
	if path == nil || !path.Active {
		return nil, ErrPathNotFound
	}

	var sub *Subscription
	err = uc.tx.Exec(ctx, func(ctx context.Context) error {
		user, err := uc.userRepo.UpsertByContact(ctx, name, email, phone)
		if err != nil {
			return err
		}

		sub = &Subscription{
			UserID:           user.ID,
			PathID:           pathID,
			Status:           constants.StatusActive,
			CurrentDay:       0,
			DeliveryMethod:   deliveryMethod,
			SecureToken:      uuid.New().String(),
			UnsubscribeToken: uuid.New().String(),
			IsPaid:           false,
			StartDate:        time.Now().UTC(),
		}
		return uc.subRepo.CreateSubscription(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	result := &SignupResult{Subscription: sub}

	// 付费 path: 创建 Stripe checkout session
	if path.IsPaid {
		metadata := map[string]string{
			"user_id": strconv.FormatUint(sub.UserID, 10),
			"path_id": strconv.FormatUint(pathID, 10),
		}
		_, url, err := uc.paymentClient.CreateCheckoutSession(ctx, email, path.PriceCents, path.Currency, path.Name, metadata)
		if err != nil {
			uc.log.Errorf("Failed to create checkout session for user %d path %d: %v", sub.UserID, pathID, err)
			return nil, err
		}
		result.CheckoutURL = url
	}

	// 欢迎消息失败不影响注册结果
	uc.sendWelcome(ctx, email, phone, deliveryMethod)

	return result, nil
}

func (uc *SubscriptionUsecase) sendWelcome(ctx context.Context, email, phone, deliveryMethod string) {
	switch {
	case deliveryMethod == constants.DeliveryMethodEmail && email != "":
		subject, html := uc.composer.WelcomeEmail()
		if err := uc.email.SendEmail(ctx, email, subject, html); err != nil {
			uc.log.Warnf("Failed to send welcome email to %s: %v", email, err)
		}
	case deliveryMethod == constants.DeliveryMethodSMS && phone != "":
		if err := uc.sms.SendSMS(ctx, phone, uc.composer.WelcomeSMS()); err != nil {
			uc.log.Warnf("Failed to send welcome sms to %s: %v", phone, err)
		}
	}
}

// Unsubscribe cancels the subscription identified by its unsubscribe token.
// Idempotent: cancelling twice succeeds.
func (uc *SubscriptionUsecase) Unsubscribe(ctx context.Context, token string) (alreadyCancelled bool, err error) {
	if token == "" {
		return false, fmt.Errorf("missing token")
	}

	sub, err := uc.subRepo.GetByUnsubscribeToken(ctx, token)
	if err != nil {
		return false, err
	}
	if sub == nil {
		return false, ErrSubscriptionNotFound
	}
	if sub.Status == constants.StatusCancelled {
		return true, nil
	}

	if err := uc.subRepo.UpdateStatus(ctx, sub.ID, constants.StatusCancelled); err != nil {
		uc.log.Errorf("Failed to cancel subscription %d: %v", sub.ID, err)
		return false, err
	}
	return false, nil
}

// ConfirmPayment marks the subscription paid once its checkout session settled.
func (uc *SubscriptionUsecase) ConfirmPayment(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("missing session_id")
	}

	session, err := uc.paymentClient.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil || !session.Paid {
		return ErrPaymentNotCompleted
	}

	userID, err1 := strconv.ParseUint(session.Metadata["user_id"], 10, 64)
	pathID, err2 := strconv.ParseUint(session.Metadata["path_id"], 10, 64)
	if err1 != nil || err2 != nil {
		return fmt.Errorf("missing metadata")
	}

	// MarkPaid 幂等
	return uc.subRepo.MarkPaid(ctx, userID, pathID)
}
