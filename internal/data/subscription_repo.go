package data

import (
	"context"
	"errors"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/biz"
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/constants"
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const mysqlDuplicateEntry = 1062

// subscriptionRepo 订阅仓库实现
type subscriptionRepo struct {
	data *Data
	log  *log.Helper
}

// NewSubscriptionRepo 创建订阅仓库
func NewSubscriptionRepo(data *Data, logger log.Logger) biz.SubscriptionRepo {
	return &subscriptionRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// CreateSubscription 创建订阅. (user_id, path_id) 唯一约束保证一人一 path 一条.
func (r *subscriptionRepo) CreateSubscription(ctx context.Context, sub *biz.Subscription) error {
	m := &model.Subscription{
		UserID:           sub.UserID,
		PathID:           sub.PathID,
		Status:           sub.Status,
		CurrentDay:       sub.CurrentDay,
		DeliveryMethod:   sub.DeliveryMethod,
		SecureToken:      sub.SecureToken,
		UnsubscribeToken: sub.UnsubscribeToken,
		IsPaid:           sub.IsPaid,
		StartDate:        sub.StartDate,
	}
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		if isDuplicateKey(err) {
			return biz.ErrAlreadySubscribed
		}
		r.log.Errorf("Failed to create subscription for user %d path %d: %v", sub.UserID, sub.PathID, err)
		return err
	}
	sub.ID = m.ID
	sub.CreatedAt = m.CreatedAt
	sub.UpdatedAt = m.UpdatedAt
	return nil
}

// GetBySecureToken 按阅读 token 获取订阅
func (r *subscriptionRepo) GetBySecureToken(ctx context.Context, token string) (*biz.Subscription, error) {
	return r.getByToken(ctx, "secure_token", token)
}

// GetByUnsubscribeToken 按退订 token 获取订阅
func (r *subscriptionRepo) GetByUnsubscribeToken(ctx context.Context, token string) (*biz.Subscription, error) {
	return r.getByToken(ctx, "unsubscribe_token", token)
}

func (r *subscriptionRepo) getByToken(ctx context.Context, column, token string) (*biz.Subscription, error) {
	var m model.Subscription
	err := r.data.DB(ctx).Where(column+" = ?", token).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Errorf("Failed to get subscription by %s: %v", column, err)
		return nil, err
	}
	return toSubscription(&m), nil
}

// UpdateStatus 更新订阅状态
func (r *subscriptionRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	if err := r.data.DB(ctx).Model(&model.Subscription{}).
		Where("subscription_id = ?", id).
		Update("status", status).Error; err != nil {
		r.log.Errorf("Failed to update subscription %d status to %s: %v", id, status, err)
		return err
	}
	return nil
}

// MarkPaid 标记订阅已支付 (幂等)
func (r *subscriptionRepo) MarkPaid(ctx context.Context, userID, pathID uint64) error {
	if err := r.data.DB(ctx).Model(&model.Subscription{}).
		Where("user_id = ? AND path_id = ?", userID, pathID).
		Update("is_paid", true).Error; err != nil {
		r.log.Errorf("Failed to mark subscription paid for user %d path %d: %v", userID, pathID, err)
		return err
	}
	return nil
}

// AdvanceActiveDay 以单条语句推进所有 active 订阅的 current_day
func (r *subscriptionRepo) AdvanceActiveDay(ctx context.Context) (int64, error) {
	result := r.data.DB(ctx).Model(&model.Subscription{}).
		Where("status = ?", constants.StatusActive).
		UpdateColumn("current_day", gorm.Expr("current_day + 1"))
	if result.Error != nil {
		r.log.Errorf("Failed to advance active subscriptions: %v", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// dispatchRow is the scan target for the dispatch join.
type dispatchRow struct {
	SubscriptionID   uint64
	PathID           uint64
	PathName         string
	ContentType      string
	TotalDays        int
	CurrentDay       int
	DeliveryMethod   string
	SecureToken      string
	UnsubscribeToken string
	Email            *string
	Phone            *string
}

// ListActiveForDispatch 加载所有 active 订阅及其用户联系方式和 path 元数据
func (r *subscriptionRepo) ListActiveForDispatch(ctx context.Context) ([]*biz.DispatchSubscription, error) {
	var rows []dispatchRow
	err := r.data.DB(ctx).Table("subscriptions").
		Select(`subscriptions.subscription_id,
			subscriptions.path_id,
			subscriptions.current_day,
			subscriptions.delivery_method,
			subscriptions.secure_token,
			subscriptions.unsubscribe_token,
			paths.name AS path_name,
			paths.content_type,
			paths.total_days,
			users.email,
			users.phone`).
		Joins("JOIN users ON users.user_id = subscriptions.user_id").
		Joins("JOIN paths ON paths.path_id = subscriptions.path_id").
		Where("subscriptions.status = ?", constants.StatusActive).
		Scan(&rows).Error
	if err != nil {
		r.log.Errorf("Failed to list active subscriptions for dispatch: %v", err)
		return nil, err
	}

	subs := make([]*biz.DispatchSubscription, len(rows))
	for i, row := range rows {
		s := &biz.DispatchSubscription{
			SubscriptionID:   row.SubscriptionID,
			PathID:           row.PathID,
			PathName:         row.PathName,
			ContentType:      row.ContentType,
			TotalDays:        row.TotalDays,
			CurrentDay:       row.CurrentDay,
			DeliveryMethod:   row.DeliveryMethod,
			SecureToken:      row.SecureToken,
			UnsubscribeToken: row.UnsubscribeToken,
		}
		if row.Email != nil {
			s.Email = *row.Email
		}
		if row.Phone != nil {
			s.Phone = *row.Phone
		}
		subs[i] = s
	}
	return subs, nil
}

func toSubscription(m *model.Subscription) *biz.Subscription {
	return &biz.Subscription{
		ID:               m.ID,
		UserID:           m.UserID,
		PathID:           m.PathID,
		Status:           m.Status,
		CurrentDay:       m.CurrentDay,
		DeliveryMethod:   m.DeliveryMethod,
		SecureToken:      m.SecureToken,
		UnsubscribeToken: m.UnsubscribeToken,
		IsPaid:           m.IsPaid,
		StartDate:        m.StartDate,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
