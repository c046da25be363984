package data

import (
	"context"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/biz"
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/constants"
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
)

// donationRepo 捐赠仓库实现
type donationRepo struct {
	data *Data
	log  *log.Helper
}

// NewDonationRepo 创建捐赠仓库
func NewDonationRepo(data *Data, logger log.Logger) biz.DonationRepo {
	return &donationRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// CreateDonation 记录 pending 捐赠
func (r *donationRepo) CreateDonation(ctx context.Context, d *biz.Donation) error {
	m := &model.Donation{
		Name:            d.Name,
		Email:           d.Email,
		AmountCents:     d.AmountCents,
		Currency:        d.Currency,
		Status:          d.Status,
		StripeSessionID: d.StripeSessionID,
		IsAnonymous:     d.IsAnonymous,
	}
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		r.log.Errorf("Failed to create donation for session %s: %v", d.StripeSessionID, err)
		return err
	}
	d.ID = m.ID
	d.CreatedAt = m.CreatedAt
	return nil
}

// MarkSucceeded 按 session 更新捐赠为 succeeded (幂等)
func (r *donationRepo) MarkSucceeded(ctx context.Context, stripeSessionID, paymentIntentID string) error {
	if err := r.data.DB(ctx).Model(&model.Donation{}).
		Where("stripe_session_id = ?", stripeSessionID).
		Updates(map[string]interface{}{
			"status":            constants.DonationStatusSucceeded,
			"payment_intent_id": paymentIntentID,
		}).Error; err != nil {
		r.log.Errorf("Failed to mark donation succeeded for session %s: %v", stripeSessionID, err)
		return err
	}
	return nil
}
