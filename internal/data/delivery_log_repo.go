package data

import (
	"context"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/biz"
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
)

// deliveryLogRepo 投递台账仓库实现
type deliveryLogRepo struct {
	data *Data
	log  *log.Helper
}

// NewDeliveryLogRepo 创建投递台账仓库
func NewDeliveryLogRepo(data *Data, logger log.Logger) biz.DeliveryLogRepo {
	return &deliveryLogRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// HasDelivery 检查 (subscription, day) 是否已有台账记录
func (r *deliveryLogRepo) HasDelivery(ctx context.Context, subscriptionID uint64, day int) (bool, error) {
	var count int64
	err := r.data.DB(ctx).Model(&model.DeliveryLog{}).
		Where("subscription_id = ? AND day_number = ?", subscriptionID, day).
		Count(&count).Error
	if err != nil {
		r.log.Errorf("Failed to check delivery log for subscription %d day %d: %v", subscriptionID, day, err)
		return false, err
	}
	return count > 0, nil
}

// Append 追加一条台账记录. 唯一索引冲突映射为 biz.ErrDuplicateDelivery.
func (r *deliveryLogRepo) Append(ctx context.Context, entry *biz.DeliveryLog) error {
	m := &model.DeliveryLog{
		SubscriptionID: entry.SubscriptionID,
		DayNumber:      entry.DayNumber,
		DeliveryMethod: entry.DeliveryMethod,
		DeliveryStatus: entry.DeliveryStatus,
		Detail:         entry.Detail,
	}
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		if isDuplicateKey(err) {
			return biz.ErrDuplicateDelivery
		}
		r.log.Errorf("Failed to append delivery log for subscription %d day %d: %v", entry.SubscriptionID, entry.DayNumber, err)
		return err
	}
	entry.ID = m.ID
	entry.CreatedAt = m.CreatedAt
	return nil
}
