package biz

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateDelivery 台账已存在该 (subscription, day) 记录
var ErrDuplicateDelivery = errors.New("delivery already recorded")

// DeliveryLog 投递台账记录. Append-only: the run writes at most one row per
// (subscription, day) and never updates or deletes existing rows.
type DeliveryLog struct {
	ID             uint64
	SubscriptionID uint64
	DayNumber      int
	DeliveryMethod string
	DeliveryStatus string // success, failed, skipped
	Detail         string
	CreatedAt      time.Time
}

// DeliveryLogRepo 数据层接口
type DeliveryLogRepo interface {
	// HasDelivery reports whether a ledger row exists at (subscriptionID, day).
	HasDelivery(ctx context.Context, subscriptionID uint64, day int) (bool, error)
	// Append inserts one ledger row. A uniqueness collision on
	// (subscription_id, day_number) returns ErrDuplicateDelivery.
	Append(ctx context.Context, entry *DeliveryLog) error
}
