package model

import "time"

// DeliveryLog 投递台账模型. Append-only; the unique (subscription_id, day_number)
// index is the dedup source of truth for the dispatch run.
type DeliveryLog struct {
	ID             uint64    `gorm:"primaryKey;column:delivery_log_id;autoIncrement"`
	SubscriptionID uint64    `gorm:"column:subscription_id;not null;uniqueIndex:uk_subscription_day;index:idx_subscription_id"`
	DayNumber      int       `gorm:"column:day_number;not null;uniqueIndex:uk_subscription_day"`
	DeliveryMethod string    `gorm:"column:delivery_method;type:varchar(16)"`
	DeliveryStatus string    `gorm:"column:delivery_status;type:enum('success','failed','skipped');not null"`
	Detail         string    `gorm:"column:detail;type:varchar(500)"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (DeliveryLog) TableName() string { return "delivery_logs" }
