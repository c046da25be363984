package constants

import "time"

// 订阅状态 / subscription status
const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// 投递方式 / delivery methods
const (
	DeliveryMethodEmail = "email"
	DeliveryMethodSMS   = "sms"
)

// Path content types
const (
	// ContentTypeProgressive delivers a numbered sequence bounded by total_days.
	ContentTypeProgressive = "progressive"
	// ContentTypeDaily delivers one rotating item shared by all subscribers.
	ContentTypeDaily = "daily"
)

// Delivery ledger statuses
const (
	DeliveryStatusSuccess = "success"
	DeliveryStatusFailed  = "failed"
	DeliveryStatusSkipped = "skipped"
)

// Donation payment statuses (mirrors Stripe checkout outcomes)
const (
	DonationStatusPending   = "pending"
	DonationStatusSucceeded = "succeeded"
)

// Dispatch run constants
const (
	// DispatchLockKey is the redsync mutex name serializing daily runs.
	DispatchLockKey = "cron:daily_dispatch"
	// DispatchLockRetries 只尝试一次, 如果失败说明正在处理
	DispatchLockRetries = 1
	// DefaultWorkerCount bounds concurrent per-subscription dispatch.
	DefaultWorkerCount = 8
)

// 缓存相关常量
const (
	// DailyContentCacheExpiration 每日内容缓存过期时间
	DailyContentCacheExpiration = 5 * time.Minute
	// DailyContentCacheKeyPrefix redis key prefix for daily path content
	DailyContentCacheKeyPrefix = "path_content:daily:"
)
