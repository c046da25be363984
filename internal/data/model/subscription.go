package model

import "time"

// Subscription 用户订阅模型
type Subscription struct {
	ID               uint64    `gorm:"primaryKey;column:subscription_id;autoIncrement"`
	UserID           uint64    `gorm:"column:user_id;not null;uniqueIndex:uk_user_path;index:idx_user_id"`
	PathID           uint64    `gorm:"column:path_id;not null;uniqueIndex:uk_user_path"`
	Status           string    `gorm:"column:status;type:enum('active','cancelled','completed');default:'active'"`
	CurrentDay       int       `gorm:"column:current_day;not null;default:0"`
	DeliveryMethod   string    `gorm:"column:delivery_method;type:enum('email','sms');not null"`
	SecureToken      string    `gorm:"column:secure_token;type:varchar(36);not null;uniqueIndex:uk_secure_token"`
	UnsubscribeToken string    `gorm:"column:unsubscribe_token;type:varchar(36);not null;uniqueIndex:uk_unsubscribe_token"`
	IsPaid           bool      `gorm:"column:is_paid;default:false"`
	StartDate        time.Time `gorm:"column:start_date"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Subscription) TableName() string { return "subscriptions" }
