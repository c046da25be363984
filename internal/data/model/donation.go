package model

import "time"

// Donation 捐赠记录模型
type Donation struct {
	ID              uint64    `gorm:"primaryKey;column:donation_id;autoIncrement"`
	Name            string    `gorm:"column:name;type:varchar(100)"`
	Email           string    `gorm:"column:email;type:varchar(255)"`
	AmountCents     int64     `gorm:"column:amount_cents;not null"`
	Currency        string    `gorm:"column:currency;type:varchar(10);not null"`
	Status          string    `gorm:"column:status;type:enum('pending','succeeded');default:'pending'"`
	StripeSessionID string    `gorm:"column:stripe_session_id;type:varchar(255);uniqueIndex:uk_stripe_session"`
	PaymentIntentID string    `gorm:"column:payment_intent_id;type:varchar(255)"`
	IsAnonymous     bool      `gorm:"column:is_anonymous;default:false"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Donation) TableName() string { return "donations" }
