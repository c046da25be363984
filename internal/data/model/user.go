package model

import "time"

// User 用户模型
type User struct {
	ID        uint64    `gorm:"primaryKey;column:user_id;autoIncrement"`
	Name      string    `gorm:"column:name;type:varchar(100);not null"`
	Email     *string   `gorm:"column:email;type:varchar(255);uniqueIndex:uk_email"`
	Phone     *string   `gorm:"column:phone;type:varchar(32);uniqueIndex:uk_phone"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }
