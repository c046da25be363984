package model

import "time"

// Path 内容计划模型 (administrative, read-only to this service)
type Path struct {
	ID          uint64    `gorm:"primaryKey;column:path_id;autoIncrement"`
	Name        string    `gorm:"column:name;type:varchar(100);not null"`
	Description string    `gorm:"column:description"`
	ContentType string    `gorm:"column:content_type;type:enum('progressive','daily');not null"` // progressive, daily
	TotalDays   int       `gorm:"column:total_days;default:0"`                                    // 0 = unbounded
	IsPaid      bool      `gorm:"column:is_paid;default:false"`
	PriceCents  int64     `gorm:"column:price_cents;default:0"`
	Currency    string    `gorm:"column:currency;type:varchar(10);default:'CAD'"`
	Active      bool      `gorm:"column:active;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Path) TableName() string { return "paths" }
