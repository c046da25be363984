package model

import "time"

// PathContent 每日内容模型
type PathContent struct {
	ID         uint64    `gorm:"primaryKey;column:path_content_id;autoIncrement"`
	PathID     uint64    `gorm:"column:path_id;not null;index:idx_path_id;uniqueIndex:uk_path_day"`
	DayNumber  int       `gorm:"column:day_number;not null;uniqueIndex:uk_path_day"`
	Snippet    string    `gorm:"column:snippet;type:text"`
	MeaningPb  string    `gorm:"column:meaning_pb;type:text"`  // Punjabi rendering
	MeaningEn  string    `gorm:"column:meaning_en;type:text"`  // English rendering
	Reflection string    `gorm:"column:reflection;type:text"`
	Active     bool      `gorm:"column:active;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (PathContent) TableName() string { return "path_contents" }
