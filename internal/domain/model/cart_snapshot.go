package model

import "time"

// 保存スロット（key 1つに カートのJSON 1つ）
type CartSnapshot struct {
	Key       string    `gorm:"column:slot_key;primaryKey;type:varchar(255)" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}
