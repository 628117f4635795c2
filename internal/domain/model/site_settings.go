package model

import "time"

// サイト設定（1行だけ）。Payloadはバージョン付きJSON
type SiteSettingsRecord struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Version   int       `gorm:"not null" json:"version"`
	Payload   string    `gorm:"type:jsonb;not null" json:"payload"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
