package model

import "time"

// カートの永続化コピー（セッションごとに1行）
type CartSnapshot struct {
	SessionID string    `gorm:"type:varchar(64);primaryKey" json:"session_id"`
	LinesJSON string    `gorm:"type:jsonb;not null;column:lines" json:"lines"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
