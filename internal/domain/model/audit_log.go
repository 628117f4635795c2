package model

import (
	"encoding/json"
	"time"
)

// スタッフ操作の種類
type AuditAction string

const (
	AuditActionDismissOrder      AuditAction = "DISMISS_ORDER"
	AuditActionDeleteOrder       AuditAction = "DELETE_ORDER"
	AuditActionCreateManualOrder AuditAction = "CREATE_MANUAL_ORDER"
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	AuditActionUpdateSettings    AuditAction = "UPDATE_SETTINGS"
)

func (a AuditAction) Valid() bool {
	switch a {
	case AuditActionDismissOrder, AuditActionDeleteOrder, AuditActionCreateManualOrder,
		AuditActionUpdateOrderStatus, AuditActionUpdateSettings:
		return true
	}
	return false
}

type AuditResourceType string

const (
	AuditResourceOrder    AuditResourceType = "order"
	AuditResourceSettings AuditResourceType = "settings"
)

// サイト設定は1行しかないので固定ID
const SettingsResourceID = "site"

// スタッフが注文・設定に対して行った変更の記録
// before/after は JSON のまま持つ（スキーマは対象ごとに違う）
type AuditLog struct {
	ID           int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID  string            `gorm:"type:varchar(64);not null;index" json:"actor_user_id"`
	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   string            `gorm:"type:varchar(64);not null;index" json:"resource_id"`
	BeforeJSON   string            `gorm:"type:text" json:"before_json"`
	AfterJSON    string            `gorm:"type:text" json:"after_json"`
	CreatedAt    time.Time         `gorm:"not null;index" json:"created_at"`
}

func NewOrderAudit(actorUserID string, action AuditAction, orderID string, at time.Time) AuditLog {
	return AuditLog{
		ActorUserID:  actorUserID,
		Action:       action,
		ResourceType: AuditResourceOrder,
		ResourceID:   orderID,
		CreatedAt:    at,
	}
}

func NewSettingsAudit(actorUserID string, at time.Time) AuditLog {
	return AuditLog{
		ActorUserID:  actorUserID,
		Action:       AuditActionUpdateSettings,
		ResourceType: AuditResourceSettings,
		ResourceID:   SettingsResourceID,
		CreatedAt:    at,
	}
}

// WithSnapshots は before/after を JSON にして詰める。nil は空のまま。
// []byte / json.RawMessage はそのまま使う。
func (l AuditLog) WithSnapshots(before, after interface{}) AuditLog {
	l.BeforeJSON = snapshotJSON(before)
	l.AfterJSON = snapshotJSON(after)
	return l
}

func snapshotJSON(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case json.RawMessage:
		return string(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
