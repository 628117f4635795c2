package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAuditLog_WithSnapshots(t *testing.T) {
	at := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		before     interface{}
		after      interface{}
		wantBefore string
		wantAfter  string
	}{
		{name: "nil stays empty", before: nil, after: nil},
		{
			name:       "struct marshalled",
			before:     map[string]OrderStatus{"status": OrderStatusPending},
			after:      map[string]OrderStatus{"status": OrderStatusPreparing},
			wantBefore: `{"status":"pending"}`,
			wantAfter:  `{"status":"preparing"}`,
		},
		{
			name:       "raw bytes kept",
			before:     []byte(`{"a":1}`),
			after:      json.RawMessage(`{"a":2}`),
			wantBefore: `{"a":1}`,
			wantAfter:  `{"a":2}`,
		},
		{name: "unmarshalable dropped", before: func() {}, wantBefore: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewOrderAudit("staff-1", AuditActionDismissOrder, "o1", at).WithSnapshots(tt.before, tt.after)

			assert.Equal(t, tt.wantBefore, got.BeforeJSON)
			assert.Equal(t, tt.wantAfter, got.AfterJSON)
			assert.Equal(t, AuditResourceOrder, got.ResourceType)
			assert.Equal(t, "o1", got.ResourceID)
			assert.True(t, got.CreatedAt.Equal(at))
		})
	}
}

func TestNewSettingsAudit(t *testing.T) {
	got := NewSettingsAudit("owner-1", time.Unix(0, 0))

	assert.Equal(t, AuditActionUpdateSettings, got.Action)
	assert.Equal(t, AuditResourceSettings, got.ResourceType)
	assert.Equal(t, SettingsResourceID, got.ResourceID)
}

func TestAuditAction_Valid(t *testing.T) {
	assert.True(t, AuditActionDeleteOrder.Valid())
	assert.False(t, AuditAction("DROP_TABLE").Valid())
}
