package models

import (
	"context"
	"encoding/json"
	"time"
)

// WebhookEvent is an audit record of a raw CRM webhook delivery. Events are
// persisted as-is and do not themselves trigger a sync.
type WebhookEvent struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenant_id"`
	Provider   string          `json:"provider"`
	Module     string          `json:"module"`
	Event      string          `json:"event"`
	RemoteID   string          `json:"remote_id,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
}

// WebhookRepository persists webhook audit records.
type WebhookRepository interface {
	Create(ctx context.Context, event *WebhookEvent) error
}
