// Package tasks defines the queue task types and handlers for CRM sync jobs.
package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task types
const (
	TypeCRMSync = "crm:sync"
)

// Sync types carried in the payload.
const (
	SyncTypeFull   = "full"
	SyncTypeSingle = "single"
)

// SyncPayload is the queued request for one tenant's CRM sync.
type SyncPayload struct {
	TenantID string `json:"tenant_id"`
	Module   string `json:"module,omitempty"` // all|leads|contacts|stages|users
	Type     string `json:"type,omitempty"`   // full|single
}

// CreateSyncTask creates a queue task for the given sync request.
func CreateSyncTask(payload *SyncPayload) (*asynq.Task, error) {
	if payload.TenantID == "" {
		return nil, fmt.Errorf("sync payload requires a tenant id")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sync payload: %w", err)
	}

	return asynq.NewTask(TypeCRMSync, data), nil
}
