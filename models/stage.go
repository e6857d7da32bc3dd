package models

import (
	"context"
	"strings"
	"time"
)

// HiringStage is one step of a tenant's pipeline. Position mirrors the
// remote picklist order at last sync. Stages are matched by (tenant, name),
// so a rename in the remote system creates a new row rather than updating
// the old one.
type HiringStage struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	Position  int       `json:"position"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StageKey derives the stable key for a stage name: uppercased, with
// whitespace runs collapsed to single underscores.
func StageKey(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), "_"))
}

// StageRepository manages hiring pipeline stages.
type StageRepository interface {
	GetByName(ctx context.Context, tenantID, name string) (*HiringStage, error)
	Create(ctx context.Context, stage *HiringStage) error
	UpdatePosition(ctx context.Context, id string, position int) error
}
