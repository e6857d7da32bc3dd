package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/lineuphq/lineup/models"
)

type WebhookRepository struct {
	db *sql.DB
}

func NewWebhookRepository(db *sql.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

func (r *WebhookRepository) Create(ctx context.Context, event *models.WebhookEvent) error {
	const q = `
		INSERT INTO webhook_events (id, tenant_id, provider, module, event, remote_id, data, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, q,
		event.ID,
		event.TenantID,
		event.Provider,
		event.Module,
		event.Event,
		event.RemoteID,
		nullableJSON(event.Data),
		event.ReceivedAt,
	)

	return err
}
