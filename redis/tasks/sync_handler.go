package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/lineuphq/lineup/models"
	"github.com/lineuphq/lineup/zoho"
)

// CRMSyncer is the slice of the sync engine the consumer dispatches to.
type CRMSyncer interface {
	SyncAll(ctx context.Context, tenantID, module string, since *time.Time) (*models.SyncReport, error)
	SyncStages(ctx context.Context, tenantID string) (*models.SyncResult, error)
	SyncUsers(ctx context.Context, tenantID string) (*models.SyncResult, error)
	SyncCandidates(ctx context.Context, tenantID, module string, since *time.Time) (*models.SyncResult, error)
	DemandDrivenSync(ctx context.Context, tenantID, module string) (*models.SyncReport, error)
}

// SyncHandler consumes queued crm:sync tasks and dispatches them to the
// sync engine. An unrecoverable failure marks the tenant's integration
// errored; the queue's retry policy decides what happens next.
type SyncHandler struct {
	syncer       CRMSyncer
	integrations models.IntegrationRepository
	log          *zap.Logger
}

func NewSyncHandler(syncer CRMSyncer, integrations models.IntegrationRepository, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		syncer:       syncer,
		integrations: integrations,
		log:          logger.Named("tasks.sync"),
	}
}

// Register attaches the handler to a mux.
func (h *SyncHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeCRMSync, h.ProcessTask)
}

func (h *SyncHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload SyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal sync payload: %v: %w", err, asynq.SkipRetry)
	}

	if payload.TenantID == "" {
		return fmt.Errorf("sync payload has no tenant id: %w", asynq.SkipRetry)
	}

	h.log.Info("processing sync job",
		zap.String("tenant_id", payload.TenantID),
		zap.String("module", payload.Module),
		zap.String("type", payload.Type),
	)

	err := h.dispatch(ctx, payload)
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, zoho.ErrAuthRequired):
		// The integration is already in auth_required; retrying against a
		// revoked credential is pointless until a human reconnects.
		h.log.Warn("sync job dropped: tenant must reconnect",
			zap.String("tenant_id", payload.TenantID))

		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)

	case errors.Is(err, zoho.ErrNotConfigured):
		// Configuration errors never heal through retries.
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)

	case errors.Is(err, zoho.ErrSyncInProgress):
		// Another worker owns this tenant right now; let asynq redeliver.
		return err

	default:
		if uerr := h.integrations.UpdateStatus(ctx, payload.TenantID, zoho.Provider,
			models.IntegrationError, err.Error()); uerr != nil && !errors.Is(uerr, models.ErrNotFound) {
			h.log.Error("failed to mark integration errored",
				zap.String("tenant_id", payload.TenantID), zap.Error(uerr))
		}

		h.log.Error("sync job failed",
			zap.String("tenant_id", payload.TenantID),
			zap.String("module", payload.Module),
			zap.Error(err),
		)

		return err
	}
}

func (h *SyncHandler) dispatch(ctx context.Context, payload SyncPayload) error {
	// A full request, or one spanning all modules, always runs a complete
	// sync from scratch.
	if payload.Type == SyncTypeFull || payload.Module == zoho.ModuleAll {
		_, err := h.syncer.SyncAll(ctx, payload.TenantID, payload.Module, nil)

		return err
	}

	switch payload.Module {
	case zoho.ModuleStages:
		_, err := h.syncer.SyncStages(ctx, payload.TenantID)

		return err
	case zoho.ModuleUsers:
		_, err := h.syncer.SyncUsers(ctx, payload.TenantID)

		return err
	case zoho.ModuleLeads, zoho.ModuleContacts:
		since, err := h.lastSyncedAt(ctx, payload.TenantID)
		if err != nil {
			return err
		}

		_, err = h.syncer.SyncCandidates(ctx, payload.TenantID, payload.Module, since)

		return err
	default:
		// User-triggered requests without a recognized module run the
		// demand-driven path: delta from the last successful sync, full
		// when the tenant has never synced.
		_, err := h.syncer.DemandDrivenSync(ctx, payload.TenantID, zoho.ModuleLeads)

		return err
	}
}

// lastSyncedAt decides delta versus full for a single-entity candidate
// sync: delta from the last successful sync when one exists.
func (h *SyncHandler) lastSyncedAt(ctx context.Context, tenantID string) (*time.Time, error) {
	integration, err := h.integrations.Get(ctx, tenantID, zoho.Provider)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, zoho.ErrNotConfigured
		}

		return nil, err
	}

	return integration.LastSyncedAt, nil
}
