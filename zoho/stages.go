package zoho

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/lineuphq/lineup/models"
)

// stagePalette supplies display colors for stages created from the remote
// picklist, cycling by picklist position.
var stagePalette = []string{
	"#6366F1",
	"#0EA5E9",
	"#10B981",
	"#F59E0B",
	"#EF4444",
	"#8B5CF6",
	"#14B8A6",
}

// syncStages mirrors the remote lead-status picklist into hiring stages.
// Existing stages (matched by tenant and name) only get their position
// refreshed; a stage renamed remotely shows up as a brand new stage here.
func (s *Syncer) syncStages(ctx context.Context, tenantID string) (*models.SyncResult, error) {
	var picklist []string

	err := s.withToken(ctx, tenantID, func(token string) error {
		var ferr error
		picklist, ferr = s.client.LeadStatusPicklist(ctx, token)

		return ferr
	})
	if err != nil {
		s.markSyncError(ctx, tenantID, err)

		return nil, err
	}

	result := &models.SyncResult{Total: len(picklist)}

	for position, name := range picklist {
		existing, err := s.stages.GetByName(ctx, tenantID, name)

		switch {
		case err == nil:
			if err := s.stages.UpdatePosition(ctx, existing.ID, position); err != nil {
				s.markSyncError(ctx, tenantID, err)

				return nil, err
			}

			result.Updated++

		case errors.Is(err, models.ErrNotFound):
			stage := &models.HiringStage{
				TenantID: tenantID,
				Name:     name,
				Key:      models.StageKey(name),
				Position: position,
				Color:    stagePalette[position%len(stagePalette)],
			}

			if err := s.stages.Create(ctx, stage); err != nil {
				s.markSyncError(ctx, tenantID, err)

				return nil, err
			}

			result.Imported++

		default:
			s.markSyncError(ctx, tenantID, err)

			return nil, err
		}
	}

	s.log.Info("stage sync finished",
		zap.String("tenant_id", tenantID),
		zap.Int("imported", result.Imported),
		zap.Int("updated", result.Updated),
		zap.Int("total", result.Total),
	)

	return result, nil
}
