package zoho

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lineuphq/lineup/models"
)

// leadStatusToStage maps remote lead statuses onto local pipeline stages.
// Unknown or missing statuses land in the initial applied stage.
var leadStatusToStage = map[string]string{
	"Not Contacted":        models.StageApplied,
	"Attempted to Contact": "SCREENING",
	"Contacted":            "SCREENING",
	"Contact in Future":    models.StageApplied,
	"Pre-Qualified":        "INTERVIEW",
	"Qualified":            "INTERVIEW",
	"Not Qualified":        "REJECTED",
	"Junk Lead":            "REJECTED",
	"Lost Lead":            "REJECTED",
}

// syncCandidates reconciles one remote module (leads or contacts) into
// local candidates. since restricts the fetch to records modified at or
// after that instant; nil fetches everything. Per-record failures are
// counted and logged without aborting the batch; a batch-level failure
// marks the integration errored and propagates.
func (s *Syncer) syncCandidates(ctx context.Context, tenantID, module string, since *time.Time) (*models.SyncResult, error) {
	remoteModule, err := remoteModuleName(module)
	if err != nil {
		return nil, err
	}

	var records []Record

	err = s.withToken(ctx, tenantID, func(token string) error {
		var ferr error

		if since == nil {
			records, ferr = s.client.ListRecords(ctx, token, remoteModule)
		} else {
			records, ferr = s.client.QueryRecords(ctx, token, DeltaQuery(remoteModule, *since))
		}

		return ferr
	})
	if err != nil {
		s.markSyncError(ctx, tenantID, err)

		return nil, err
	}

	mapping, err := s.mapper.Mapping(ctx, tenantID, module)
	if err != nil {
		s.markSyncError(ctx, tenantID, err)

		return nil, err
	}

	result := &models.SyncResult{Total: len(records)}

	for _, record := range records {
		if err := s.reconcileRecord(ctx, tenantID, module, record, mapping, result); err != nil {
			result.Errors++
			s.log.Warn("candidate record failed",
				zap.String("tenant_id", tenantID),
				zap.String("module", module),
				zap.String("remote_id", stringField(record, "id")),
				zap.Error(err),
			)
		}
	}

	now := time.Now().UTC()

	if err := s.integrations.TouchLastSynced(ctx, tenantID, Provider, now); err != nil {
		s.log.Warn("failed to stamp last_synced_at", zap.String("tenant_id", tenantID), zap.Error(err))
	}

	if err := s.integrations.UpdateStatus(ctx, tenantID, Provider, models.IntegrationConnected, ""); err != nil {
		s.log.Warn("failed to reset integration status", zap.String("tenant_id", tenantID), zap.Error(err))
	}

	s.log.Info("candidate sync finished",
		zap.String("tenant_id", tenantID),
		zap.String("module", module),
		zap.Int("imported", result.Imported),
		zap.Int("updated", result.Updated),
		zap.Int("errors", result.Errors),
		zap.Int("total", result.Total),
	)

	return result, nil
}

// reconcileRecord matches one remote record to a local candidate (external
// identity first, then email) and merges or creates accordingly.
func (s *Syncer) reconcileRecord(ctx context.Context, tenantID, module string, record Record, mapping map[string]string, result *models.SyncResult) error {
	mapped := ApplyMapping(record, mapping)

	externalID := stringField(record, "id")
	if externalID == "" {
		return errors.New("remote record has no id")
	}

	stage := models.StageApplied
	if module == ModuleLeads {
		if mappedStage, ok := leadStatusToStage[stringField(record, "Lead_Status")]; ok {
			stage = mappedStage
		}
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize remote payload: %w", err)
	}

	existing, err := s.findExisting(ctx, tenantID, externalID, mapped.Email)
	if err != nil {
		return err
	}

	if existing == nil {
		candidate := &models.Candidate{
			TenantID:       tenantID,
			Name:           mapped.Name,
			Email:          mapped.Email,
			Phone:          mapped.Phone,
			RoleTitle:      mapped.RoleTitle,
			Stage:          stage,
			Source:         sourceTag(module),
			ExternalID:     externalID,
			ExternalSource: Provider,
			RawPayload:     raw,
			Tags:           []string{sourceTag(module)},
		}

		if err := s.candidates.Create(ctx, candidate); err != nil {
			return err
		}

		result.Imported++

		return nil
	}

	// Merge: only overwrite with non-empty incoming values so a locally
	// richer record is never nulled out.
	if mapped.Name != "" {
		existing.Name = mapped.Name
	}
	if mapped.Phone != "" {
		existing.Phone = mapped.Phone
	}
	if mapped.RoleTitle != "" {
		existing.RoleTitle = mapped.RoleTitle
	}
	if mapped.Email != "" && existing.Email == "" {
		existing.Email = mapped.Email
	}

	existing.ExternalID = externalID
	existing.ExternalSource = Provider
	existing.RawPayload = raw

	// Leads only: the inferred stage replaces the local one only while the
	// candidate is still in an early marker stage. A pipeline position a
	// recruiter has advanced is never clobbered by a re-sync.
	if module == ModuleLeads && overridableStage(existing.Stage) {
		existing.Stage = stage
	}

	if err := s.candidates.Update(ctx, existing); err != nil {
		return err
	}

	result.Updated++

	return nil
}

func (s *Syncer) findExisting(ctx context.Context, tenantID, externalID, email string) (*models.Candidate, error) {
	existing, err := s.candidates.GetByExternalID(ctx, tenantID, externalID, Provider)
	if err == nil {
		return existing, nil
	}

	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	if email == "" {
		return nil, nil
	}

	existing, err = s.candidates.GetByEmail(ctx, tenantID, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return existing, nil
}

func overridableStage(stage string) bool {
	return stage == models.StageApplied || stage == models.StageImported
}

func remoteModuleName(module string) (string, error) {
	switch module {
	case ModuleLeads:
		return "Leads", nil
	case ModuleContacts:
		return "Contacts", nil
	default:
		return "", fmt.Errorf("unknown candidate module %q", module)
	}
}

func sourceTag(module string) string {
	if module == ModuleContacts {
		return "zoho-contact"
	}

	return "zoho-lead"
}
