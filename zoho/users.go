package zoho

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/lineuphq/lineup/models"
)

// remoteRoleToLocal maps remote CRM role names to tenant membership roles.
// Anything unrecognized gets the lowest-privilege recruiting role.
var remoteRoleToLocal = map[string]string{
	"CEO":           models.RoleAdmin,
	"Administrator": models.RoleAdmin,
	"Manager":       models.RoleHiringManager,
	"Standard":      models.RoleRecruiter,
}

// syncUsers imports remote CRM users as local users and tenant members.
// Inactive and deleted remote users are skipped, as are records without an
// email. Email is the cross-tenant identity key: when a user with that
// email already exists the record counts as updated but nothing is
// mutated (linking an existing user into the tenant is not implemented).
func (s *Syncer) syncUsers(ctx context.Context, tenantID string) (*models.SyncResult, error) {
	var remoteUsers []RemoteUser

	err := s.withToken(ctx, tenantID, func(token string) error {
		var ferr error
		remoteUsers, ferr = s.client.ListUsers(ctx, token)

		return ferr
	})
	if err != nil {
		s.markSyncError(ctx, tenantID, err)

		return nil, err
	}

	result := &models.SyncResult{}

	for _, remote := range remoteUsers {
		if !remote.Active() || remote.Email == "" {
			continue
		}

		result.Total++

		if err := s.importUser(ctx, tenantID, remote, result); err != nil {
			result.Errors++
			s.log.Warn("user record failed",
				zap.String("tenant_id", tenantID),
				zap.String("remote_id", remote.ID),
				zap.Error(err),
			)
		}
	}

	s.log.Info("user sync finished",
		zap.String("tenant_id", tenantID),
		zap.Int("imported", result.Imported),
		zap.Int("updated", result.Updated),
		zap.Int("errors", result.Errors),
		zap.Int("total", result.Total),
	)

	return result, nil
}

func (s *Syncer) importUser(ctx context.Context, tenantID string, remote RemoteUser, result *models.SyncResult) error {
	_, err := s.users.GetByEmail(ctx, remote.Email)
	if err == nil {
		result.Updated++

		return nil
	}

	if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	user := &models.User{
		Email:         remote.Email,
		Name:          remote.FullName,
		EmailVerified: false,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return err
	}

	role, ok := remoteRoleToLocal[remote.Role.Name]
	if !ok {
		role = models.RoleRecruiter
	}

	member := &models.TenantMember{
		TenantID: tenantID,
		UserID:   user.ID,
		Role:     role,
	}

	if err := s.members.Create(ctx, member); err != nil {
		return err
	}

	result.Imported++

	return nil
}
