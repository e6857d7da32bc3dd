package zoho

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineuphq/lineup/models"
)

func TestSyncStagesCreatesFromPicklist(t *testing.T) {
	env := newTestEnv(t)
	env.seedIntegration("tenant-1", models.IntegrationConnected)
	env.handlePicklist([]string{"Not Contacted", "Attempted to Contact", "Qualified"})

	res, err := env.syncer.SyncStages(context.Background(), "tenant-1")
	require.NoError(t, err)

	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 3, res.Total)

	stages := env.stages.all()
	require.Len(t, stages, 3)

	byName := make(map[string]*models.HiringStage, len(stages))
	for _, s := range stages {
		byName[s.Name] = s
	}

	attempted := byName["Attempted to Contact"]
	require.NotNil(t, attempted)
	assert.Equal(t, "ATTEMPTED_TO_CONTACT", attempted.Key)
	assert.Equal(t, 1, attempted.Position)
	assert.Equal(t, stagePalette[1], attempted.Color)
}

func TestSyncStagesRefreshesPositionOnly(t *testing.T) {
	env := newTestEnv(t)
	env.seedIntegration("tenant-1", models.IntegrationConnected)

	env.stages.seed(&models.HiringStage{
		TenantID: "tenant-1",
		Name:     "Qualified",
		Key:      "QUALIFIED",
		Position: 0,
		Color:    "#123456",
	})

	env.handlePicklist([]string{"Not Contacted", "Qualified"})

	res, err := env.syncer.SyncStages(context.Background(), "tenant-1")
	require.NoError(t, err)

	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Updated)

	stages := env.stages.all()
	require.Len(t, stages, 2)

	for _, s := range stages {
		if s.Name == "Qualified" {
			assert.Equal(t, 1, s.Position, "existing stage position follows the picklist order")
			assert.Equal(t, "#123456", s.Color, "existing stage color is preserved")
		}
	}
}

func TestSyncStagesPaletteCycles(t *testing.T) {
	env := newTestEnv(t)
	env.seedIntegration("tenant-1", models.IntegrationConnected)

	names := make([]string, len(stagePalette)+1)
	for i := range names {
		names[i] = "Stage " + string(rune('A'+i))
	}

	env.handlePicklist(names)

	_, err := env.syncer.SyncStages(context.Background(), "tenant-1")
	require.NoError(t, err)

	stages := env.stages.all()
	require.Len(t, stages, len(stagePalette)+1)

	for _, s := range stages {
		if s.Position == len(stagePalette) {
			assert.Equal(t, stagePalette[0], s.Color, "color assignment wraps around the palette")
		}
	}
}
