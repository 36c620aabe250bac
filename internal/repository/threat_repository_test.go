package repository

import (
	"context"
	"testing"
	"time"

	"aura/backend/internal/models"
	"aura/backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newThreat(userID, content string, at time.Time) *models.Threat {
	return &models.Threat{
		UserID:    userID,
		Type:      models.ThreatHarassment,
		Severity:  models.SeverityMedium,
		Content:   content,
		CreatedAt: at,
	}
}

func TestThreatListNewestFirst(t *testing.T) {
	repo := NewGormThreatRepository(testutil.NewDB(t))
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newThreat("u1", "old", base)))
	require.NoError(t, repo.Create(ctx, newThreat("u1", "new", base.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, newThreat("u2", "other", base.Add(2*time.Hour))))

	threats, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, threats, 2)
	assert.Equal(t, "new", threats[0].Content)
	assert.Equal(t, "old", threats[1].Content)
	assert.NotEmpty(t, threats[0].ID)
	assert.False(t, threats[0].IsResolved)

	empty, err := repo.ListByUser(ctx, "u3")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestThreatUpdate(t *testing.T) {
	repo := NewGormThreatRepository(testutil.NewDB(t))
	ctx := context.Background()

	threat := newThreat("u1", "you will regret this", time.Now())
	require.NoError(t, repo.Create(ctx, threat))

	resolved := true
	notes := "blocked the sender"
	sev := models.SeverityHigh
	updated, err := repo.Update(ctx, "u1", threat.ID, models.ThreatPatch{
		IsResolved: &resolved,
		Notes:      &notes,
		Severity:   &sev,
	})
	require.NoError(t, err)
	assert.True(t, updated.IsResolved)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, notes, *updated.Notes)
	assert.Equal(t, models.SeverityHigh, updated.Severity)
	assert.Equal(t, "you will regret this", updated.Content)
	assert.Equal(t, "u1", updated.UserID)
}

func TestThreatUpdateIsScopedToOwner(t *testing.T) {
	repo := NewGormThreatRepository(testutil.NewDB(t))
	ctx := context.Background()

	threat := newThreat("owner", "x", time.Now())
	require.NoError(t, repo.Create(ctx, threat))

	resolved := true
	_, err := repo.Update(ctx, "intruder", threat.ID, models.ThreatPatch{IsResolved: &resolved})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Update(ctx, "owner", "missing-id", models.ThreatPatch{IsResolved: &resolved})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestThreatResolutionIsOneWay(t *testing.T) {
	repo := NewGormThreatRepository(testutil.NewDB(t))
	ctx := context.Background()

	threat := newThreat("u1", "x", time.Now())
	require.NoError(t, repo.Create(ctx, threat))

	yes, no := true, false
	_, err := repo.Update(ctx, "u1", threat.ID, models.ThreatPatch{IsResolved: &yes})
	require.NoError(t, err)

	_, err = repo.Update(ctx, "u1", threat.ID, models.ThreatPatch{IsResolved: &no})
	assert.ErrorIs(t, err, ErrReopenResolved)

	again, err := repo.Update(ctx, "u1", threat.ID, models.ThreatPatch{IsResolved: &yes})
	require.NoError(t, err)
	assert.True(t, again.IsResolved)
}
