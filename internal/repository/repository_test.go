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

func strPtr(s string) *string { return &s }

func TestEvidenceScopedByOwner(t *testing.T) {
	repo := NewGormEvidenceRepository(testutil.NewDB(t))
	ctx := context.Background()

	item := &models.EvidenceItem{
		UserID:        "u1",
		Type:          models.EvidenceNote,
		Title:         "note",
		ContentCipher: "sealed",
		Hash:          "abc",
		Metadata:      map[string]any{"timestamp": "2024-01-01T00:00:00Z"},
	}
	require.NoError(t, repo.Create(ctx, item))

	listed, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Empty(t, listed[0].ContentCipher)
	assert.Equal(t, "2024-01-01T00:00:00Z", listed[0].Metadata["timestamp"])

	got, err := repo.Get(ctx, "u1", item.ID)
	require.NoError(t, err)
	assert.Equal(t, "sealed", got.ContentCipher)

	_, err = repo.Get(ctx, "u2", item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "u2", item.ID), ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "u1", item.ID))
	n, err := repo.CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestContactsSinglePrimary(t *testing.T) {
	repo := NewGormContactRepository(testutil.NewDB(t))
	ctx := context.Background()

	first := &models.EmergencyContact{UserID: "u1", Name: "Sam", IsPrimary: true, CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, repo.Create(ctx, first))
	second := &models.EmergencyContact{UserID: "u1", Name: "Alex", IsPrimary: true}
	require.NoError(t, repo.Create(ctx, second))
	other := &models.EmergencyContact{UserID: "u2", Name: "Kim", IsPrimary: true}
	require.NoError(t, repo.Create(ctx, other))

	contacts, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "Alex", contacts[0].Name)
	assert.True(t, contacts[0].IsPrimary)
	assert.False(t, contacts[1].IsPrimary)

	updated, err := repo.Update(ctx, "u1", first.ID, func(c *models.EmergencyContact) error {
		c.IsPrimary = true
		c.Phone = strPtr("+100")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, updated.IsPrimary)

	contacts, err = repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	primaries := 0
	for _, c := range contacts {
		if c.IsPrimary {
			primaries++
			assert.Equal(t, first.ID, c.ID)
		}
	}
	assert.Equal(t, 1, primaries)

	u2, err := repo.ListByUser(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, u2[0].IsPrimary)

	_, err = repo.Update(ctx, "u2", first.ID, func(*models.EmergencyContact) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLearningUpsert(t *testing.T) {
	repo := NewGormLearningRepository(testutil.NewDB(t))
	ctx := context.Background()
	now := time.Now()
	score := 80

	p1, err := repo.Upsert(ctx, &models.LearningProgress{
		UserID: "u1", ModuleID: "m1", LessonID: "l1", Completed: true, Score: &score, CompletedAt: &now,
	})
	require.NoError(t, err)

	p2, err := repo.Upsert(ctx, &models.LearningProgress{
		UserID: "u1", ModuleID: "m1", LessonID: "l1", Completed: true, CompletedAt: &now,
	})
	require.NoError(t, err)

	assert.Equal(t, p1.ID, p2.ID)
	require.NotNil(t, p2.Score)
	assert.Equal(t, 80, *p2.Score)

	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	n, err := repo.CountCompleted(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestUserDuplicateEmail(t *testing.T) {
	repo := NewGormUserRepository(testutil.NewDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Email: "A@Example.com", PasswordHash: "h"}))
	err := repo.Create(ctx, &models.User{Email: "a@example.com ", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicate)

	u, err := repo.GetByEmail(ctx, "a@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, "user", u.Role)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommunityListPublic(t *testing.T) {
	repo := NewGormCommunityRepository(testutil.NewDB(t))
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	require.NoError(t, repo.Create(ctx, &models.CommunityReport{ReporterHash: "h1", Platform: "x", IncidentType: "spam", IsPublic: true, Status: "pending", CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &models.CommunityReport{ReporterHash: "h2", Platform: "y", IncidentType: "doxxing", IsPublic: false, Status: "pending"}))
	require.NoError(t, repo.Create(ctx, &models.CommunityReport{ReporterHash: "h3", Platform: "z", IncidentType: "threat", IsPublic: true, Status: "pending", CreatedAt: base.Add(time.Minute)}))

	reports, err := repo.ListPublic(ctx, 10)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "z", reports[0].Platform)
}
