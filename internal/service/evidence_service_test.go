package service

import (
	"context"
	"testing"

	"aura/backend/internal/models"
	"aura/backend/internal/repository"
	"aura/backend/internal/testutil"
	"aura/backend/pkg/crypto"
	"aura/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newEvidenceService(t *testing.T) (*EvidenceService, *gorm.DB) {
	t.Helper()
	keys, err := crypto.NewEphemeralKeyManager()
	require.NoError(t, err)
	db := testutil.NewDB(t)
	return NewEvidenceService(repository.NewGormEvidenceRepository(db), keys, nil), db
}

func TestEvidenceRoundTrip(t *testing.T) {
	svc, db := newEvidenceService(t)
	ctx := context.Background()
	content := "He said he would post my photos"

	item, err := svc.Create(ctx, "u1", models.EvidenceRequest{
		Type:     models.EvidenceChatLog,
		Title:    " Threat on chat ",
		Content:  &content,
		Metadata: map[string]any{"platform": "instagram", "count": 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "Threat on chat", item.Title)
	assert.Len(t, item.Hash, 64)
	assert.Contains(t, item.Metadata, "timestamp")

	// stored ciphertext is not the plaintext
	var stored models.EvidenceItem
	require.NoError(t, db.First(&stored, "id = ?", item.ID).Error)
	assert.NotEmpty(t, stored.ContentCipher)
	assert.NotContains(t, stored.ContentCipher, "photos")

	got, err := svc.Get(ctx, "u1", item.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Content)
	assert.Equal(t, content, *got.Content)
	assert.Equal(t, item.Hash, got.Hash)

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Content)
}

func TestEvidenceWithoutContent(t *testing.T) {
	svc, _ := newEvidenceService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, "u1", models.EvidenceRequest{Type: models.EvidenceNote, Title: "note"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "u1", item.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Content)
}

func TestEvidenceTamperDetected(t *testing.T) {
	svc, db := newEvidenceService(t)
	ctx := context.Background()
	content := "original"

	item, err := svc.Create(ctx, "u1", models.EvidenceRequest{Type: models.EvidenceNote, Title: "t", Content: &content})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.EvidenceItem{}).Where("id = ?", item.ID).Update("title", "changed").Error)

	_, err = svc.Get(ctx, "u1", item.ID)
	assert.True(t, errors.HasCode(err, errors.CodeInternal))
}

func TestEvidenceOwnerScope(t *testing.T) {
	svc, _ := newEvidenceService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, "u1", models.EvidenceRequest{Type: models.EvidenceImage, Title: "img"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "u2", item.ID)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
	assert.True(t, errors.HasCode(svc.Delete(ctx, "u2", item.ID), errors.CodeNotFound))
	require.NoError(t, svc.Delete(ctx, "u1", item.ID))
}

func TestEvidenceValidation(t *testing.T) {
	svc, _ := newEvidenceService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", models.EvidenceRequest{Type: "video", Title: "x"})
	assert.True(t, errors.HasCode(err, errors.CodeValidation))

	_, err = svc.Create(ctx, "u1", models.EvidenceRequest{Type: models.EvidenceNote})
	assert.True(t, errors.HasCode(err, errors.CodeValidation))
}
