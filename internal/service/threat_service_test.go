package service

import (
	"context"
	"testing"

	"aura/backend/ai/aitest"
	"aura/backend/internal/models"
	"aura/backend/internal/repository"
	"aura/backend/internal/testutil"
	"aura/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingInvalidator struct {
	users []string
}

func (r *recordingInvalidator) Invalidate(userID string) { r.users = append(r.users, userID) }

func newThreatService(t *testing.T, reply string) (*ThreatService, *recordingInvalidator) {
	t.Helper()
	inv := &recordingInvalidator{}
	classifier := NewThreatClassifier(&aitest.Fake{Reply: reply}, nil)
	repo := repository.NewGormThreatRepository(testutil.NewDB(t))
	return NewThreatService(classifier, repo, inv, nil), inv
}

const threatReply = `{"isThreat":true,"type":"harassment","severity":"high","analysis":"repeated insults","recommendations":["block"]}`

func TestAnalyzeStoresOnlyThreats(t *testing.T) {
	ctx := context.Background()

	safe, inv := newThreatService(t, `{"isThreat":false,"type":"none","severity":"low","analysis":"friendly","recommendations":[]}`)
	resp, err := safe.Analyze(ctx, "u1", models.AnalyzeRequest{Message: "see you tomorrow"})
	require.NoError(t, err)
	assert.False(t, resp.IsThreat)
	assert.Nil(t, resp.Threat)
	assert.Empty(t, inv.users)

	list, err := safe.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAnalyzeRecordsThreat(t *testing.T) {
	ctx := context.Background()
	svc, inv := newThreatService(t, threatReply)

	resp, err := svc.Analyze(ctx, "u1", models.AnalyzeRequest{Message: "you are pathetic"})
	require.NoError(t, err)
	require.NotNil(t, resp.Threat)
	assert.Equal(t, models.ThreatHarassment, resp.Threat.Type)
	assert.Equal(t, "you are pathetic", resp.Threat.Content)
	require.NotNil(t, resp.Threat.Source)
	assert.Equal(t, "manual", *resp.Threat.Source)
	assert.False(t, resp.Threat.IsResolved)
	assert.Equal(t, []string{"u1"}, inv.users)

	source := "whatsapp"
	resp, err = svc.Analyze(ctx, "u1", models.AnalyzeRequest{Message: "again", Source: &source})
	require.NoError(t, err)
	assert.Equal(t, "whatsapp", *resp.Threat.Source)

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestAnalyzeRejectsEmptyMessage(t *testing.T) {
	svc, _ := newThreatService(t, threatReply)

	_, err := svc.Analyze(context.Background(), "u1", models.AnalyzeRequest{Message: " "})
	assert.True(t, errors.HasCode(err, errors.CodeValidation))
}

func TestUpdateThreat(t *testing.T) {
	ctx := context.Background()
	svc, _ := newThreatService(t, threatReply)

	resp, err := svc.Analyze(ctx, "u1", models.AnalyzeRequest{Message: "x"})
	require.NoError(t, err)
	id := resp.Threat.ID

	yes, no := true, false
	updated, err := svc.Update(ctx, "u1", id, models.ThreatPatch{IsResolved: &yes})
	require.NoError(t, err)
	assert.True(t, updated.IsResolved)

	_, err = svc.Update(ctx, "u1", id, models.ThreatPatch{IsResolved: &no})
	assert.True(t, errors.HasCode(err, errors.CodeValidation))

	_, err = svc.Update(ctx, "u2", id, models.ThreatPatch{IsResolved: &yes})
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))

	bad := models.Severity("extreme")
	_, err = svc.Update(ctx, "u1", id, models.ThreatPatch{Severity: &bad})
	assert.True(t, errors.HasCode(err, errors.CodeValidation))
}
