package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"aura/backend/internal/models"
	"aura/backend/internal/repository"
	"aura/backend/internal/testutil"
	"aura/backend/pkg/cache"
	"aura/backend/pkg/errors"
	"aura/backend/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommunityReports(t *testing.T) {
	svc := NewCommunityService(repository.NewGormCommunityRepository(testutil.NewDB(t)))
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", models.ReportRequest{Platform: "x"})
	assert.True(t, errors.HasCode(err, errors.CodeValidation))

	report, err := svc.Create(ctx, "u1", models.ReportRequest{Platform: "facebook", IncidentType: "impersonation"})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{16}$`), report.ReporterHash)
	assert.Equal(t, "pending", report.Status)
	assert.True(t, report.IsPublic)

	_, err = svc.Create(ctx, "u1", models.ReportRequest{Platform: "x", IncidentType: "spam", IsPublic: boolp(false)})
	require.NoError(t, err)

	reports, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.NotContains(t, reports[0].ReporterHash, "u1")
}

func TestReporterHashVariesPerReport(t *testing.T) {
	at := time.Unix(0, 1700000000000000000)
	assert.NotEqual(t, reporterHash("u1", at), reporterHash("u1", at.Add(time.Nanosecond)))
	assert.Equal(t, reporterHash("u1", at), reporterHash("u1", at))
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.NotEmpty(t, c.Modules)
	assert.True(t, c.hasLesson("phishing", "phishing-1"))
	assert.False(t, c.hasLesson("phishing", "grooming-1"))

	_, err := ParseCatalog([]byte("modules:\n  - id: a\n  - id: a\n"))
	assert.Error(t, err)
}

func TestLearningComplete(t *testing.T) {
	svc := NewLearningService(nil, repository.NewGormLearningRepository(testutil.NewDB(t)), nil)
	ctx := context.Background()

	_, err := svc.Complete(ctx, "u1", models.CompleteLessonRequest{ModuleID: "phishing", LessonID: "nope"})
	assert.True(t, errors.HasCode(err, errors.CodeValidation))

	score := 90
	p, err := svc.Complete(ctx, "u1", models.CompleteLessonRequest{ModuleID: "phishing", LessonID: "phishing-1", Score: &score})
	require.NoError(t, err)
	assert.True(t, p.Completed)
	assert.NotNil(t, p.CompletedAt)

	again, err := svc.Complete(ctx, "u1", models.CompleteLessonRequest{ModuleID: "phishing", LessonID: "phishing-1"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)

	progress, err := svc.Progress(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, progress, 1)
}

func TestInsightsScoreAndCache(t *testing.T) {
	db := testutil.NewDB(t)
	threats := repository.NewGormThreatRepository(db)
	svc := NewInsightsService(
		threats,
		repository.NewGormEvidenceRepository(db),
		repository.NewGormContactRepository(db),
		repository.NewGormLearningRepository(db),
		cache.New[*models.SafetyInsights](cache.Options{TTL: time.Minute}),
	)
	ctx := context.Background()

	empty, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 100, empty.SafetyScore)
	assert.Nil(t, empty.LastThreatAt)

	for _, sev := range []models.Severity{models.SeverityCritical, models.SeverityHigh, models.SeverityLow} {
		require.NoError(t, threats.Create(ctx, &models.Threat{UserID: "u1", Type: models.ThreatThreat, Severity: sev, Content: "x"}))
	}

	cached, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, cached.TotalThreats)

	svc.Invalidate("u1")
	fresh, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.TotalThreats)
	assert.Equal(t, 3, fresh.UnresolvedThreats)
	assert.Equal(t, 100-20-10-2, fresh.SafetyScore)
	assert.Equal(t, 3, fresh.ByType[models.ThreatThreat])
	assert.NotNil(t, fresh.LastThreatAt)
}

func TestSummarizeClampsScore(t *testing.T) {
	threats := make([]models.Threat, 10)
	for i := range threats {
		threats[i] = models.Threat{Type: models.ThreatDoxxing, Severity: models.SeverityCritical}
	}
	threats[0].IsResolved = true

	s := summarize(threats)
	assert.Equal(t, 0, s.SafetyScore)
	assert.Equal(t, 1, s.ResolvedThreats)
	assert.Equal(t, 9, s.UnresolvedThreats)
}

func TestUserRegisterLogin(t *testing.T) {
	tokens, err := jwt.NewService("test-secret", time.Hour)
	require.NoError(t, err)
	svc := NewUserService(repository.NewGormUserRepository(testutil.NewDB(t)), tokens)
	ctx := context.Background()

	reg, err := svc.Register(ctx, models.RegisterRequest{Email: "amina@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Token)
	assert.NotEqual(t, "correct horse", reg.User.PasswordHash)

	claims, err := tokens.ValidateToken(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)

	_, err = svc.Register(ctx, models.RegisterRequest{Email: "AMINA@example.com", Password: "another one"})
	assert.True(t, errors.HasCode(err, errors.CodeConflict))

	_, err = svc.Login(ctx, models.LoginRequest{Email: "amina@example.com", Password: "wrong password"})
	assert.True(t, errors.HasCode(err, errors.CodeUnauthorized))

	login, err := svc.Login(ctx, models.LoginRequest{Email: "amina@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	me, err := svc.GetByID(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "amina@example.com", me.Email)
}
