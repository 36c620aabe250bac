package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"aura/backend/ai"
	"aura/backend/ai/aitest"
	"aura/backend/internal/testutil"
	"aura/backend/pkg/config"
	"aura/backend/pkg/di"
	"aura/backend/pkg/logger"
	"aura/backend/pkg/secrets"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, provider ai.Provider) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Load()
	cfg.Server.Env = "test"
	cfg.JWT.Secret = "router-test-secret"
	cfg.Redis.URL = ""
	cfg.Vault.Enabled = false
	cfg.Evidence.MasterKey = ""
	cfg.Observability.OpenAPISchemaPath = ""
	cfg.Security.RateLimit = 1000
	cfg.Security.RateLimitBurst = 1000
	cfg.Security.AllowedOrigins = []string{"https://app.example"}

	container, err := di.New(context.Background(), cfg, testutil.NewDB(t), logger.NewNop(),
		di.WithSecrets(secrets.StaticManager{}),
		di.WithProvider(provider),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Telemetry.Shutdown(context.Background()) })

	r := New(container)
	r.SetupRoutes()
	return r
}

func doJSON(t *testing.T, r *Router, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, r *Router, email string) string {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    email,
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Error.Code
}

func TestHealthReportsComponents(t *testing.T) {
	r := newTestRouter(t, nil)
	r.Container.Health.RunChecks(context.Background())

	for _, path := range []string{"/health", "/api/health"} {
		w := doJSON(t, r, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Status     string `json:"status"`
			Components map[string]struct {
				Status string `json:"status"`
			} `json:"components"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "up", resp.Components["database"].Status)
		assert.Equal(t, "degraded", resp.Components["llm"].Status)
		assert.Equal(t, "up", resp.Components["websocket"].Status)
	}
}

func TestAuthFlow(t *testing.T) {
	r := newTestRouter(t, nil)
	token := register(t, r, "ada@example.com")

	w := doJSON(t, r, http.MethodGet, "/api/auth/user", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"ada@example.com"`)
	assert.NotContains(t, w.Body.String(), "correct-horse")

	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "ada@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))

	w = doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "ada@example.com",
		"password": "correct-horse",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t, nil)

	for _, path := range []string{"/api/threats", "/api/evidence", "/api/insights", "/api/companion/chat"} {
		w := doJSON(t, r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, w), path)
	}

	w := doJSON(t, r, http.MethodGet, "/api/threats", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSchemaValidationRejectsBadBody(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "short@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = doJSON(t, r, http.MethodGet, "/api/docs/openapi.yaml", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/threats/analyze")
}

func TestAnalyzeStoresThreat(t *testing.T) {
	fake := &aitest.Fake{Reply: `{"isThreat":true,"type":"harassment","severity":"high","analysis":"Repeated insults","recommendations":["Block the sender"]}`}
	r := newTestRouter(t, fake)
	token := register(t, r, "grace@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/threats/analyze", token, gin.H{"message": "you are worthless"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var verdict struct {
		IsThreat bool `json:"isThreat"`
		Threat   *struct {
			ID     string `json:"id"`
			Source string `json:"source"`
		} `json:"threat"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verdict))
	assert.True(t, verdict.IsThreat)
	require.NotNil(t, verdict.Threat)
	assert.Equal(t, "manual", verdict.Threat.Source)

	w = doJSON(t, r, http.MethodGet, "/api/threats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var threats []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &threats))
	assert.Len(t, threats, 1)

	w = doJSON(t, r, http.MethodPatch, "/api/threats/"+verdict.Threat.ID, token, gin.H{"isResolved": true})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/api/threats/unknown-id", token, gin.H{"isResolved": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestCompanionChatWithoutCredential(t *testing.T) {
	r := newTestRouter(t, nil)
	token := register(t, r, "lin@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/companion/chat", token, gin.H{"message": "hello"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Response string           `json:"response"`
		Messages []map[string]any `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Response)
	assert.Len(t, resp.Messages, 2)

	w = doJSON(t, r, http.MethodGet, "/api/companion/chat", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"content":"hello"`)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/threats/abc", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")

	req = httptest.NewRequest(http.MethodOptions, "/api/threats", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
