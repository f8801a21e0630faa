package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/grant-service/internal/api/http/handlers"
	"github.com/spec-kit/grant-service/internal/auth"
	"github.com/spec-kit/grant-service/internal/events"
	"github.com/spec-kit/grant-service/internal/observability"
	"github.com/spec-kit/grant-service/internal/persistence"
	"github.com/spec-kit/grant-service/internal/repository"
	"github.com/spec-kit/grant-service/internal/service"
)

type testServer struct {
	app     *fiber.App
	metrics *observability.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	metrics := observability.NewMetrics()

	users := repository.NewMemoryUserRepository()
	apps := repository.NewMemoryApplicationRepository()
	history := repository.NewMemoryApplicationHistoryRepository()
	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	revoked := auth.NewMemoryRevocationStore()

	appService := service.NewApplicationService(service.ApplicationDependencies{
		ApplicationRepo: apps,
		UserRepo:        users,
		HistoryRepo:     history,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
	})
	userService := service.NewUserService(users, dispatcher, logger)
	sessionService := service.NewSessionService(service.SessionDependencies{
		UserRepo:   users,
		Tokens:     tokens,
		Revocation: revoked,
		Logger:     logger,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("grant-service", "test", &persistence.Postgres{}, &persistence.Redis{}, metrics),
		Applications:   handlers.NewApplicationsHandler(appService),
		Users:          handlers.NewUsersHandler(userService),
		Sessions:       handlers.NewSessionHandler(sessionService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, users, revoked),
	})
	return &testServer{app: app, metrics: metrics}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func (s *testServer) login(t *testing.T, role string) string {
	t.Helper()
	status, env := s.do(t, fiber.MethodPost, "/session/login", "", `{"role":"`+role+`"}`)
	require.Equal(t, fiber.StatusOK, status)
	var session struct {
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.Auth.Token)
	return session.Auth.Token
}

type applicationBody struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	Stage         int     `json:"stage"`
	StageName     string  `json:"stage_name"`
	FinalDecision *string `json:"final_decision"`
	Comments      []struct {
		Message string `json:"message"`
	} `json:"comments"`
}

func decodeApplication(t *testing.T, env envelope) applicationBody {
	t.Helper()
	var app applicationBody
	require.NoError(t, json.Unmarshal(env.Data, &app))
	return app
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	status, _ := srv.do(t, fiber.MethodGet, "/health/live", "", "")
	assert.Equal(t, fiber.StatusOK, status)

	req := httptest.NewRequest(fiber.MethodGet, "/health/ready", nil)
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, "disabled", body.Dependencies["postgres"])
	assert.Equal(t, "disabled", body.Dependencies["redis"])
}

func TestApprovalFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	applicant := srv.login(t, "applicant")
	committee := srv.login(t, "Committee")
	dean := srv.login(t, "Dean")
	principal := srv.login(t, "Principal")

	status, env := srv.do(t, fiber.MethodPost, "/applications", applicant, `{"title":"Graph Neural Nets","publication_type":"Journal"}`)
	require.Equal(t, fiber.StatusCreated, status)
	app := decodeApplication(t, env)
	assert.Equal(t, "Pending", app.Status)
	assert.Equal(t, 0, app.Stage)

	status, env = srv.do(t, fiber.MethodPut, "/applications/"+app.ID+"/assessment", committee, `{"decision":"Approved","publication_incentive_applicable":true}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Dean Review", decodeApplication(t, env).Status)

	status, env = srv.do(t, fiber.MethodGet, "/applications?status=Dean%20Review", dean, "")
	require.Equal(t, fiber.StatusOK, status)
	var queue []applicationBody
	require.NoError(t, json.Unmarshal(env.Data, &queue))
	require.Len(t, queue, 1)
	assert.Equal(t, app.ID, queue[0].ID)

	status, env = srv.do(t, fiber.MethodPut, "/applications/"+app.ID+"/dean-recommendation", dean, `{"grant_amount":1500,"first_author_share":60}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Principal Review", decodeApplication(t, env).Status)

	status, env = srv.do(t, fiber.MethodPut, "/applications/"+app.ID+"/final-decision", principal, `{"decision":"Approved"}`)
	require.Equal(t, fiber.StatusOK, status)
	final := decodeApplication(t, env)
	assert.Equal(t, "Approved", final.Status)
	require.NotNil(t, final.FinalDecision)
	assert.Equal(t, "Approved", *final.FinalDecision)
	assert.Equal(t, 4, final.Stage)

	status, env = srv.do(t, fiber.MethodGet, "/applications/"+app.ID+"/history", applicant, "")
	require.Equal(t, fiber.StatusOK, status)
	var history []struct {
		NewStatus string `json:"new_status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	var path []string
	for _, h := range history {
		path = append(path, h.NewStatus)
	}
	assert.Equal(t, []string{"Pending", "Dean Review", "Principal Review", "Approved"}, path)

	assert.Equal(t, int64(1), srv.metrics.Snapshot().Transitions["Principal Review->Approved"])
}

func TestCommentsOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	applicant := srv.login(t, "Applicant")
	dean := srv.login(t, "Dean")

	_, env := srv.do(t, fiber.MethodPost, "/applications", applicant, `{"title":"Edge Caching"}`)
	app := decodeApplication(t, env)

	status, _ := srv.do(t, fiber.MethodPost, "/applications/"+app.ID+"/comments", dean, `{"message":"Please attach the acceptance letter."}`)
	require.Equal(t, fiber.StatusCreated, status)

	status, env = srv.do(t, fiber.MethodPost, "/applications/"+app.ID+"/comments", dean, `{"message":"   "}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	status, env = srv.do(t, fiber.MethodGet, "/applications/"+app.ID, applicant, "")
	require.Equal(t, fiber.StatusOK, status)
	got := decodeApplication(t, env)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "Please attach the acceptance letter.", got.Comments[0].Message)
}

func TestErrorEnvelopes(t *testing.T) {
	srv := newTestServer(t)
	applicant := srv.login(t, "Applicant")
	committee := srv.login(t, "Committee")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		status int
		code   string
	}{
		{"no token", fiber.MethodGet, "/applications", "", "", fiber.StatusUnauthorized, "INVALID_ACTOR"},
		{"bad token", fiber.MethodGet, "/applications", "garbage", "", fiber.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong role", fiber.MethodPost, "/applications", committee, `{"title":"x"}`, fiber.StatusForbidden, "FORBIDDEN"},
		{"unknown application", fiber.MethodGet, "/applications/missing", applicant, "", fiber.StatusNotFound, "NOT_FOUND"},
		{"bad decision", fiber.MethodPut, "/applications/missing/assessment", committee, `{"decision":"Maybe"}`, fiber.StatusBadRequest, "VALIDATION_FAILED"},
		{"bad status filter", fiber.MethodGet, "/applications?status=Lost", applicant, "", fiber.StatusBadRequest, "VALIDATION_FAILED"},
		{"bad role on login", fiber.MethodPost, "/session/login", "", `{"role":"Janitor"}`, fiber.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown route", fiber.MethodGet, "/nowhere", "", "", fiber.StatusNotFound, "NOT_FOUND"},
		{"users need admin", fiber.MethodGet, "/users", applicant, "", fiber.StatusForbidden, "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := srv.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, status)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestUnknownRoleListsAllowedRoles(t *testing.T) {
	srv := newTestServer(t)

	status, env := srv.do(t, fiber.MethodPost, "/session/login", "", `{"role":"Janitor"}`)
	require.Equal(t, fiber.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Janitor", env.Error.Details["role"])
	assert.Equal(t, []any{"Applicant", "Committee", "Dean", "Principal", "Admin"}, env.Error.Details["allowed"])
}

func TestFinalDecisionClosesApplicationOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	applicant := srv.login(t, "Applicant")
	committee := srv.login(t, "Committee")
	dean := srv.login(t, "Dean")
	principal := srv.login(t, "Principal")

	_, env := srv.do(t, fiber.MethodPost, "/applications", applicant, `{"title":"Sparse Attention"}`)
	app := decodeApplication(t, env)
	status, _ := srv.do(t, fiber.MethodPut, "/applications/"+app.ID+"/assessment", committee, `{"decision":"Approved"}`)
	require.Equal(t, fiber.StatusOK, status)
	status, _ = srv.do(t, fiber.MethodPut, "/applications/"+app.ID+"/dean-recommendation", dean, `{"grant_amount":800}`)
	require.Equal(t, fiber.StatusOK, status)
	status, _ = srv.do(t, fiber.MethodPut, "/applications/"+app.ID+"/final-decision", principal, `{"decision":"Rejected"}`)
	require.Equal(t, fiber.StatusOK, status)

	status, env = srv.do(t, fiber.MethodPut, "/applications/"+app.ID+"/assessment", committee, `{"decision":"Approved"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)

	status, _ = srv.do(t, fiber.MethodPut, "/applications/"+app.ID+"/dean-recommendation", dean, `{"grant_amount":900}`)
	assert.Equal(t, fiber.StatusConflict, status)

	_, env = srv.do(t, fiber.MethodGet, "/applications/"+app.ID, applicant, "")
	got := decodeApplication(t, env)
	assert.Equal(t, "Denied", got.Status)
	require.NotNil(t, got.FinalDecision)
	assert.Equal(t, "Rejected", *got.FinalDecision)
}

func TestApplicantsOnlySeeTheirOwn(t *testing.T) {
	srv := newTestServer(t)
	first := srv.login(t, "Applicant")
	admin := srv.login(t, "Admin")

	_, env := srv.do(t, fiber.MethodPost, "/applications", first, `{"title":"Mine"}`)
	mine := decodeApplication(t, env)

	status, env := srv.do(t, fiber.MethodGet, "/session/me", first, "")
	require.Equal(t, fiber.StatusOK, status)
	var me struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))

	// Moving the first applicant to the committee makes the next login create a fresh applicant.
	status, _ = srv.do(t, fiber.MethodPatch, "/users/"+me.ID, admin, `{"role":"Committee"}`)
	require.Equal(t, fiber.StatusOK, status)
	second := srv.login(t, "Applicant")

	status, env = srv.do(t, fiber.MethodGet, "/applications", second, "")
	require.Equal(t, fiber.StatusOK, status)
	var listed []applicationBody
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Empty(t, listed)

	status, env = srv.do(t, fiber.MethodGet, "/applications/"+mine.ID, second, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	require.NotNil(t, env.Error)

	status, env = srv.do(t, fiber.MethodGet, "/applications", admin, "")
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Len(t, listed, 1)

	status, _ = srv.do(t, fiber.MethodPost, "/applications", first, `{"title":"Again"}`)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestLogoutRevokesToken(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t, "Dean")

	status, _ := srv.do(t, fiber.MethodPost, "/session/logout", token, "")
	require.Equal(t, fiber.StatusNoContent, status)

	status, env := srv.do(t, fiber.MethodGet, "/session/me", token, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}
