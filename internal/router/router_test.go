package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eduvista/internal/client"
	"eduvista/internal/events"
	"eduvista/internal/handler"
	"eduvista/internal/middleware"
	"eduvista/internal/navigation"
	"eduvista/internal/policy"
	"eduvista/internal/repository"
	"eduvista/internal/service"
	"eduvista/internal/session"
	"eduvista/internal/storage"
	"eduvista/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t        *testing.T
	engine   *gin.Engine
	registry *client.Registry
	clientID string
}

func newTestServer(t *testing.T, health func(context.Context) error) *testServer {
	t.Helper()
	return newTestServerWithOrigin(t, health, "")
}

func newTestServerWithOrigin(t *testing.T, health func(context.Context) error, corsOrigin string) *testServer {
	t.Helper()
	logger := zap.NewNop()
	repo := repository.NewMemoryUserRepository()
	require.NoError(t, service.SeedDemoUsers(context.Background(), repo, logger))
	auth := service.NewAuthService(repo, utils.NewJWTUtil("test-secret", 1), logger)

	p := policy.MustDefault()
	nav, err := navigation.NewModel(navigation.DefaultItems(), p)
	require.NoError(t, err)

	registry := client.NewRegistry(auth, p, func(string) session.Persister { return storage.NewMemorySessionStore() }, logger)
	engine := New(Deps{
		Registry:   registry,
		Auth:       handler.NewAuthHandler(nav, logger),
		Views:      handler.NewViewHandler(nav, events.NewHub(nav, corsOrigin, logger), logger),
		Logger:     logger,
		CORSOrigin: corsOrigin,
		Health:     health,
	})
	return &testServer{t: t, engine: engine, registry: registry}
}

func (s *testServer) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.clientID != "" {
		req.Header.Set(middleware.ClientHeaderName, s.clientID)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	if id := w.Header().Get(middleware.ClientHeaderName); id != "" {
		s.clientID = id
	}

	var out map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func (s *testServer) login(username, password string) map[string]any {
	s.t.Helper()
	w, out := s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"username": username, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return out
}

func TestViews_UnauthenticatedThenLoginResumes(t *testing.T) {
	s := newTestServer(t, nil)

	w, out := s.do(http.MethodGet, "/api/v1/views/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "redirect_to_login", out["outcome"])
	assert.Equal(t, "/login", out["location"])
	assert.Equal(t, "/dashboard", out["from"])
	assert.NotEmpty(t, s.clientID)

	loggedIn := s.login("estudiante", "estudiante")
	assert.Equal(t, "/dashboard", loggedIn["redirect"])
	assert.NotEmpty(t, loggedIn["token"])

	w, out = s.do(http.MethodGet, "/api/v1/views/dashboard", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "render", out["outcome"])
	assert.Equal(t, "Dashboard", out["title"])
	menu := out["menu"].(map[string]any)
	assert.Equal(t, "Estudiante", menu["role_label"])
	assert.Len(t, menu["items"], 6)
}

func TestViews_UnauthorizedIsIndistinguishableFromMissing(t *testing.T) {
	s := newTestServer(t, nil)
	s.login("admin", "admin")

	denied, deniedBody := s.do(http.MethodGet, "/api/v1/views/mis-clases", nil)
	missing, missingBody := s.do(http.MethodGet, "/api/v1/views/no-existe", nil)

	assert.Equal(t, http.StatusNotFound, denied.Code)
	assert.Equal(t, missing.Code, denied.Code)
	assert.Equal(t, missingBody, deniedBody)
	assert.Equal(t, "redirect_to_fallback", deniedBody["outcome"])
	assert.NotContains(t, denied.Body.String(), "TEACHER")

	ok, _ := s.do(http.MethodGet, "/api/v1/views/gestion-alumnos", nil)
	assert.Equal(t, http.StatusOK, ok.Code)
}

func TestViews_RootAndLoginRedirects(t *testing.T) {
	s := newTestServer(t, nil)

	w, out := s.do(http.MethodGet, "/api/v1/views/login", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "render", out["outcome"])

	s.login("profesor", "profesor")

	_, out = s.do(http.MethodGet, "/api/v1/views/", nil)
	assert.Equal(t, "redirect", out["outcome"])
	assert.Equal(t, "/dashboard", out["location"])

	_, out = s.do(http.MethodGet, "/api/v1/views/login", nil)
	assert.Equal(t, "redirect", out["outcome"])
	assert.Equal(t, "/dashboard", out["location"])
}

func TestNavigation(t *testing.T) {
	s := newTestServer(t, nil)

	w, out := s.do(http.MethodGet, "/api/v1/navigation", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, out["items"])

	s.login("profesor", "profesor")
	_, out = s.do(http.MethodGet, "/api/v1/navigation", nil)
	items := out["items"].([]any)
	require.Len(t, items, 3)
	assert.Equal(t, "/dashboard", items[0].(map[string]any)["url"])
	assert.Equal(t, "teacher", out["role_color"])
}

func TestAuth_Register(t *testing.T) {
	s := newTestServer(t, nil)

	w, out := s.do(http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": "ana", "password": "x", "confirm_password": "y", "role": "STUDENT",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "password_mismatch", out["code"])

	w, out = s.do(http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": "ana", "password": "x", "confirm_password": "x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_role", out["code"])

	w, out = s.do(http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": "ana", "email": "ana@colegio.edu", "password": "x", "confirm_password": "x", "role": "STUDENT",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/dashboard", out["redirect"])

	w, out = s.do(http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": "admin", "password": "x", "confirm_password": "x", "role": "ADMIN",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_username", out["code"])

	_, me := s.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, "ana", me["user"].(map[string]any)["username"], "failed registration keeps the session")
}

func TestAuth_LoginFailures(t *testing.T) {
	s := newTestServer(t, nil)

	w, _ := s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out := s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"username": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", out["code"])
	assert.Equal(t, service.ErrInvalidCredentials.Error(), out["error"])
}

func TestAuth_PendingSubmissionIsRefused(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(http.MethodGet, "/api/v1/navigation", nil)

	cl, ok := s.registry.Get(s.clientID)
	require.True(t, ok)
	require.True(t, cl.Sessions.Begin())

	w, _ := s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"username": "admin", "password": "admin"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Nil(t, cl.Sessions.CurrentUser())

	cl.Sessions.End()
	s.login("admin", "admin")
}

func TestAuth_LogoutIsIdempotent(t *testing.T) {
	s := newTestServer(t, nil)
	s.login("admin", "admin")

	w, _ := s.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	for i := 0; i < 2; i++ {
		w, out := s.do(http.MethodPost, "/api/v1/auth/logout", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "/login", out["redirect"])
	}

	w, _ = s.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/views/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClientCookieIssuedOnce(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/navigation", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.ClientCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/navigation", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Empty(t, w.Result().Cookies())
	assert.Equal(t, cookies[0].Value, w.Header().Get(middleware.ClientHeaderName))
}

func TestHealth(t *testing.T) {
	healthy := newTestServer(t, nil)
	w, _ := healthy.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	down := newTestServer(t, func(context.Context) error { return errors.New("db down") })
	w, _ = down.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	healthy.do(http.MethodGet, "/api/v1/views/dashboard", nil)
	w, _ = healthy.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "eduvista_guard_decisions_total")
}

func (s *testServer) dialEvents(srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	s.t.Helper()
	header := http.Header{}
	if s.clientID != "" {
		header.Set(middleware.ClientHeaderName, s.clientID)
	}
	if origin != "" {
		header.Set("Origin", origin)
	}
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/session/events"
	return websocket.DefaultDialer.Dial(url, header)
}

func readEvent(t *testing.T, ws *websocket.Conn) events.Message {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg events.Message
	require.NoError(t, ws.ReadJSON(&msg))
	return msg
}

func TestSessionEvents_CrossOriginDashboard(t *testing.T) {
	s := newTestServerWithOrigin(t, nil, "http://localhost:5173")
	srv := httptest.NewServer(s.engine)
	defer srv.Close()

	ws, _, err := s.dialEvents(srv, "http://localhost:5173")
	require.NoError(t, err)
	defer ws.Close()
	assert.Equal(t, "snapshot", readEvent(t, ws).Event)

	same, _, err := s.dialEvents(srv, srv.URL)
	require.NoError(t, err)
	same.Close()

	_, resp, err := s.dialEvents(srv, "http://evil.example")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSessionEvents_OpenStreamSurvivesSweep(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(http.MethodGet, "/api/v1/navigation", nil)
	srv := httptest.NewServer(s.engine)
	defer srv.Close()

	ws, _, err := s.dialEvents(srv, "")
	require.NoError(t, err)
	defer ws.Close()
	assert.Equal(t, "snapshot", readEvent(t, ws).Event)

	cl, ok := s.registry.Get(s.clientID)
	require.True(t, ok)
	assert.Equal(t, 0, s.registry.Sweep(-time.Hour))

	s.login("admin", "admin")
	again, ok := s.registry.Get(s.clientID)
	require.True(t, ok)
	assert.Same(t, cl, again)

	login := readEvent(t, ws)
	assert.Equal(t, "login", login.Event)
	require.NotNil(t, login.User)
	assert.Equal(t, "admin", login.User.Username)
}
