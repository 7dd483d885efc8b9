package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/desktop"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/gesture"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/setup"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/window"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/MoltOS/backend/internal/services/installer"
	"github.com/GriffinCanCode/MoltOS/backend/internal/services/status"
	"github.com/GriffinCanCode/MoltOS/backend/internal/services/updater"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
)

type fixedSource struct {
	version string
}

func (s fixedSource) Latest(context.Context) (updater.Release, error) {
	return updater.Release{Version: s.version, Notes: "notes"}, nil
}

type testEnv struct {
	router    *gin.Engine
	sessions  *session.Manager
	installer *installer.Service
	metrics   *monitoring.Metrics
	tracer    *tracing.Tracer

	spanMu sync.Mutex
	spans  []tracing.Span
}

// finishedSpans closes the tracer, so every submitted span is collected
func (e *testEnv) finishedSpans() []tracing.Span {
	e.tracer.Close()
	e.spanMu.Lock()
	defer e.spanMu.Unlock()
	return append([]tracing.Span(nil), e.spans...)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sim := status.NewSimulator(status.DefaultConfig(), nil)
	metrics := monitoring.NewMetrics()
	sessions := session.NewManager(func(id.SessionID) (*desktop.Desktop, error) {
		cfg := desktop.DefaultConfig()
		cfg.Panels.Status = sim
		cfg.Panels.RandSeed = 7
		cfg.Panels.ChatReplyMin = 5 * time.Millisecond
		cfg.Panels.ChatReplyMax = 10 * time.Millisecond
		return desktop.New(cfg, window.WithJitter(window.JitterFunc(func() (int, int) { return 0, 0 })))
	}, session.WithMaxSessions(4))
	t.Cleanup(sessions.Close)

	setupSvc, err := setup.NewService(setup.NewMemoryStore(), nil)
	require.NoError(t, err)

	inst := installer.NewService(installer.Timing{}, nil, installer.WithMetrics(metrics))
	upd := updater.NewService(updater.Config{}, nil, updater.WithSource(fixedSource{version: "2025.2.1"}))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	env := &testEnv{sessions: sessions, installer: inst, metrics: metrics}
	env.tracer = tracing.New("test", nil, tracing.WithSink(func(s tracing.Span) {
		env.spanMu.Lock()
		env.spans = append(env.spans, s)
		env.spanMu.Unlock()
	}))
	t.Cleanup(env.tracer.Close)

	h := NewHandlers(Deps{
		Sessions:  sessions,
		Status:    sim,
		Installer: inst,
		Updater:   upd,
		Setup:     setupSvc,
		Metrics:   metrics,
		Tracer:    env.tracer,
		Context:   ctx,
	})
	env.router = gin.New()
	env.router.Use(tracing.HTTPMiddleware(env.tracer))
	h.Register(env.router)

	return env
}

func (e *testEnv) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (e *testEnv) newSession(t *testing.T) string {
	t.Helper()
	w := e.do("POST", "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[session.Info](t, w).ID.String()
}

type openResponse struct {
	WindowID id.WindowID   `json:"window_id"`
	Window   window.Window `json:"window"`
	Created  bool          `json:"created"`
}

type opResponse struct {
	Applied        bool           `json:"applied"`
	WindowID       id.WindowID    `json:"window_id"`
	ActiveWindowID id.WindowID    `json:"active_window_id"`
	Window         *window.Window `json:"window"`
}

func (e *testEnv) open(t *testing.T, sid, app string) openResponse {
	t.Helper()
	w := e.do("POST", "/sessions/"+sid+"/windows", gin.H{"app_id": app})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[openResponse](t, w)
}

func TestRootAndHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", decode[map[string]any](t, w)["status"])

	w = env.do("GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Contains(t, body, "sessions")
	assert.Contains(t, body, "gateway")
}

func TestAppCatalog(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/apps", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Apps []struct {
			ID string `json:"id"`
		} `json:"apps"`
	}](t, w)
	require.Len(t, body.Apps, 10)
	assert.Equal(t, "chat", body.Apps[0].ID)
	assert.Equal(t, "settings", body.Apps[9].ID)
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	sid := env.newSession(t)
	assert.Contains(t, sid, "sess_")

	w := env.do("GET", "/sessions/"+sid, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do("GET", "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Sessions []session.Info `json:"sessions"`
		Stats    session.Stats  `json:"stats"`
	}](t, w)
	assert.Len(t, list.Sessions, 1)
	assert.Equal(t, 4, list.Stats.Max)

	w = env.do("DELETE", "/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do("GET", "/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do("DELETE", "/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do("GET", "/sessions/not-a-session/dock", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionLimit(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 4; i++ {
		env.newSession(t)
	}
	w := env.do("POST", "/sessions", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestOpenWindow(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t)

	res := env.open(t, sid, "terminal")
	assert.Equal(t, "Terminal", res.Window.Title)
	assert.Equal(t, window.Position{X: 100, Y: 50}, res.Window.Position)
	assert.Equal(t, window.Size{Width: 700, Height: 450}, res.Window.Size)

	again := env.open(t, sid, "terminal")
	assert.Equal(t, res.WindowID, again.WindowID, "apps are single instance")

	w := env.do("POST", "/sessions/"+sid+"/windows", gin.H{"app_id": "browser"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "configuration error")

	w = env.do("POST", "/sessions/"+sid+"/windows", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOpenWindowStatusReflectsReuse(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t)
	path := "/sessions/" + sid + "/windows"

	w := env.do("POST", path, gin.H{"app_id": "calendar"})
	require.Equal(t, http.StatusCreated, w.Code)
	first := decode[openResponse](t, w)
	assert.True(t, first.Created)

	w = env.do("POST", path, gin.H{"app_id": "calendar"})
	require.Equal(t, http.StatusOK, w.Code, "focusing an open window creates nothing")
	assert.False(t, decode[openResponse](t, w).Created)

	env.do("POST", path+"/"+string(first.WindowID)+"/minimize", nil)
	w = env.do("POST", path, gin.H{"app_id": "calendar"})
	require.Equal(t, http.StatusOK, w.Code)
	again := decode[openResponse](t, w)
	assert.Equal(t, first.WindowID, again.WindowID)
	assert.False(t, again.Window.IsMinimized)
}

func TestMinimizeAllWindows(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t)

	chat := env.open(t, sid, "chat")
	mail := env.open(t, sid, "mail")

	w := env.do("POST", "/sessions/"+sid+"/windows/minimize-all", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[struct {
		Minimized      int         `json:"minimized"`
		ActiveWindowID id.WindowID `json:"active_window_id"`
	}](t, w)
	assert.Equal(t, 2, body.Minimized)
	assert.Empty(t, body.ActiveWindowID)

	w = env.do("GET", "/sessions/"+sid+"/windows", nil)
	snap := decode[window.Snapshot](t, w)
	require.Len(t, snap.Windows, 2)
	for _, win := range snap.Windows {
		assert.True(t, win.IsMinimized)
	}

	w = env.do("POST", "/sessions/"+sid+"/windows/minimize-all", nil)
	assert.Equal(t, 0.0, decode[map[string]any](t, w)["minimized"])

	// the literal route does not shadow per-window operations
	w = env.do("POST", "/sessions/"+sid+"/windows/"+string(mail.WindowID)+"/restore", nil)
	assert.Equal(t, mail.WindowID, decode[opResponse](t, w).ActiveWindowID)
	assert.Equal(t, chat.WindowID, env.open(t, sid, "chat").WindowID)
}

func TestTraceIDPropagation(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t)
	term := env.open(t, sid, "terminal")

	w := env.do("PUT", "/sessions/"+sid+"/windows/"+string(term.WindowID)+"/position",
		gin.H{"x": 300, "y": 200}, tracing.TraceHeader, "trace_from_browser")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trace_from_browser", w.Header().Get(tracing.TraceHeader))
	requestSpan := tracing.SpanID(w.Header().Get(tracing.SpanHeader))
	require.NotEmpty(t, requestSpan)

	w = env.do("POST", "/sessions/"+sid+"/windows/"+string(term.WindowID)+"/pointer",
		gesture.Event{Kind: gesture.Down, Region: gesture.TitleBar, X: 310, Y: 210},
		tracing.TraceHeader, "trace_from_browser")
	require.Equal(t, http.StatusOK, w.Code)
	action := decode[gesture.Result](t, w).Action

	byName := make(map[string]tracing.Span)
	for _, s := range env.finishedSpans() {
		if s.TraceID == "trace_from_browser" {
			byName[s.Name] = s
		}
	}

	move, ok := byName["window.move"]
	require.True(t, ok, "window operations get a child span")
	assert.Equal(t, requestSpan, move.ParentID)
	assert.Equal(t, sid, move.Tags["session_id"])
	assert.Equal(t, "true", move.Tags["applied"])

	pointer, ok := byName["desktop.pointer"]
	require.True(t, ok)
	assert.Equal(t, string(action), pointer.Tags["action"])
	assert.Equal(t, "down", pointer.Tags["pointer"])

	_, ok = byName["PUT /sessions/:id/windows/:wid/position"]
	assert.True(t, ok)
}

func TestWindowOperations(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t)
	base := "/sessions/" + sid + "/windows/"

	chat := env.open(t, sid, "chat")
	mail := env.open(t, sid, "mail")

	w := env.do("POST", base+string(chat.WindowID)+"/focus", nil)
	require.Equal(t, http.StatusOK, w.Code)
	op := decode[opResponse](t, w)
	assert.True(t, op.Applied)
	assert.Equal(t, chat.WindowID, op.ActiveWindowID)

	w = env.do("POST", base+string(chat.WindowID)+"/minimize", nil)
	op = decode[opResponse](t, w)
	assert.True(t, op.Applied)
	assert.True(t, op.Window.IsMinimized)
	assert.Equal(t, mail.WindowID, op.ActiveWindowID)

	w = env.do("POST", base+string(chat.WindowID)+"/restore", nil)
	op = decode[opResponse](t, w)
	assert.False(t, op.Window.IsMinimized)
	assert.Equal(t, chat.WindowID, op.ActiveWindowID)

	w = env.do("PUT", base+string(chat.WindowID)+"/position", gin.H{"x": 300, "y": 0})
	op = decode[opResponse](t, w)
	assert.Equal(t, window.Position{X: 300, Y: 28}, op.Window.Position, "y is clamped below the menu bar")

	w = env.do("PUT", base+string(chat.WindowID)+"/size", gin.H{"width": 10, "height": 10})
	op = decode[opResponse](t, w)
	assert.Equal(t, window.Size{Width: 200, Height: 150}, op.Window.Size)

	w = env.do("PUT", base+string(chat.WindowID)+"/size", gin.H{"width": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("POST", base+string(chat.WindowID)+"/maximize", nil)
	op = decode[opResponse](t, w)
	assert.True(t, op.Window.IsMaximized)

	w = env.do("DELETE", base+string(chat.WindowID), nil)
	op = decode[opResponse](t, w)
	assert.True(t, op.Applied)
	assert.Nil(t, op.Window)
	assert.Equal(t, mail.WindowID, op.ActiveWindowID)
}

func TestStaleWindowIsNotAnError(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t)
	stale := string(id.NewWindowID())

	for _, tc := range []struct{ method, suffix string }{
		{"POST", "/focus"},
		{"POST", "/minimize"},
		{"POST", "/maximize"},
		{"POST", "/restore"},
		{"DELETE", ""},
	} {
		w := env.do(tc.method, "/sessions/"+sid+"/windows/"+stale+tc.suffix, nil)
		require.Equal(t, http.StatusOK, w.Code, tc.suffix)
		assert.False(t, decode[opResponse](t, w).Applied, tc.suffix)
	}

	w := env.do("PUT", "/sessions/"+sid+"/windows/"+stale+"/position", gin.H{"x": 1, "y": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[opResponse](t, w).Applied)

	w = env.do("POST", "/sessions/"+sid+"/windows/garbage/focus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSnapshotETag(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t)
	res := env.open(t, sid, "files")

	w := env.do("GET", "/sessions/"+sid+"/windows", nil)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	snap := decode[window.Snapshot](t, w)
	assert.Len(t, snap.Windows, 1)
	assert.Equal(t, res.WindowID, snap.ActiveWindowID)

	w = env.do("GET", "/sessions/"+sid+"/windows", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Zero(t, w.Body.Len())

	env.do("PUT", "/sessions/"+sid+"/windows/"+string(res.WindowID)+"/position", gin.H{"x": 400, "y": 300})
	w = env.do("GET", "/sessions/"+sid+"/windows", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, etag, w.Header().Get("ETag"))
}

func TestPointerDrag(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t)
	res := env.open(t, sid, "chat")
	path := "/sessions/" + sid + "/windows/" + string(res.WindowID) + "/pointer"

	w := env.do("POST", path, gesture.Event{Kind: gesture.Down, Region: gesture.TitleBar, X: 150, Y: 60})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, gesture.Dragging, decode[gesture.Result](t, w).State)

	w = env.do("GET", "/sessions/"+sid+"/gestures", nil)
	assert.Contains(t, w.Body.String(), string(gesture.Dragging))

	w = env.do("POST", path, gesture.Event{Kind: gesture.Move, X: 250, Y: 160})
	result := decode[gesture.Result](t, w)
	assert.Equal(t, gesture.ActionMove, result.Action)
	assert.True(t, result.Applied)

	w = env.do("POST", path, gesture.Event{Kind: gesture.Up, X: 250, Y: 160})
	assert.Equal(t, gesture.Idle, decode[gesture.Result](t, w).State)

	got, ok := env.sessionDesktop(t, sid).Windows.Get(res.WindowID)
	require.True(t, ok)
	assert.Equal(t, window.Position{X: 200, Y: 150}, got.Position)

	w = env.do("POST", path, gin.H{"kind": "tap"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	stale := "/sessions/" + sid + "/windows/" + string(id.NewWindowID()) + "/pointer"
	w = env.do("POST", stale, gesture.Event{Kind: gesture.Down, Region: gesture.TitleBar})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[gesture.Result](t, w).Applied)
}

func (e *testEnv) sessionDesktop(t *testing.T, sid string) *desktop.Desktop {
	t.Helper()
	s, err := e.sessions.Get(id.SessionID(sid))
	require.NoError(t, err)
	return s.Desktop
}

func TestDesktopViews(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t)
	base := "/sessions/" + sid

	w := env.do("GET", base+"/menubar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Finder", decode[desktop.MenuBarView](t, w).AppName)

	res := env.open(t, sid, "calendar")
	w = env.do("GET", base+"/menubar", nil)
	assert.Equal(t, "Calendar", decode[desktop.MenuBarView](t, w).AppName)

	w = env.do("GET", base+"/dock", nil)
	dock := decode[struct {
		Items []struct {
			ID   string `json:"id"`
			Open bool   `json:"open"`
		} `json:"items"`
	}](t, w)
	require.Len(t, dock.Items, 10)
	for _, item := range dock.Items {
		assert.Equal(t, item.ID == "calendar", item.Open, item.ID)
	}

	env.do("POST", base+"/windows/"+string(res.WindowID)+"/maximize", nil)
	w = env.do("PUT", base+"/viewport", gin.H{"width": 1280, "height": 800})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do("GET", base+"/scene", nil)
	require.Equal(t, http.StatusOK, w.Code)
	scene := decode[struct {
		Scene desktop.SceneView `json:"scene"`
	}](t, w)
	require.Len(t, scene.Scene.Windows, 1)
	assert.Equal(t, window.Rect{X: 0, Y: 28, Width: 1280, Height: 692}, scene.Scene.Windows[0].Bounds)
	assert.True(t, scene.Scene.Windows[0].Active)

	w = env.do("GET", base+"/scene/hit?x=640&y=400", nil)
	assert.Equal(t, true, decode[map[string]any](t, w)["hit"])
	w = env.do("GET", base+"/scene/hit?x=640&y=10", nil)
	assert.Equal(t, false, decode[map[string]any](t, w)["hit"])
	w = env.do("GET", base+"/scene/hit?x=left", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("PUT", base+"/viewport", gin.H{"width": 0, "height": 800})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTerminalAndChat(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t)
	base := "/sessions/" + sid

	w := env.do("POST", base+"/terminal", gin.H{"command": "whoami"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"moltbot@moltos", ""}, decode[map[string][]string](t, w)["lines"])

	w = env.do("POST", base+"/terminal", gin.H{"command": "clear"})
	assert.Equal(t, []string{}, decode[map[string][]string](t, w)["lines"])

	w = env.do("GET", base+"/terminal", nil)
	state := decode[map[string][]string](t, w)
	assert.Equal(t, []string{"whoami", "clear"}, state["history"])
	assert.Empty(t, state["output"])

	w = env.do("DELETE", base+"/terminal", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do("POST", base+"/chat", gin.H{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("POST", base+"/chat", gin.H{"content": "hello"})
	require.Equal(t, http.StatusAccepted, w.Code)

	assert.Eventually(t, func() bool {
		w := env.do("GET", base+"/chat", nil)
		body := decode[struct {
			Messages []json.RawMessage `json:"messages"`
		}](t, w)
		return len(body.Messages) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMarketplaceAndFiles(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t)
	base := "/sessions/" + sid

	w := env.do("POST", base+"/skills/5/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["installed"])

	w = env.do("POST", base+"/skills/missing/toggle", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do("POST", base+"/store/bad%20id/toggle", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("GET", base+"/store", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	type storeBody struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		Categories map[string]int `json:"categories"`
	}
	w = env.do("GET", base+"/store?q=debug&category=Development", nil)
	require.Equal(t, http.StatusOK, w.Code)
	store := decode[storeBody](t, w)
	require.Len(t, store.Items, 1)
	assert.Equal(t, "6", store.Items[0].ID)
	assert.Equal(t, 3, store.Categories["Development"])

	w = env.do("GET", base+"/store?category=Security", nil)
	assert.Len(t, decode[storeBody](t, w).Items, 1)

	w = env.do("GET", base+"/skills?q=research", nil)
	skills := decode[struct {
		Skills []map[string]any `json:"skills"`
	}](t, w)
	require.Len(t, skills.Skills, 1)
	assert.Equal(t, "Web Search", skills.Skills[0]["name"])

	w = env.do("GET", base+"/files", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/Documents")

	w = env.do("GET", base+"/files?dir=/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("GET", base+"/files/search?pattern=**/*.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/config.json")

	w = env.do("GET", base+"/files/search?pattern=[", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do("GET", base+"/files/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("GET", base+"/files/preview?path=/config.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", decode[map[string]any](t, w)["mime_type"])
}

func TestCalendarMailAgentsSettings(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t)
	base := "/sessions/" + sid

	w := env.do("POST", base+"/calendar", gin.H{"title": "Launch", "date": "2025-02-03", "time": "09:30"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ev := decode[map[string]any](t, w)

	w = env.do("GET", base+"/calendar?date=2025-02-03", nil)
	assert.Contains(t, w.Body.String(), "Launch")
	w = env.do("GET", base+"/calendar?date=tomorrow", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do("POST", base+"/calendar", gin.H{"title": "Bad", "date": "2025-02-03", "time": "noon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("DELETE", base+"/calendar/"+ev["id"].(string), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do("DELETE", base+"/calendar/"+ev["id"].(string), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("POST", base+"/mail/1/read", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode[map[string]any](t, w)["unread"])
	w = env.do("GET", base+"/mail/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("POST", base+"/agents/1/cycle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", decode[map[string]any](t, w)["status"])

	w = env.do("PUT", base+"/settings", gin.H{"mode": "pro"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pro", decode[map[string]any](t, w)["mode"])
	w = env.do("PUT", base+"/settings", gin.H{"mode": "expert"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("GET", base+"/monitor", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, w)["samples"])
}

func TestSetupRoutes(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/setup", nil)
	assert.Equal(t, setup.Status{Completed: false, ShowWizard: true}, decode[setup.Status](t, w))

	w = env.do("PUT", "/setup/wizard", gin.H{"show": false})
	assert.Equal(t, setup.Status{Completed: false, ShowWizard: false}, decode[setup.Status](t, w))
	w = env.do("PUT", "/setup/wizard", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("POST", "/setup/skip", nil)
	assert.True(t, decode[setup.Status](t, w).Completed)
}

func TestInstallerRoutes(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/installer/connect", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do("POST", "/installer/install", gin.H{"method": "brew"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("POST", "/installer/install", gin.H{"method": "npm"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Eventually(t, func() bool {
		return env.installer.State().InstallStatus == installer.StatusConfigured
	}, 2*time.Second, 5*time.Millisecond)

	w = env.do("PUT", "/installer/config", gin.H{"model": "anthropic/claude-sonnet-4"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anthropic/claude-sonnet-4", decode[installer.BotConfig](t, w).Model)

	w = env.do("POST", "/installer/messages", gin.H{"message": "hi"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do("POST", "/installer/connect", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, installer.StatusConnected, decode[installer.State](t, w).InstallStatus)

	w = env.do("POST", "/installer/messages", gin.H{"message": "hi"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[map[string]string](t, w)["reply"])

	w = env.do("GET", "/installer/commands?method=manual", nil)
	assert.Len(t, decode[map[string]any](t, w)["commands"], 4)
	w = env.do("GET", "/installer/commands?method=pip", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("POST", "/installer/reset", nil)
	assert.Equal(t, installer.StatusNotInstalled, decode[installer.State](t, w).InstallStatus)
}

func TestUpdateRoutes(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/updates/check", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Available *updater.Info `json:"update_available"`
	}](t, w)
	require.NotNil(t, body.Available)
	assert.Equal(t, "2025.2.1", body.Available.LatestVersion)

	w = env.do("POST", "/updates/apply", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[updater.State](t, w).Available)

	w = env.do("GET", "/updates", nil)
	assert.Equal(t, updater.UpdateCommand, decode[map[string]any](t, w)["update_command"])
}

func TestStatusAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 23, decode[status.Status](t, w).CPU)

	w = env.do("GET", "/status/history", nil)
	assert.Len(t, decode[map[string][]status.Status](t, w)["history"], 1)

	w = env.do("GET", "/metrics/json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[map[string]any](t, w), "uptime_seconds")
}
