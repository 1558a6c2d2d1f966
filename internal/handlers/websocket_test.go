package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"plant_telemetry/internal/engine"
	"plant_telemetry/internal/service"
)

// --- parseInterval unit tests ---

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", 1 * time.Second},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_large", "/ws?interval=20s", 1 * time.Second},
		{"interval_ms_too_large", "/ws?interval_ms=20000", 1 * time.Second},
		{"interval_invalid_string", "/ws?interval=bogus", 1 * time.Second},
		{"interval_ms_invalid", "/ws?interval_ms=NaN", 1 * time.Second},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.u, nil)
			c, _ := gin.CreateTestContext(w)
			c.Request = req
			got := h.parseInterval(c)
			if got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

// --- websocket integration tests ---

type envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func newWSServer(t *testing.T, s *service.Service) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(s, nil)
	r.GET("/ws", h.wsConnect)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, query url.Values) string {
	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = query.Encode()
	return u.String()
}

func TestWebSocket_PushesViewOnlyWhenVersionsChange(t *testing.T) {
	mon := &mockMonitoring{view: engine.PlantView{PlantID: 4, Versions: engine.Versions{History: 1}}}
	auth := &mockAuth{parseID: 1}
	srv := newWSServer(t, &service.Service{Monitoring: mon, Authorization: auth})

	q := url.Values{}
	q.Set("plant_id", "4")
	q.Set("token", "tok")
	q.Set("interval_ms", "20") // fast ticks for the test

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(wsURL(srv, q), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	// initial view
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	var v engine.PlantView
	if env.Type != "view" || json.Unmarshal(env.Data, &v) != nil || v.PlantID != 4 {
		t.Fatalf("bad envelope: %+v", env)
	}

	// unchanged versions produce nothing
	_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if err := conn.ReadJSON(&env); err == nil {
		t.Fatalf("no message expected while versions are unchanged, got %+v", env)
	}
	conn.Close()

	// a version bump is pushed on a fresh connection after its initial view
	conn, _, err = dialer.Dial(wsURL(srv, q), nil)
	if err != nil {
		t.Fatalf("redial error: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read initial after redial: %v", err)
	}
	mon.setView(engine.PlantView{PlantID: 4, Versions: engine.Versions{History: 2}})
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	env = envelope{}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read update: %v", err)
	}
	v = engine.PlantView{}
	if err := json.Unmarshal(env.Data, &v); err != nil || v.Versions.History != 2 {
		t.Fatalf("expected updated view, got %+v (%v)", v, err)
	}
}

func TestWebSocket_RejectsBeforeUpgrade(t *testing.T) {
	cases := []struct {
		name     string
		query    url.Values
		parseErr error
		wantCode int
	}{
		{name: "missing token", query: url.Values{"plant_id": {"1"}}, wantCode: http.StatusUnauthorized},
		{name: "bad token", query: url.Values{"plant_id": {"1"}, "token": {"x"}}, parseErr: errors.New("expired"), wantCode: http.StatusUnauthorized},
		{name: "missing plant", query: url.Values{"token": {"x"}}, wantCode: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newWSServer(t, &service.Service{
				Monitoring:    &mockMonitoring{},
				Authorization: &mockAuth{parseID: 1, parseErr: tc.parseErr},
			})
			dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
			_, resp, err := dialer.Dial(wsURL(srv, tc.query), nil)
			if err == nil {
				t.Fatalf("expected handshake failure")
			}
			if resp == nil || resp.StatusCode != tc.wantCode {
				t.Fatalf("expected status %d, got %+v", tc.wantCode, resp)
			}
		})
	}
}

func TestWebSocket_UnknownPlantSendsErrorAndCloses(t *testing.T) {
	mon := &mockMonitoring{viewErr: service.ErrPlantNotFound}
	srv := newWSServer(t, &service.Service{Monitoring: mon, Authorization: &mockAuth{parseID: 1}})

	q := url.Values{}
	q.Set("plant_id", "9")
	header := authHeader("tok")
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(wsURL(srv, q), header)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read error envelope: %v", err)
	}
	if env.Type != "error" || env.Error != errPlantNotFound {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if err := conn.ReadJSON(&env); err == nil {
		t.Fatalf("expected the connection to close, got %+v", env)
	}
}
