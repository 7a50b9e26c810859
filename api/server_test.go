package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"brandkit/counter"
	"brandkit/model"
	"brandkit/storage"
	"brandkit/theme"
)

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
}

func newTestServer(t *testing.T) (*http.ServeMux, *theme.Controller, *WSConnectionManager) {
	t.Helper()
	ws := NewWSConnectionManager()
	ctrl := theme.NewController(storage.NewMemory(), ws)
	mux := http.NewServeMux()
	NewServer(ctrl, counter.New(), ws).Register(mux)
	return mux, ctrl, ws
}

func do(t *testing.T, mux http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	t.Parallel()

	mux, _, _ := newTestServer(t)
	rec, env := do(t, mux, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("health = %d %+v", rec.Code, env)
	}
}

func TestCounterEndpoints(t *testing.T) {
	t.Parallel()

	mux, _, _ := newTestServer(t)

	steps := []struct {
		method, path, body string
		want               counter.Snapshot
	}{
		{http.MethodGet, "/api/counter", "", counter.Snapshot{}},
		{http.MethodPost, "/api/counter/increment", "", counter.Snapshot{Count: 1, DoubleCount: 2, IsPositive: true}},
		{http.MethodPost, "/api/counter/increment", "", counter.Snapshot{Count: 2, DoubleCount: 4, IsPositive: true}},
		{http.MethodPost, "/api/counter/decrement", "", counter.Snapshot{Count: 1, DoubleCount: 2, IsPositive: true}},
		{http.MethodPut, "/api/counter", `{"count":5}`, counter.Snapshot{Count: 5, DoubleCount: 10, IsPositive: true}},
		{http.MethodPost, "/api/counter/reset", "", counter.Snapshot{}},
	}

	for _, st := range steps {
		rec, env := do(t, mux, st.method, st.path, st.body)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s %s status = %d", st.method, st.path, rec.Code)
		}
		var got counter.Snapshot
		if err := json.Unmarshal(env.Data, &got); err != nil {
			t.Fatal(err)
		}
		if got != st.want {
			t.Fatalf("%s %s = %+v, want %+v", st.method, st.path, got, st.want)
		}
	}
}

func TestCounterRejectsBadRequests(t *testing.T) {
	t.Parallel()

	mux, _, _ := newTestServer(t)

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodPut, "/api/counter", `{}`, http.StatusBadRequest},
		{http.MethodPut, "/api/counter", `{"count":"five"}`, http.StatusBadRequest},
		{http.MethodPut, "/api/counter", `{"count":1,"pad":"` + strings.Repeat("x", 2*maxRequestBody) + `"}`, http.StatusBadRequest},
		{http.MethodDelete, "/api/counter", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/counter/increment", "", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/counter/square", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		rec, _ := do(t, mux, tt.method, tt.path, tt.body)
		if rec.Code != tt.want {
			t.Fatalf("%s %s status = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}

func TestFlagsAreIndependent(t *testing.T) {
	t.Parallel()

	mux, _, _ := newTestServer(t)

	flag := func(method, path string) flagResponse {
		t.Helper()
		rec, env := do(t, mux, method, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s %s status = %d", method, path, rec.Code)
		}
		var f flagResponse
		if err := json.Unmarshal(env.Data, &f); err != nil {
			t.Fatal(err)
		}
		return f
	}

	if got := flag(http.MethodGet, "/api/flags/sidebar"); got.Value {
		t.Fatalf("new flag = true")
	}
	if got := flag(http.MethodPost, "/api/flags/sidebar/toggle"); !got.Value {
		t.Fatalf("toggle did not set flag")
	}
	if got := flag(http.MethodGet, "/api/flags/menu"); got.Value {
		t.Fatalf("menu observed sidebar's toggle")
	}
	if got := flag(http.MethodPost, "/api/flags/sidebar/off"); got.Value {
		t.Fatalf("off left flag set")
	}
	if got := flag(http.MethodPost, "/api/flags/menu/on"); !got.Value || got.Name != "menu" {
		t.Fatalf("on = %+v", got)
	}

	if rec, _ := do(t, mux, http.MethodPost, "/api/flags/menu/explode", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown action status = %d", rec.Code)
	}
	if rec, _ := do(t, mux, http.MethodPost, "/api/flags/menu", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST without action status = %d", rec.Code)
	}
}

func TestFlagReadDoesNotCreate(t *testing.T) {
	t.Parallel()

	ws := NewWSConnectionManager()
	s := NewServer(theme.NewController(storage.NewMemory(), ws), counter.New(), ws)
	mux := http.NewServeMux()
	s.Register(mux)

	for _, name := range []string{"a", "b", "c"} {
		rec, env := do(t, mux, http.MethodGet, "/api/flags/"+name, "")
		if rec.Code != http.StatusOK || !env.Success {
			t.Fatalf("GET %s = %d %+v", name, rec.Code, env)
		}
	}
	if n := len(s.flags); n != 0 {
		t.Fatalf("reads created %d flags, want 0", n)
	}

	do(t, mux, http.MethodPost, "/api/flags/a/on", "")
	if n := len(s.flags); n != 1 {
		t.Fatalf("flags after one write = %d, want 1", n)
	}
}

// wireEvent decodes any server event, keeping absent booleans distinguishable.
type wireEvent struct {
	Type string `json:"type"`
	Name string `json:"name"`
	On   *bool  `json:"on"`
	Mode string `json:"mode"`
	Dark *bool  `json:"dark"`
}

func (e wireEvent) on() bool { return e.On != nil && *e.On }

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev wireEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	switch ev.Type {
	case model.EventClass:
		if ev.On == nil || ev.Dark != nil || ev.Mode != "" {
			t.Fatalf("malformed class event: %+v", ev)
		}
	case model.EventTheme:
		if ev.Dark == nil || ev.On != nil || ev.Name != "" {
			t.Fatalf("malformed theme event: %+v", ev)
		}
	}
	return ev
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestWebSocketConnectDuringTogglesEndsInSync(t *testing.T) {
	t.Parallel()

	mux, ctrl, _ := newTestServer(t)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	for round := 0; round < 10; round++ {
		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < 25; i++ {
				ctrl.Toggle()
			}
		}()
		conn := dialWS(t, srv)
		<-done

		want := ctrl.Mode()
		var lastTheme, lastClass *wireEvent
		_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
		for {
			var ev wireEvent
			if err := conn.ReadJSON(&ev); err != nil {
				break
			}
			switch ev.Type {
			case model.EventTheme:
				lastTheme = &ev
			case model.EventClass:
				lastClass = &ev
			}
		}
		conn.Close()

		if lastTheme == nil || lastClass == nil {
			t.Fatalf("round %d: missing events, theme=%v class=%v", round, lastTheme, lastClass)
		}
		if lastTheme.Mode != want.String() {
			t.Fatalf("round %d: last theme event = %q, server mode = %q", round, lastTheme.Mode, want)
		}
		if lastClass.on() != (want == theme.Dark) {
			t.Fatalf("round %d: last class on = %t, server mode = %q", round, lastClass.on(), want)
		}
	}
}

func TestWebSocketMirrorsTheme(t *testing.T) {
	t.Parallel()

	mux, ctrl, ws := newTestServer(t)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn := dialWS(t, srv)
	defer conn.Close()

	if ev := readEvent(t, conn); ev.Type != model.EventTheme || ev.Mode != "light" || *ev.Dark {
		t.Fatalf("initial theme event = %+v", ev)
	}
	if ev := readEvent(t, conn); ev.Type != model.EventClass || ev.Name != theme.DarkClass || ev.on() {
		t.Fatalf("initial class event = %+v", ev)
	}
	if ws.Len() != 1 {
		t.Fatalf("tracked clients = %d, want 1", ws.Len())
	}

	ctrl.Toggle()
	if ev := readEvent(t, conn); ev.Type != model.EventClass || !ev.on() {
		t.Fatalf("class event after toggle = %+v", ev)
	}
	if ev := readEvent(t, conn); ev.Type != model.EventTheme || ev.Mode != "dark" {
		t.Fatalf("theme event after toggle = %+v", ev)
	}

	if err := conn.WriteJSON(clientMessage{Type: "theme", Mode: "light"}); err != nil {
		t.Fatal(err)
	}
	if ev := readEvent(t, conn); ev.Type != model.EventClass || ev.on() {
		t.Fatalf("class event after client set = %+v", ev)
	}
	if ev := readEvent(t, conn); ev.Mode != "light" {
		t.Fatalf("theme event after client set = %+v", ev)
	}
	if ctrl.Mode() != theme.Light {
		t.Fatalf("controller mode = %q after client set", ctrl.Mode())
	}

	if err := conn.WriteJSON(clientMessage{Type: "toggle"}); err != nil {
		t.Fatal(err)
	}
	if ev := readEvent(t, conn); ev.Type != model.EventClass || !ev.on() {
		t.Fatalf("class event after client toggle = %+v", ev)
	}
	if ev := readEvent(t, conn); ev.Mode != "dark" {
		t.Fatalf("theme event after client toggle = %+v", ev)
	}
}
