package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"brandkit/counter"
	"brandkit/model"
	"brandkit/theme"
	"brandkit/toggle"
)

const (
	maxClientMessage = 1024
	maxRequestBody   = 4 << 10
)

type Server struct {
	ctrl     *theme.Controller
	counter  *counter.Store
	ws       *WSConnectionManager
	upgrader websocket.Upgrader
	log      zerolog.Logger

	flagsMu sync.Mutex
	flags   map[string]*toggle.Toggle
}

// NewServer wires the API to ctrl. Every mode change is broadcast to
// WebSocket clients as a theme event.
func NewServer(ctrl *theme.Controller, store *counter.Store, ws *WSConnectionManager) *Server {
	s := &Server{
		ctrl:    ctrl,
		counter: store,
		ws:      ws,
		log:     log.With().Str("component", "api").Logger(),
		flags:   make(map[string]*toggle.Toggle),
	}
	ctrl.Subscribe(func(m theme.Mode) {
		ws.Broadcast(themeEvent(m))
	})
	return s
}

func themeEvent(m theme.Mode) model.ThemeEvent {
	return model.ThemeEvent{Type: model.EventTheme, Mode: m.String(), Dark: m == theme.Dark}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/counter", s.handleCounter)
	mux.HandleFunc("/api/counter/", s.handleCounterAction)
	mux.HandleFunc("/api/flags/", s.handleFlag)
	mux.HandleFunc("/api/ws", s.handleWS)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	model.WriteData(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.ws.Len(),
	})
}

// ---------- counter ----------

type setCountRequest struct {
	Count *int `json:"count"`
}

func (s *Server) handleCounter(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		model.WriteData(w, http.StatusOK, s.counter.Snapshot())

	case http.MethodPut:
		var req setCountRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Count == nil {
			model.WriteError(w, http.StatusBadRequest, "body must be {\"count\": <int>}")
			return
		}
		s.counter.SetCount(*req.Count)
		model.WriteData(w, http.StatusOK, s.counter.Snapshot())

	default:
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodPut)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCounterAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	switch strings.TrimPrefix(r.URL.Path, "/api/counter/") {
	case "increment":
		s.counter.Increment()
	case "decrement":
		s.counter.Decrement()
	case "reset":
		s.counter.Reset()
	default:
		http.NotFound(w, r)
		return
	}
	model.WriteData(w, http.StatusOK, s.counter.Snapshot())
}

// ---------- flags ----------

type flagResponse struct {
	Name  string `json:"name"`
	Value bool   `json:"value"`
}

// lookupFlag reports the value of name. A flag that was never set reads as
// false and is not created.
func (s *Server) lookupFlag(name string) bool {
	s.flagsMu.Lock()
	t, ok := s.flags[name]
	s.flagsMu.Unlock()
	return ok && t.Get()
}

// flag returns the toggle for name, creating it cleared on first use.
func (s *Server) flag(name string) *toggle.Toggle {
	s.flagsMu.Lock()
	defer s.flagsMu.Unlock()
	t, ok := s.flags[name]
	if !ok {
		t = toggle.New(false)
		s.flags[name] = t
	}
	return t
}

// handleFlag serves GET /api/flags/{name} and
// POST /api/flags/{name}/{toggle|on|off}.
func (s *Server) handleFlag(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/flags/"), "/")
	name, action, _ := strings.Cut(rest, "/")
	if name == "" {
		http.NotFound(w, r)
		return
	}

	var value bool
	switch {
	case r.Method == http.MethodGet && action == "":
		value = s.lookupFlag(name)
	case r.Method == http.MethodPost && action != "":
		switch action {
		case "toggle":
			value = s.flag(name).Toggle()
		case "on":
			s.flag(name).SetTrue()
			value = true
		case "off":
			s.flag(name).SetFalse()
		default:
			http.NotFound(w, r)
			return
		}
	default:
		if action == "" {
			w.Header().Set("Allow", http.MethodGet)
		} else {
			w.Header().Set("Allow", http.MethodPost)
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	model.WriteData(w, http.StatusOK, flagResponse{Name: name, Value: value})
}

// ---------- websocket ----------

type clientMessage struct {
	Type string `json:"type"`
	Mode string `json:"mode,omitempty"`
}

// handleWS upgrades to a WebSocket, sends the current theme and flag, then
// accepts {"type":"theme","mode":...} and {"type":"toggle"} from the client.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	id, err := s.ws.Add(conn, func() []any {
		state := s.ctrl.State()
		return []any{
			themeEvent(state.Mode),
			model.ClassEvent{Type: model.EventClass, Name: theme.DarkClass, On: state.Dark},
		}
	})
	defer s.ws.Remove(conn)
	clog := s.log.With().Str("client", id).Logger()
	if err != nil {
		clog.Debug().Err(err).Msg("websocket greeting failed")
		return
	}
	clog.Debug().Msg("websocket connected")

	conn.SetReadLimit(maxClientMessage)
	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			clog.Debug().Err(err).Msg("websocket closed")
			return
		}

		switch msg.Type {
		case "toggle":
			s.ctrl.Toggle()
		case "theme":
			m, err := theme.ParseMode(msg.Mode)
			if err != nil {
				_ = s.ws.WriteJSON(conn, model.ErrorEvent{Type: model.EventError, Message: err.Error()})
				continue
			}
			_ = s.ctrl.SetMode(m)
		default:
			_ = s.ws.WriteJSON(conn, model.ErrorEvent{Type: model.EventError, Message: "unknown message type"})
		}
	}
}
