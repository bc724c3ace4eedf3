package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"towertalk/dialogue"
	"towertalk/extra"
	"towertalk/location"
	"towertalk/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// local tool, any origin may drive it
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	logger  *slog.Logger
	session *towerSession
}

type vehicleReq struct {
	Make  string `json:"make"`
	Plate string `json:"plate"`
}

// locationReq carries either a GPS fix or an explicit street.
type locationReq struct {
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	Street      string   `json:"street,omitempty"`
	CrossStreet string   `json:"cross_street,omitempty"`
}

type transcriptReq struct {
	Text string `json:"text"`
}

// wsFrame is both the outbound event envelope and the inbound command.
type wsFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Data any    `json:"data,omitempty"`
}

type errorResp struct {
	Error string `json:"error"`
}

func newServer(logger *slog.Logger, session *towerSession) *Server {
	return &Server{logger: logger, session: session}
}

func (srv *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/ping", srv.pingHandler)
	r.Route("/api", func(r chi.Router) {
		r.Post("/vehicle", srv.vehicleHandler)
		r.Post("/refresh", srv.refreshHandler)
		r.Post("/talk", srv.talkHandler)
		r.Post("/reset", srv.resetHandler)
		r.Get("/state", srv.stateHandler)
		r.Get("/history", srv.historyHandler)
		r.Post("/location", srv.locationHandler)
		r.Post("/transcript", srv.transcriptHandler)
		r.Get("/sessions", srv.sessionsHandler)
		r.Get("/sessions/{id}/turns", srv.sessionTurnsHandler)
		r.Get("/ws", srv.wsHandler)
	})
	return r
}

func (srv *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		srv.logger.Warn("failed to write response", "error", err)
	}
}

func (srv *Server) writeError(w http.ResponseWriter, err error) {
	srv.writeJSON(w, errorStatus(err), errorResp{Error: err.Error()})
}

func errorStatus(err error) int {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, location.ErrInvalidFix):
		return http.StatusBadRequest
	case errors.Is(err, dialogue.ErrNoVehicle),
		errors.Is(err, dialogue.ErrAwaitingWelcome),
		errors.Is(err, dialogue.ErrSpeaking),
		errors.Is(err, extra.ErrNotListening):
		return http.StatusConflict
	case errors.Is(err, dialogue.ErrNoVoiceInput),
		errors.Is(err, dialogue.ErrClosed),
		errors.Is(err, errNoRelay):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	return dec.Decode(v)
}

func (srv *Server) pingHandler(w http.ResponseWriter, req *http.Request) {
	if _, err := w.Write([]byte("pong")); err != nil {
		srv.logger.Error("server ping", "error", err)
	}
}

func (srv *Server) vehicleHandler(w http.ResponseWriter, req *http.Request) {
	var body vehicleReq
	if err := decode(w, req, &body); err != nil {
		srv.writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid json: " + err.Error()})
		return
	}
	if err := srv.session.ctrl.RegisterVehicle(body.Make, body.Plate); err != nil {
		srv.writeError(w, err)
		return
	}
	srv.writeJSON(w, http.StatusOK, srv.session.ctrl.Snapshot())
}

func (srv *Server) refreshHandler(w http.ResponseWriter, req *http.Request) {
	if err := srv.session.ctrl.RequestStatusRefresh(); err != nil {
		srv.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (srv *Server) talkHandler(w http.ResponseWriter, req *http.Request) {
	if err := srv.session.ctrl.Talk(); err != nil {
		srv.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (srv *Server) resetHandler(w http.ResponseWriter, req *http.Request) {
	if err := srv.session.ctrl.ResetSession(); err != nil {
		srv.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (srv *Server) stateHandler(w http.ResponseWriter, req *http.Request) {
	srv.writeJSON(w, http.StatusOK, srv.session.ctrl.Snapshot())
}

func (srv *Server) historyHandler(w http.ResponseWriter, req *http.Request) {
	history := srv.session.history()
	if history == nil {
		history = []models.Turn{}
	}
	srv.writeJSON(w, http.StatusOK, history)
}

func (srv *Server) locationHandler(w http.ResponseWriter, req *http.Request) {
	var body locationReq
	if err := decode(w, req, &body); err != nil {
		srv.writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid json: " + err.Error()})
		return
	}
	switch {
	case body.Lat != nil && body.Lon != nil:
		if err := srv.session.pushFix(location.Fix{Lat: *body.Lat, Lon: *body.Lon, At: time.Now()}); err != nil {
			if errors.Is(err, location.ErrInvalidFix) {
				srv.writeError(w, err)
				return
			}
			srv.writeJSON(w, http.StatusServiceUnavailable, errorResp{Error: err.Error()})
			return
		}
	case body.Street != "":
		srv.session.setStreet(body.Street, body.CrossStreet)
	default:
		srv.writeJSON(w, http.StatusBadRequest, errorResp{Error: "need lat and lon or street"})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (srv *Server) transcriptHandler(w http.ResponseWriter, req *http.Request) {
	var body transcriptReq
	if err := decode(w, req, &body); err != nil {
		srv.writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid json: " + err.Error()})
		return
	}
	if err := srv.session.submit(body.Text); err != nil {
		srv.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (srv *Server) sessionsHandler(w http.ResponseWriter, req *http.Request) {
	if srv.session.store == nil {
		srv.writeJSON(w, http.StatusOK, []models.SessionRecord{})
		return
	}
	sessions, err := srv.session.store.ListSessions()
	if err != nil {
		srv.logger.Error("failed to list sessions", "error", err)
		srv.writeError(w, err)
		return
	}
	srv.writeJSON(w, http.StatusOK, sessions)
}

func (srv *Server) sessionTurnsHandler(w http.ResponseWriter, req *http.Request) {
	if srv.session.store == nil {
		srv.writeJSON(w, http.StatusOK, []models.TurnRecord{})
		return
	}
	turns, err := srv.session.store.ListTurns(chi.URLParam(req, "id"))
	if err != nil {
		srv.logger.Error("failed to list turns", "error", err)
		srv.writeError(w, err)
		return
	}
	srv.writeJSON(w, http.StatusOK, turns)
}

// wsHandler streams controller events to the client; inbound frames
// {"type":"transcript","text":...}, {"type":"talk"} and {"type":"refresh"}
// drive the tower.
func (srv *Server) wsHandler(w http.ResponseWriter, req *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, req, nil)
	if err != nil {
		srv.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()
	events, cancel := srv.session.ctrl.Subscribe(32)
	defer cancel()

	// the first frame is the full state so the client can render at once
	if err := srv.wsWrite(conn, wsFrame{Type: "snapshot", Data: srv.session.ctrl.Snapshot()}); err != nil {
		return
	}
	closed := make(chan struct{})
	go srv.wsReadLoop(conn, closed)

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := srv.wsWrite(conn, wsFrame{Type: ev.EventType(), Data: ev}); err != nil {
				srv.logger.Debug("ws write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func (srv *Server) wsWrite(conn *websocket.Conn, frame wsFrame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(frame)
}

func (srv *Server) wsReadLoop(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		var frame wsFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				srv.logger.Debug("ws read failed", "error", err)
			}
			return
		}
		var err error
		switch frame.Type {
		case "transcript":
			err = srv.session.submit(frame.Text)
		case "talk":
			err = srv.session.ctrl.Talk()
		case "refresh":
			err = srv.session.ctrl.RequestStatusRefresh()
		default:
			srv.logger.Debug("unknown ws frame", "type", frame.Type)
			continue
		}
		if err != nil {
			srv.logger.Info("ws command rejected", "type", frame.Type, "error", err)
		}
	}
}
