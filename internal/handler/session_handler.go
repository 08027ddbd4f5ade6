package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"appointment-booking-web/internal/model"
	"appointment-booking-web/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
}

type sessionState struct {
	SignedIn bool       `json:"signed_in"`
	Role     model.Role `json:"role,omitempty"`
}

// SessionState reports the role currently held by the caller's session.
func (h *Handler) SessionState(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var st sessionState
	if s := session.FromContext(r.Context()); s != nil {
		if role, err := h.sessions.Current(r.Context(), s.ID); err == nil {
			st = sessionState{SignedIn: true, Role: role}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(st)
}

type sessionEvent struct {
	Event    string     `json:"event"`
	Role     model.Role `json:"role,omitempty"`
	Redirect string     `json:"redirect,omitempty"`
}

// SessionEvents pushes role changes and logouts of the caller's session to
// every open page, so all tabs follow the same session state.
func (h *Handler) SessionEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s := session.FromContext(r.Context())
	if s == nil {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}
	// subscribe first so nothing published after the handshake is missed
	events, cancel := h.sessions.Subscribe(s.ID)
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade: %v", err)
		return
	}
	defer conn.Close()

	// reader: only pongs and close frames are expected
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			msg := sessionEvent{Event: ev.Kind.String(), Role: ev.Role}
			switch ev.Kind {
			case session.RoleChanged:
				msg.Redirect = ev.Role.HomePath()
			case session.Ended:
				msg.Redirect = "/auth/login"
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
			if ev.Kind == session.Ended {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
					time.Now().Add(writeWait))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
