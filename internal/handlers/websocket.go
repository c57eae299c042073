package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/rkrmr33/quizlevels/internal/models"
	"github.com/rkrmr33/quizlevels/internal/quiz"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// inboundMessage is a client input; the payload is decoded per action
type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WebSocketHandler streams session snapshots to the client and feeds its inputs back into the session
func (h *Handler) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	slog.Info("WebSocket connection request", "session_id", id, "remote_addr", r.RemoteAddr)

	session, err := h.quizManager.GetSession(id)
	if err != nil {
		slog.Error("WebSocket session not found", "error", err, "session_id", id)
		http.Error(w, "Quiz session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade error", "error", err, "session_id", id)
		return
	}

	slog.Info("WebSocket connection established", "session_id", id)

	updates, unsubscribe := session.Subscribe()
	replies := make(chan models.WebSocketMessage, 8)
	done := make(chan struct{})
	go writePump(conn, id, updates, replies, done)

	defer func() {
		close(done)
		unsubscribe()
		conn.Close()
		slog.Info("WebSocket connection closed", "session_id", id)
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("WebSocket read error", "error", err, "session_id", id)
			}
			return
		}

		ev, err := decodeInput(data)
		if err == nil {
			err = session.Dispatch(ev)
		}
		if err != nil {
			if errors.Is(err, quiz.ErrSessionClosed) {
				return
			}
			slog.Warn("WebSocket input rejected", "error", err, "session_id", id)
			reply(replies, models.WebSocketMessage{
				Type:    "error",
				Payload: models.ErrorPayload{Message: err.Error()},
			})
		}
	}
}

func decodeInput(data []byte) (quiz.Event, error) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return quiz.Event{}, errors.New("invalid message format")
	}

	kind, ok := actions[msg.Type]
	if !ok {
		return quiz.Event{}, errors.New("unknown action: " + msg.Type)
	}

	var input models.AnswerInput
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &input); err != nil {
			return quiz.Event{}, errors.New("invalid payload for " + msg.Type)
		}
	}

	return quiz.Event{Kind: kind, Answer: input.Answer}, nil
}

func reply(replies chan<- models.WebSocketMessage, msg models.WebSocketMessage) {
	select {
	case replies <- msg:
	default:
		slog.Warn("WebSocket reply dropped, client is not reading", "msg_type", msg.Type)
	}
}

// writePump is the only writer on the connection
func writePump(conn *websocket.Conn, id string, updates <-chan models.Snapshot, replies <-chan models.WebSocketMessage, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case snap, ok := <-updates:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if err := conn.WriteJSON(models.WebSocketMessage{Type: "state", Payload: snap}); err != nil {
				slog.Error("Error sending state", "error", err, "session_id", id)
				return
			}

		case msg := <-replies:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				slog.Error("Error sending reply", "error", err, "session_id", id, "msg_type", msg.Type)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}
