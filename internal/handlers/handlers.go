package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"github.com/rkrmr33/quizlevels/internal/models"
	"github.com/rkrmr33/quizlevels/internal/quiz"
)

const sessionIDKey = "session_id"

// actions maps the presentation layer's inputs to state machine events.
// Timer events are internal and cannot be sent by clients.
var actions = map[string]quiz.EventKind{
	"start":       quiz.EventStart,
	"play-again":  quiz.EventPlayAgain,
	"answer-text": quiz.EventAnswerChanged,
	"submit":      quiz.EventSubmit,
	"next-level":  quiz.EventNextLevel,
	"retry-level": quiz.EventRetryLevel,
}

// Handler manages HTTP requests
type Handler struct {
	quizManager *quiz.Manager
	templates   *template.Template
	store       sessions.Store
	cookieName  string
}

// NewHandler creates a new HTTP handler
func NewHandler(quizManager *quiz.Manager, templates *template.Template, store sessions.Store, cookieName string) *Handler {
	return &Handler{
		quizManager: quizManager,
		templates:   templates,
		store:       store,
		cookieName:  cookieName,
	}
}

// Register wires every route onto the router
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/", h.HomeHandler).Methods("GET")
	r.HandleFunc("/health", h.HealthHandler).Methods("GET")

	r.HandleFunc("/api/session", h.CreateSessionHandler).Methods("POST")
	r.HandleFunc("/api/session/{id}", h.GetSessionHandler).Methods("GET")
	r.HandleFunc("/api/session/{id}", h.DeleteSessionHandler).Methods("DELETE")
	r.HandleFunc("/api/session/{id}/{action}", h.ActionHandler).Methods("POST")

	r.HandleFunc("/ws/{id}", h.WebSocketHandler)

	r.NotFoundHandler = http.HandlerFunc(h.NotFoundHandler)
}

// HomeHandler serves the quiz page, resuming the browser's session when it still exists
func (h *Handler) HomeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := h.boundSession(w, r)
	if err != nil {
		slog.Error("Home failed to bind session", "error", err)
		http.Error(w, "Failed to create quiz session", http.StatusInternalServerError)
		return
	}

	if err := h.templates.ExecuteTemplate(w, "index.html", map[string]interface{}{
		"SessionID": id,
	}); err != nil {
		slog.Error("Home failed to render template", "error", err)
	}
}

// HealthHandler reports liveness and the number of mounted sessions
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": h.quizManager.Count(),
	})
}

// NotFoundHandler serves the 404 page
func (h *Handler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	h.templates.ExecuteTemplate(w, "404.html", nil)
}

// CreateSessionHandler mounts a new quiz session and binds it to the browser
func (h *Handler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	slog.Info("CreateSession request received", "remote_addr", r.RemoteAddr)

	id, err := h.quizManager.CreateSession()
	if err != nil {
		slog.Error("CreateSession failed to create session", "error", err)
		http.Error(w, fmt.Sprintf("Failed to create session: %v", err), http.StatusInternalServerError)
		return
	}

	if err := h.bindCookie(w, r, id); err != nil {
		slog.Warn("CreateSession failed to save cookie", "error", err, "session_id", id)
	}

	slog.Info("CreateSession session created successfully", "session_id", id)

	writeJSON(w, http.StatusCreated, map[string]string{
		"id": id,
	})
}

// GetSessionHandler returns the current state of a session
func (h *Handler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	session, err := h.quizManager.GetSession(id)
	if err != nil {
		slog.Warn("GetSession session not found", "session_id", id)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session.Snapshot())
}

// DeleteSessionHandler unmounts a session
func (h *Handler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.quizManager.DeleteSession(id); err != nil {
		slog.Warn("DeleteSession failed", "error", err, "session_id", id)
		writeError(w, err)
		return
	}

	slog.Info("DeleteSession session removed", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// ActionHandler forwards a player action to the session and returns the new state
func (h *Handler) ActionHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	action := vars["action"]

	kind, ok := actions[action]
	if !ok {
		slog.Warn("Action unknown", "action", action, "session_id", id)
		http.Error(w, fmt.Sprintf("Unknown action: %s", action), http.StatusNotFound)
		return
	}

	var input models.AnswerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		slog.Error("Action failed to decode request body", "error", err, "action", action, "session_id", id)
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	snap, err := h.quizManager.Dispatch(id, quiz.Event{Kind: kind, Answer: input.Answer})
	if err != nil {
		slog.Warn("Action rejected", "error", err, "action", action, "session_id", id)
		writeError(w, err)
		return
	}

	slog.Debug("Action applied", "action", action, "session_id", id)
	writeJSON(w, http.StatusOK, snap)
}

// boundSession returns the session ID stored in the browser's cookie,
// mounting a fresh session when there is none or it has expired
func (h *Handler) boundSession(w http.ResponseWriter, r *http.Request) (string, error) {
	cookie, err := h.store.Get(r, h.cookieName)
	if err != nil {
		// a cookie signed with an old secret is replaced
		slog.Debug("Discarding unreadable session cookie", "error", err)
	}

	if id, ok := cookie.Values[sessionIDKey].(string); ok {
		if _, err := h.quizManager.GetSession(id); err == nil {
			return id, nil
		}
	}

	id, err := h.quizManager.CreateSession()
	if err != nil {
		return "", err
	}
	cookie.Values[sessionIDKey] = id
	if err := cookie.Save(r, w); err != nil {
		return "", fmt.Errorf("failed to save session cookie: %w", err)
	}
	slog.Info("Session bound to browser", "session_id", id)
	return id, nil
}

func (h *Handler) bindCookie(w http.ResponseWriter, r *http.Request, id string) error {
	cookie, _ := h.store.Get(r, h.cookieName)
	cookie.Values[sessionIDKey] = id
	return cookie.Save(r, w)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrSessionNotFound), errors.Is(err, quiz.ErrSessionClosed):
		http.Error(w, "Quiz session not found", http.StatusNotFound)
	case errors.Is(err, quiz.ErrInvalidTransition):
		http.Error(w, strings.TrimPrefix(err.Error(), quiz.ErrInvalidTransition.Error()+": "), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
