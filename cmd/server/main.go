package main

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"

	"github.com/rkrmr33/quizlevels/config"
	"github.com/rkrmr33/quizlevels/internal/bank"
	"github.com/rkrmr33/quizlevels/internal/handlers"
	"github.com/rkrmr33/quizlevels/internal/models"
	"github.com/rkrmr33/quizlevels/internal/parser"
	"github.com/rkrmr33/quizlevels/internal/quiz"
)

func main() {
	cfg := config.Load()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.Level,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting quiz server")

	questionBank, err := loadBank(cfg.Quiz.BankPath)
	if err != nil {
		slog.Error("Failed to load question bank", "error", err, "path", cfg.Quiz.BankPath)
		os.Exit(1)
	}
	for _, level := range models.Levels {
		slog.Info("Question bank level loaded",
			"level", level,
			"questions", len(questionBank.Levels[level]),
			"points", questionBank.PointsFor(level))
	}

	quizManager := quiz.NewManager(questionBank, clockwork.NewRealClock())
	slog.Info("Quiz manager initialized")

	templates := template.Must(template.ParseGlob(filepath.Join(cfg.Server.TemplatesDir, "*.html")))
	slog.Info("Templates loaded successfully")

	store := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Session.IdleTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	handler := handlers.NewHandler(quizManager, templates, store, cfg.Session.CookieName)

	r := mux.NewRouter()
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.Server.StaticDir))))
	handler.Register(r)

	slog.Info("Routes configured")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Cleanup goroutine
	go func() {
		ticker := time.NewTicker(cfg.Session.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := quizManager.CleanupIdleSessions(cfg.Session.IdleTTL)
				slog.Info("Running session cleanup", "removed", removed, "remaining", quizManager.Count())
			}
		}
	}()

	server := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Quiz server starting", "port", cfg.Server.HTTPPort, "url", "http://localhost:"+cfg.Server.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down quiz server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	quizManager.CloseAll()
	slog.Info("Quiz server stopped")
}

func loadBank(path string) (*bank.Bank, error) {
	if path == "" {
		return parser.LoadDefault()
	}
	return parser.LoadFile(path)
}
