// Package http exposes the configuration, registry and status API plus the
// notification RSS mirror.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sloghttp "github.com/samber/slog-http"

	accountService "tweetwatch/internal/modules/account/service"
	"tweetwatch/internal/modules/feed"
	"tweetwatch/internal/modules/monitor"
	"tweetwatch/internal/shared/config"
)

// TestSender lets operators verify the messaging credentials
type TestSender interface {
	Send(ctx context.Context, text string) error
}

// Server handles the HTTP API
type Server struct {
	cfg      *config.Config
	accounts *accountService.Service
	monitor  *monitor.Service
	feed     *feed.Service
	sender   TestSender
	logger   *slog.Logger
}

// New creates a new HTTP server
func New(cfg *config.Config, accounts *accountService.Service, mon *monitor.Service, feedSvc *feed.Service, sender TestSender) *Server {
	return &Server{
		cfg:      cfg,
		accounts: accounts,
		monitor:  mon,
		feed:     feedSvc,
		sender:   sender,
		logger:   slog.Default(),
	}
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Start starts the HTTP server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/config", s.handleConfig)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleAddAccount)
	mux.HandleFunc("DELETE /api/accounts/{handle}", s.handleDeleteAccount)
	mux.HandleFunc("POST /api/accounts/{handle}/enable", s.handleToggleAccount(true))
	mux.HandleFunc("POST /api/accounts/{handle}/disable", s.handleToggleAccount(false))

	mux.HandleFunc("POST /api/monitor/start", s.handleMonitorStart)
	mux.HandleFunc("POST /api/monitor/stop", s.handleMonitorStop)
	mux.HandleFunc("POST /api/telegram/test", s.handleTelegramTest)

	mux.HandleFunc("GET /rss/notifications", s.handleNotificationFeed)

	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("HTTP server starting", "addr", addr)

	// Use slog-http middleware with recovery
	handler := sloghttp.Recovery(mux)
	handler = sloghttp.New(s.logger)(handler)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.List()
	if err != nil {
		s.logger.Error("Failed to list accounts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"is_running":         s.monitor.Running(),
		"monitored_accounts": len(accounts),
		"active_schedules":   len(s.monitor.Watched()),
		"degraded_accounts":  s.monitor.Degraded(),
	})
}

// handleConfig returns the effective configuration with credentials redacted.
// Config changes go through the config file or environment, not this API.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"twitter_api_key":    redact(s.cfg.TwitterAPIKey),
		"telegram_bot_token": redact(s.cfg.TelegramBotToken),
		"telegram_chat_id":   s.cfg.TelegramChatID,
		"check_interval":     s.cfg.CheckInterval,
		"storm_cap":          s.cfg.StormCap,
		"fingerprint_window": s.cfg.FingerprintWindow,
		"monthly_spend_cap":  s.cfg.MonthlySpendCap,
	})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.List()
	if err != nil {
		s.logger.Error("Failed to list accounts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (s *Server) handleAddAccount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Handle string `json:"handle"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Handle == "" {
		writeError(w, http.StatusBadRequest, "handle is required")
		return
	}

	account, err := s.accounts.Add(r.Context(), body.Handle)
	if err != nil {
		s.logger.Warn("Failed to add account", "handle", body.Handle, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"account": account})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	if err := s.accounts.Remove(handle); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
}

func (s *Server) handleToggleAccount(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handle := r.PathValue("handle")
		if err := s.accounts.SetEnabled(handle, enabled); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
	}
}

func (s *Server) handleMonitorStart(w http.ResponseWriter, r *http.Request) {
	handles, err := s.accounts.EnabledHandles()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}

	s.monitor.Start(handles)
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "is_running": true})
}

func (s *Server) handleMonitorStop(w http.ResponseWriter, r *http.Request) {
	s.monitor.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "is_running": false})
}

func (s *Server) handleTelegramTest(w http.ResponseWriter, r *http.Request) {
	err := s.sender.Send(r.Context(), "🔔 Test message\n\ntweetwatch is configured correctly!")
	if err != nil {
		s.logger.Warn("Telegram test send failed", "error", err)
		writeError(w, http.StatusBadGateway, "send failed, check credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
}

func (s *Server) handleNotificationFeed(w http.ResponseWriter, r *http.Request) {
	baseURL := fmt.Sprintf("%s://%s", getScheme(r), r.Host)

	rss, err := s.feed.Generate(baseURL).ToRss()
	if err != nil {
		s.logger.Error("Error converting feed to RSS", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate RSS")
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rss))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"status": "error", "msg": msg})
}

func redact(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}

func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
