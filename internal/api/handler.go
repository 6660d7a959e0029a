// Package api serves the dashboard REST endpoints: lot risk analysis,
// operator command dispatch and login.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"vasafe/backend/internal/auth"
	"vasafe/backend/internal/domain"
	"vasafe/backend/internal/health"
	"vasafe/backend/internal/metrics"
)

// WindowReader answers history window queries against the time-series
// store.
type WindowReader interface {
	ReadWindow(ctx context.Context, lotID string, lookback time.Duration, limit int) ([]*domain.Reading, error)
}

// Publisher sends an operator command towards the device.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte, retain bool) error
}

// Authenticator checks credentials and session tokens.
type Authenticator interface {
	Login(ctx context.Context, user, password string) (string, error)
	Validate(ctx context.Context, token string) bool
}

// Options configures the query window and the command topic namespace.
type Options struct {
	Namespace    string
	Lookback     time.Duration
	WindowLimit  int
	QueryTimeout time.Duration
	LoginName    string
}

// Handler is the HTTP handler for all dashboard endpoints.
type Handler struct {
	store     WindowReader
	publisher Publisher
	auth      Authenticator
	opts      Options
	mux       *http.ServeMux
}

// New creates a Handler and registers all routes.
func New(store WindowReader, publisher Publisher, authn Authenticator, opts Options) http.Handler {
	if opts.LoginName == "" {
		opts.LoginName = "Fiscal Sanitario"
	}
	h := &Handler{
		store:     store,
		publisher: publisher,
		auth:      authn,
		opts:      opts,
		mux:       http.NewServeMux(),
	}

	h.mux.HandleFunc("/analise/", h.analysis) // subtree — extracts {lote}
	h.mux.HandleFunc("/controle/", h.control) // subtree — extracts {lote}
	h.mux.HandleFunc("/login", h.login)
	h.mux.HandleFunc("/metrics", metrics.HandleMetrics)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// The dashboard is served from a different origin; mirror the
	// permissive CORS posture of the original backend.
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// analysis serves GET /analise/{lote}. It always answers HTTP 200 with
// the full response shape: on any store failure the verdict degrades
// to OFFLINE with a null score instead of surfacing an error. The
// dashboard never breaks.
func (h *Handler) analysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	lot := strings.TrimPrefix(r.URL.Path, "/analise/")
	if lot == "" {
		jsonErr(w, http.StatusNotFound, "missing lot id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.QueryTimeout)
	defer cancel()

	window, err := h.store.ReadWindow(ctx, lot, h.opts.Lookback, h.opts.WindowLimit)
	if err != nil {
		slog.Error("window read failed", "lot", lot, "err", err)
		jsonResp(w, http.StatusOK, AnalysisResponse{
			Lot:       lot,
			Risk:      toRisk(health.Offline()),
			Telemetry: TelemetrySnapshot{History: []HistoryEntry{}},
		})
		return
	}

	jsonResp(w, http.StatusOK, AnalysisResponse{
		Lot:       lot,
		Risk:      toRisk(health.Evaluate(window)),
		Telemetry: toTelemetry(window),
	})
}

// control serves POST /controle/{lote}: republishes the operator
// command to the lot's command topic as a retained message so the
// device receives it even if it only connects later.
func (h *Handler) control(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if !h.auth.Validate(r.Context(), bearerToken(r)) {
		jsonErr(w, http.StatusUnauthorized, "invalid or missing session token")
		return
	}

	lot := strings.TrimPrefix(r.URL.Path, "/controle/")
	if lot == "" {
		jsonErr(w, http.StatusNotFound, "missing lot id")
		return
	}

	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Command == "" {
		jsonErr(w, http.StatusBadRequest, "missing comando")
		return
	}

	payload, _ := json.Marshal(map[string]any{
		"comando":   req.Command,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	topic := fmt.Sprintf("%s/%s/comando", h.opts.Namespace, lot)

	if err := h.publisher.Publish(r.Context(), topic, payload, true); err != nil {
		slog.Error("command publish failed", "lot", lot, "err", err)
		jsonErr(w, http.StatusBadGateway, "broker unreachable")
		return
	}

	jsonResp(w, http.StatusOK, CommandResponse{
		Status:  "enviado",
		Lot:     lot,
		Command: req.Command,
	})
}

// login serves POST /login with a flat credential check.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "malformed request")
		return
	}

	token, err := h.auth.Login(r.Context(), req.User, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		jsonErr(w, http.StatusUnauthorized, "credenciais invalidas")
		return
	}
	if err != nil {
		slog.Error("login failed", "user", req.User, "err", err)
		jsonErr(w, http.StatusInternalServerError, "login unavailable")
		return
	}

	jsonResp(w, http.StatusOK, LoginResponse{Token: token, Name: h.opts.LoginName})
}

// --- helpers ----------------------------------------------------------------

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
}

func jsonResp(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "err", err)
	}
}

func jsonErr(w http.ResponseWriter, status int, msg string) {
	jsonResp(w, status, map[string]string{"error": msg})
}
