package server

import (
	"cs-stats-bridge/internal/auth"
	"cs-stats-bridge/internal/constants"
	"cs-stats-bridge/internal/repository"
	"cs-stats-bridge/internal/service"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type Server struct {
	ingestSvc  *service.IngestService
	authSvc    *service.AuthService
	profileSvc *service.ProfileService
	logger     zerolog.Logger
}

func NewServer(ingestSvc *service.IngestService, authSvc *service.AuthService, profileSvc *service.ProfileService, logger zerolog.Logger) *Server {
	return &Server{
		ingestSvc:  ingestSvc,
		authSvc:    authSvc,
		profileSvc: profileSvc,
		logger:     logger,
	}
}

func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/matchzy/webhook", s.handleWebhook)
	mux.HandleFunc("GET /auth/steam", s.handleLogin)
	mux.HandleFunc("GET /auth/steam/return", s.handleLoginReturn)
	mux.HandleFunc("GET /auth/token/{identity}", s.handleToken)
	mux.HandleFunc("GET /api/steam/profile/{identity}", s.handleProfile)
	mux.HandleFunc("GET /health", s.handleHealth)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read webhook body")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to read body"})
		return
	}

	if err := s.ingestSvc.ProcessWebhook(r.Context(), body); err != nil {
		s.logger.Error().Err(err).Msg("webhook rejected")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	redirect, err := s.authSvc.BeginLogin()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin login")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to begin login"})
		return
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (s *Server) handleLoginReturn(w http.ResponseWriter, r *http.Request) {
	token, err := s.authSvc.CompleteLogin(r.Context(), r)
	if err != nil {
		if errors.Is(err, auth.ErrVerificationFailed) || errors.Is(err, auth.ErrInvalidState) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "authentication failed"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "login failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"token": token})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	identity := r.PathValue("identity")

	token, err := s.authSvc.TokenFor(r.Context(), identity)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "User not found"})
			return
		}
		s.logger.Error().Err(err).Str("identity", identity).Msg("failed to issue token")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to issue token"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"token": token})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	identity := r.PathValue("identity")

	summary, err := s.profileSvc.GetProfile(r.Context(), identity)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to fetch profile"})
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   constants.Version,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
