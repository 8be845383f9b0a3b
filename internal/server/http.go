package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alfredjeanlab/corrlog/internal/auth"
	"github.com/alfredjeanlab/corrlog/internal/model"
)

const (
	// CorrelationPath is the devops endpoint for correlation configs.
	CorrelationPath = "/api/devops/v0/config/correlation"
	// HealthPath is served without authentication.
	HealthPath = "/v1/health"

	// NotifyWarningHeader is set on a successful PUT whose change
	// notification could not be delivered.
	NotifyWarningHeader = "X-Notify-Warning"

	maxBodyBytes  = 1 << 20
	healthTimeout = 2 * time.Second
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// Requests other than GET /v1/health must carry a bearer token found in
// tokens.
func (s *Server) NewHTTPHandler(tokens auth.TokenTable) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+CorrelationPath, s.handleGetCorrelation)
	mux.HandleFunc("PUT "+CorrelationPath, s.handlePutCorrelation)
	mux.HandleFunc("GET "+StreamPath, s.handleStream)
	mux.HandleFunc("GET "+HealthPath, s.handleHealth)

	var h http.Handler = mux
	h = AuthMiddleware(tokens, h)
	h = RecoveryMiddleware(s.logger, h)
	h = RequestLogMiddleware(s.logger, h)
	return h
}

// handleGetCorrelation handles GET /api/devops/v0/config/correlation.
func (s *Server) handleGetCorrelation(w http.ResponseWriter, r *http.Request) {
	configs, err := s.svc.GetConfigs(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to retrieve the correlation configs")
		return
	}
	writeJSON(w, http.StatusOK, model.ConfigList{Components: configs})
}

// handlePutCorrelation handles PUT /api/devops/v0/config/correlation.
func (s *Server) handlePutCorrelation(w http.ResponseWriter, r *http.Request) {
	var body model.ConfigList
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	// Component names are checked before the service sees the request.
	if err := model.ValidateComponents(body.Components); err != nil {
		var ice *model.InvalidComponentError
		if errors.As(err, &ice) {
			writeInvalidComponent(w, ice.Name)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for i := range body.Components {
		if body.Components[i].Properties == nil {
			body.Components[i].Properties = []model.CorrelationConfigProperty{}
		}
	}

	result, err := s.svc.UpdateConfigs(r.Context(), body.Components)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to update the correlation configs")
		return
	}
	if !result.Committed {
		writeError(w, http.StatusInternalServerError, "Failed to update the correlation configs")
		return
	}
	if result.NotifyErr != nil {
		w.Header().Set(NotifyWarningHeader, "configuration change notification failed")
	}
	writeJSON(w, http.StatusOK, body)
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			s.logger.Warn("health check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps a service error to a status code. Persistence
// details are logged, not returned.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, failure string) {
	switch {
	case errors.Is(err, model.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, model.ErrInvalidComponent):
		var ice *model.InvalidComponentError
		if errors.As(err, &ice) {
			writeInvalidComponent(w, ice.Name)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
	case model.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("correlation config request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFrom(r.Context()),
			"err", err,
		)
		writeError(w, http.StatusInternalServerError, failure)
	}
}

func writeInvalidComponent(w http.ResponseWriter, name string) {
	writeJSON(w, http.StatusBadRequest, &model.ErrorBody{
		Code:        http.StatusBadRequest,
		Message:     http.StatusText(http.StatusBadRequest),
		Description: fmt.Sprintf("Invalid Component Name: %s. ", name),
		MoreInfo:    model.ValidComponentsHint(),
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, description string) {
	writeJSON(w, status, &model.ErrorBody{
		Code:        int64(status),
		Message:     http.StatusText(status),
		Description: description,
	})
}
