// Package server is the admin gateway in front of the correlation config
// service: the devops HTTP API and a gRPC health endpoint.
package server

import (
	"context"
	"log/slog"

	"github.com/alfredjeanlab/corrlog/internal/model"
	"github.com/alfredjeanlab/corrlog/internal/service"
)

// ConfigService is the subset of service.Service the gateway calls.
type ConfigService interface {
	GetConfigs(ctx context.Context) ([]model.CorrelationConfig, error)
	UpdateConfigs(ctx context.Context, configs []model.CorrelationConfig) (*service.UpdateResult, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the dependencies shared by the HTTP and gRPC surfaces.
type Server struct {
	svc    ConfigService
	health Pinger
	hub    *ChangeHub
	logger *slog.Logger
}

// New returns a Server. A nil logger falls back to slog.Default().
func New(svc ConfigService, health Pinger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, health: health, logger: logger}
}

// WithChangeHub enables the change stream endpoint backed by hub.
func (s *Server) WithChangeHub(hub *ChangeHub) *Server {
	s.hub = hub
	return s
}
