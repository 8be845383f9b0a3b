// Package service fronts the correlation config store with permission
// checks and the post-commit change notification.
package service

import (
	"context"
	"log/slog"

	"github.com/alfredjeanlab/corrlog/internal/auth"
	"github.com/alfredjeanlab/corrlog/internal/model"
	"github.com/alfredjeanlab/corrlog/internal/store"
)

// Notifier is told about every committed config update.
type Notifier interface {
	ConfigsCommitted(ctx context.Context, caller auth.Caller, configs []model.CorrelationConfig) error
}

// NopNotifier ignores notifications.
type NopNotifier struct{}

func (NopNotifier) ConfigsCommitted(context.Context, auth.Caller, []model.CorrelationConfig) error {
	return nil
}

// UpdateResult describes the outcome of UpdateConfigs. NotifyErr is set
// when the configs were committed but the change notification failed; it
// never turns a committed update into a failure.
type UpdateResult struct {
	Committed bool
	NotifyErr error
}

// Service implements the correlation config operations.
type Service struct {
	store    store.ConfigStore
	authz    auth.Authorizer
	notifier Notifier
	logger   *slog.Logger
}

// New returns a Service. A nil notifier disables notifications and a nil
// logger falls back to slog.Default().
func New(s store.ConfigStore, authz auth.Authorizer, notifier Notifier, logger *slog.Logger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    s,
		authz:    authz,
		notifier: notifier,
		logger:   logger,
	}
}

// authorize checks the caller in ctx for PermissionAdmin. It never touches
// the store.
func (s *Service) authorize(ctx context.Context) (auth.Caller, error) {
	caller, ok := auth.CallerFrom(ctx)
	if !ok || !s.authz.HasPermission(ctx, caller, auth.PermissionAdmin) {
		s.logger.Warn("invalid logging permission", "user", caller.String(), "permission", auth.PermissionAdmin)
		return caller, &model.PermissionDeniedError{
			User:       caller.Username,
			Permission: string(auth.PermissionAdmin),
		}
	}
	return caller, nil
}

// GetConfigs returns every correlation config as stored.
func (s *Service) GetConfigs(ctx context.Context) ([]model.CorrelationConfig, error) {
	if _, err := s.authorize(ctx); err != nil {
		return nil, err
	}
	return s.store.GetAll(ctx)
}

// UpdateConfigs writes configs in one transaction and, once committed,
// notifies the change exactly once. The returned error covers permission,
// validation and persistence failures only.
func (s *Service) UpdateConfigs(ctx context.Context, configs []model.CorrelationConfig) (*UpdateResult, error) {
	caller, err := s.authorize(ctx)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.UpdateAll(ctx, configs)
	if err != nil {
		s.logger.Error("failed to update correlation configs", "user", caller.String(), "err", err)
		return nil, err
	}
	result := &UpdateResult{Committed: ok}
	if !ok {
		return result, nil
	}

	s.logger.Info("correlation configs updated", "user", caller.String(), "components", componentNames(configs))

	if err := s.notifier.ConfigsCommitted(ctx, caller, configs); err != nil {
		result.NotifyErr = &model.NotifyError{Err: err}
		s.logger.Warn("correlation config change notification failed", "user", caller.String(), "err", err)
	}
	return result, nil
}

// EnsureDefaults seeds the default configs when the store is empty. It
// reports whether seeding ran. Called at startup, so no caller is checked.
func (s *Service) EnsureDefaults(ctx context.Context) (bool, error) {
	exists, err := s.store.Exists(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := s.store.SeedDefaults(ctx); err != nil {
		return false, err
	}
	s.logger.Info("seeded default correlation configs", "components", len(model.Components()))
	return true, nil
}

func componentNames(configs []model.CorrelationConfig) []string {
	names := make([]string, len(configs))
	for i, c := range configs {
		names[i] = string(c.Component)
	}
	return names
}
