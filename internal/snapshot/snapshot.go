package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Destination is the interface for a snapshot target (S3, git, etc.).
type Destination interface {
	// Name identifies the destination in logs.
	Name() string
	// Write sends the JSONL payload described by h to the destination.
	// A destination may skip the write when it already holds a snapshot
	// with the same digest.
	Write(ctx context.Context, h *Header, data []byte) error
}

// Scheduler runs periodic exports to one or more destinations.
type Scheduler struct {
	source       Source
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from src to the given
// destinations at the specified interval.
func NewScheduler(src Source, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		source:       src,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start begins periodic export. It runs an initial export immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current export (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.runLogged(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *Scheduler) runLogged(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("snapshot failed", "err", err)
	}
}

// RunOnce exports once and writes to every destination. A failing
// destination does not stop the others; all failures are returned together.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var buf bytes.Buffer
	h, err := ExportJSONL(ctx, s.source, &buf)
	if err != nil {
		return fmt.Errorf("snapshot export: %w", err)
	}
	data := buf.Bytes()

	var errs *multierror.Error
	for _, dest := range s.destinations {
		if err := dest.Write(ctx, h, data); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("destination %s: %w", dest.Name(), err))
		}
	}

	s.logger.Info("snapshot completed",
		"id", h.ID,
		"configs", h.ConfigCount,
		"destinations", len(s.destinations),
		"bytes", len(data),
	)
	return errs.ErrorOrNil()
}
