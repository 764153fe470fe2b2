// Package maintenance runs periodic housekeeping over conversations.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bbdeals/wacrm/internal/config"
)

// InactiveArchiver archives conversations with no activity since the threshold.
type InactiveArchiver interface {
	ArchiveInactive(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Archiver runs InactiveArchiver on a cron schedule.
type Archiver struct {
	target   InactiveArchiver
	schedule string
	after    time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
	mu       sync.Mutex
	entryID  cron.EntryID
	started  bool
}

func NewArchiver(log *slog.Logger, target InactiveArchiver, cfg config.MaintenanceConfig) *Archiver {
	if log == nil {
		log = slog.Default()
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Archiver{
		target:   target,
		schedule: strings.TrimSpace(cfg.ArchiveCron),
		after:    cfg.After(),
		cron:     cron.New(cron.WithParser(parser)),
		logger:   log.With(slog.String("service", "maintenance")),
	}
}

// Start registers the job and starts the scheduler. An empty schedule disables the job.
func (a *Archiver) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.schedule == "" {
		a.logger.Info("conversation archiver disabled")
		return nil
	}
	if a.started {
		return nil
	}
	id, err := a.cron.AddFunc(a.schedule, func() {
		if _, err := a.RunOnce(context.Background()); err != nil {
			a.logger.Error("archive inactive conversations failed", slog.Any("error", err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid archive schedule %q: %w", a.schedule, err)
	}
	a.entryID = id
	a.started = true
	a.cron.Start()
	a.logger.Info("conversation archiver started", slog.String("schedule", a.schedule), slog.Duration("archive_after", a.after))
	return nil
}

// Stop halts the scheduler and waits for a running job, bounded by ctx.
func (a *Archiver) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return nil
	}
	a.started = false
	a.cron.Remove(a.entryID)
	a.mu.Unlock()

	done := a.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce archives inactive conversations now.
func (a *Archiver) RunOnce(ctx context.Context) (int64, error) {
	n, err := a.target.ArchiveInactive(ctx, a.after)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		a.logger.Info("archived inactive conversations", slog.Int64("count", n))
	}
	return n, nil
}
