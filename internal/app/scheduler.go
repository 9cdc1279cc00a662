package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Snapshotter copies the stored data into timestamped backups
type Snapshotter interface {
	Snapshot(now time.Time) ([]string, error)
}

// BackupScheduler runs periodic snapshots on a cron schedule
type BackupScheduler struct {
	cron   *cron.Cron
	target Snapshotter
	log    *zap.Logger
	now    func() time.Time
}

// NewBackupScheduler parses spec and prepares a scheduler in loc
func NewBackupScheduler(spec string, loc *time.Location, target Snapshotter, log *zap.Logger) (*BackupScheduler, error) {
	b := &BackupScheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		target: target,
		log:    log,
		now:    time.Now,
	}
	if _, err := b.cron.AddFunc(spec, b.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}
	return b, nil
}

// RunOnce takes a single snapshot and logs the outcome
func (b *BackupScheduler) RunOnce() {
	files, err := b.target.Snapshot(b.now())
	if err != nil {
		b.log.Error("backup snapshot failed", zap.Error(err))
		return
	}
	b.log.Info("backup snapshot written", zap.Strings("files", files))
}

// Run starts the scheduler and blocks until ctx is canceled
func (b *BackupScheduler) Run(ctx context.Context) {
	b.cron.Start()
	<-ctx.Done()
	// wait for a running snapshot to finish
	<-b.cron.Stop().Done()
}
