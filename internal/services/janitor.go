package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Janitor periodically deletes consumed and expired credentials.
type Janitor struct {
	creds CredentialStore
	log   *zap.Logger
	cron  *cron.Cron
	now   func() time.Time
}

func NewJanitor(creds CredentialStore, log *zap.Logger) *Janitor {
	return &Janitor{creds: creds, log: log, cron: cron.New(), now: time.Now}
}

// Start schedules the purge with a cron spec such as "@every 10m".
func (j *Janitor) Start(spec string) error {
	if _, err := j.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		j.RunOnce(ctx)
	}); err != nil {
		return err
	}
	j.cron.Start()
	j.log.Info("credential janitor started", zap.String("schedule", spec))
	return nil
}

// RunOnce purges credentials that stopped being usable before now.
func (j *Janitor) RunOnce(ctx context.Context) int64 {
	n, err := j.creds.PurgeExpired(ctx, j.now())
	if err != nil {
		j.log.Warn("credential purge failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		j.log.Info("purged credentials", zap.Int64("count", n))
	}
	return n
}

// Stop waits for a running purge to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}
