package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
	"github.com/angelmondragon/foodbridge-backend/pkg/metrics"
)

const defaultOutboxRetention = 30 * 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
	DeleteTerminalBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository outboxRetentionRepo
	Metrics    *metrics.CronJobMetrics
	Retention  time.Duration
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.DB == nil {
		return nil, errors.New("db runner required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultOutboxRetention
	}
	return &outboxRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		metrics:   params.Metrics,
		retention: retention,
		now:       time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      outboxRetentionRepo
	metrics   *metrics.CronJobMetrics
	retention time.Duration
	now       func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

// Run drops published and parked outbox rows older than the retention
// window. The two deletes run in separate transactions so one failing does
// not hold back the other.
func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)

	var published, parked int64
	pubErr := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		published, err = j.repo.DeletePublishedBefore(tx, cutoff)
		return err
	})
	if pubErr != nil {
		pubErr = fmt.Errorf("delete published outbox rows: %w", pubErr)
	}
	termErr := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		parked, err = j.repo.DeleteTerminalBefore(tx, cutoff)
		return err
	})
	if termErr != nil {
		termErr = fmt.Errorf("delete terminal outbox rows: %w", termErr)
	}

	j.metrics.AddAffected(j.Name(), int(published+parked))
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":           cutoff,
		"published_purged": published,
		"terminal_purged":  parked,
	}), "outbox retention sweep complete")
	return multierr.Combine(pubErr, termErr)
}
