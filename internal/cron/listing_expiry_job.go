package cron

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
	"github.com/angelmondragon/foodbridge-backend/pkg/metrics"
)

const (
	defaultBatchSize = 200
	maxBatchesPerRun = 50
)

type listingExpirer interface {
	ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error)
}

type ListingExpiryJobParams struct {
	Logger    *logger.Logger
	Listings  listingExpirer
	Metrics   *metrics.CronJobMetrics
	BatchSize int
}

func NewListingExpiryJob(params ListingExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Listings == nil {
		return nil, errors.New("listings service required")
	}
	return &listingExpiryJob{
		logg:     params.Logger,
		listings: params.Listings,
		metrics:  params.Metrics,
		batch:    batchOrDefault(params.BatchSize),
		now:      time.Now,
	}, nil
}

type listingExpiryJob struct {
	logg     *logger.Logger
	listings listingExpirer
	metrics  *metrics.CronJobMetrics
	batch    int
	now      func() time.Time
}

func (j *listingExpiryJob) Name() string { return "listing-expiry" }

// Run expires overdue listings batch by batch until a short batch comes
// back. The cutoff is fixed at the start of the run.
func (j *listingExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	total := 0
	for i := 0; i < maxBatchesPerRun; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := j.listings.ExpireOverdue(ctx, now, j.batch)
		total += n
		if err != nil {
			j.metrics.AddAffected(j.Name(), total)
			return err
		}
		if n < j.batch {
			break
		}
	}
	j.metrics.AddAffected(j.Name(), total)
	if total > 0 {
		j.logg.Info(j.logg.WithFields(ctx, map[string]any{
			"cutoff":           now,
			"listings_expired": total,
		}), "expired overdue listings")
	}
	return nil
}

func batchOrDefault(n int) int {
	if n <= 0 {
		return defaultBatchSize
	}
	return n
}
