package cron

import (
	"context"
	"errors"

	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
	"github.com/angelmondragon/foodbridge-backend/pkg/metrics"
)

type staleRequestRejecter interface {
	RejectStale(ctx context.Context, limit int) (int, error)
}

type StaleRequestsJobParams struct {
	Logger    *logger.Logger
	Requests  staleRequestRejecter
	Metrics   *metrics.CronJobMetrics
	BatchSize int
}

func NewStaleRequestsJob(params StaleRequestsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Requests == nil {
		return nil, errors.New("requests service required")
	}
	return &staleRequestsJob{
		logg:     params.Logger,
		requests: params.Requests,
		metrics:  params.Metrics,
		batch:    batchOrDefault(params.BatchSize),
	}, nil
}

// staleRequestsJob rejects pending requests left behind on listings that
// were claimed or expired.
type staleRequestsJob struct {
	logg     *logger.Logger
	requests staleRequestRejecter
	metrics  *metrics.CronJobMetrics
	batch    int
}

func (j *staleRequestsJob) Name() string { return "stale-requests" }

func (j *staleRequestsJob) Run(ctx context.Context) error {
	total := 0
	for i := 0; i < maxBatchesPerRun; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := j.requests.RejectStale(ctx, j.batch)
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
		j.logg.Info(j.logg.WithField(ctx, "requests_rejected", total), "rejected stale requests")
	}
	return nil
}
