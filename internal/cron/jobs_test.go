package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
)

type fakeExpirer struct {
	batches []int
	err     error
	cutoffs []time.Time
	limits  []int
}

func (f *fakeExpirer) ExpireOverdue(_ context.Context, now time.Time, limit int) (int, error) {
	f.cutoffs = append(f.cutoffs, now)
	f.limits = append(f.limits, limit)
	if len(f.batches) == 0 {
		return 0, f.err
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	return n, nil
}

func TestListingExpiryJobDrainsFullBatches(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.FixedZone("EST", -5*3600))
	expirer := &fakeExpirer{batches: []int{2, 2, 1}}
	job, err := NewListingExpiryJob(ListingExpiryJobParams{Logger: logger.Nop(), Listings: expirer, BatchSize: 2})
	if err != nil {
		t.Fatalf("NewListingExpiryJob: %v", err)
	}
	job.(*listingExpiryJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(expirer.cutoffs) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(expirer.cutoffs))
	}
	for _, c := range expirer.cutoffs {
		if !c.Equal(now) || c.Location() != time.UTC {
			t.Fatalf("cutoff %v should be the run start in UTC", c)
		}
	}
	if expirer.limits[0] != 2 {
		t.Fatalf("expected batch limit 2, got %d", expirer.limits[0])
	}
}

func TestListingExpiryJobReturnsServiceError(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("db gone")}
	job, _ := NewListingExpiryJob(ListingExpiryJobParams{Logger: logger.Nop(), Listings: expirer})
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if job.Name() != "listing-expiry" {
		t.Fatalf("unexpected name %q", job.Name())
	}
}

type fakeRejecter struct {
	batches []int
	calls   int
}

func (f *fakeRejecter) RejectStale(_ context.Context, limit int) (int, error) {
	f.calls++
	if len(f.batches) == 0 {
		return 0, nil
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	return n, nil
}

func TestStaleRequestsJob(t *testing.T) {
	rejecter := &fakeRejecter{batches: []int{defaultBatchSize, 3}}
	job, err := NewStaleRequestsJob(StaleRequestsJobParams{Logger: logger.Nop(), Requests: rejecter})
	if err != nil {
		t.Fatalf("NewStaleRequestsJob: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rejecter.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", rejecter.calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := job.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestJobConstructorsValidate(t *testing.T) {
	if _, err := NewListingExpiryJob(ListingExpiryJobParams{Logger: logger.Nop()}); err == nil {
		t.Fatal("expected listings error")
	}
	if _, err := NewStaleRequestsJob(StaleRequestsJobParams{Requests: &fakeRejecter{}}); err == nil {
		t.Fatal("expected logger error")
	}
	if _, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: logger.Nop(), DB: passthroughTx{}}); err == nil {
		t.Fatal("expected repository error")
	}
}

type passthroughTx struct{}

func (passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type fakeRetentionRepo struct {
	cutoff     time.Time
	publishErr error
	calls      int
}

func (f *fakeRetentionRepo) DeletePublishedBefore(_ *gorm.DB, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return 4, f.publishErr
}

func (f *fakeRetentionRepo) DeleteTerminalBefore(_ *gorm.DB, cutoff time.Time) (int64, error) {
	f.calls++
	return 1, nil
}

func TestOutboxRetentionJob(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeRetentionRepo{}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: logger.Nop(), DB: passthroughTx{}, Repository: repo})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	job.(*outboxRetentionJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := now.Add(-defaultOutboxRetention); !repo.cutoff.Equal(want) {
		t.Fatalf("cutoff = %v, want %v", repo.cutoff, want)
	}
}

func TestOutboxRetentionJobStillPurgesTerminalOnError(t *testing.T) {
	repo := &fakeRetentionRepo{publishErr: errors.New("boom")}
	job, _ := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: logger.Nop(), DB: passthroughTx{}, Repository: repo})
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if repo.calls != 2 {
		t.Fatalf("expected both deletes attempted, got %d", repo.calls)
	}
}
