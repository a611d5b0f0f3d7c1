package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/visit-builder-api/internal/builder"
	"github.com/noah-isme/visit-builder-api/pkg/jobs"
)

type commitmentFetcher interface {
	FetchTeacherCommitments(ctx context.Context, teacherID, date string) ([]builder.Commitment, error)
}

type warmRequest struct {
	teacherID string
	date      string
}

// CommitmentWarmer loads teacher commitments in the background so the first
// drop of a freshly opened session is served from the cache.
type CommitmentWarmer struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewCommitmentWarmer builds a warmer backed by a worker queue.
func NewCommitmentWarmer(commitments commitmentFetcher, cfg jobs.QueueConfig) *CommitmentWarmer {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		req, ok := job.Payload.(warmRequest)
		if !ok {
			return nil
		}
		_, err := commitments.FetchTeacherCommitments(ctx, req.teacherID, req.date)
		return err
	}
	return &CommitmentWarmer{queue: jobs.NewQueue("commitment-warmer", handler, cfg), logger: cfg.Logger}
}

// Start runs the workers until ctx is cancelled or Stop is called.
func (w *CommitmentWarmer) Start(ctx context.Context) { w.queue.Start(ctx) }

// Stop halts the workers.
func (w *CommitmentWarmer) Stop() { w.queue.Stop() }

// Warm queues one lookup per teacher and returns how many were accepted.
// A full queue drops the remainder; the drop path fetches on demand anyway.
func (w *CommitmentWarmer) Warm(date string, teacherIDs []string) int {
	queued := 0
	for _, id := range teacherIDs {
		err := w.queue.TryEnqueue(jobs.Job{Key: date + ":" + id, Payload: warmRequest{teacherID: id, date: date}})
		if errors.Is(err, jobs.ErrQueueFull) {
			w.logger.Debug("commitment warm queue full", zap.Int("skipped", len(teacherIDs)-queued))
			break
		}
		if err != nil {
			w.logger.Warn("commitment warm skipped", zap.Error(err))
			break
		}
		queued++
	}
	return queued
}
