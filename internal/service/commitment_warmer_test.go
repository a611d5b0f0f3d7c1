package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/visit-builder-api/internal/builder"
	"github.com/noah-isme/visit-builder-api/pkg/jobs"
)

type recordingFetcher struct {
	mu    sync.Mutex
	calls map[string]string
	done  chan struct{}
}

func (f *recordingFetcher) FetchTeacherCommitments(ctx context.Context, teacherID, date string) ([]builder.Commitment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[teacherID] = date
	if len(f.calls) == 2 {
		close(f.done)
	}
	return nil, nil
}

func TestCommitmentWarmerFetchesEachTeacher(t *testing.T) {
	fetcher := &recordingFetcher{calls: map[string]string{}, done: make(chan struct{})}
	warmer := NewCommitmentWarmer(fetcher, jobs.QueueConfig{Workers: 2, BufferSize: 8})
	warmer.Start(context.Background())
	defer warmer.Stop()

	require.Equal(t, 2, warmer.Warm("2024-03-04", []string{"T1", "T2"}))

	select {
	case <-fetcher.done:
	case <-time.After(time.Second):
		t.Fatal("commitments were not warmed")
	}
	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	assert.Equal(t, map[string]string{"T1": "2024-03-04", "T2": "2024-03-04"}, fetcher.calls)
}

func TestCommitmentWarmerNotStarted(t *testing.T) {
	warmer := NewCommitmentWarmer(&recordingFetcher{calls: map[string]string{}}, jobs.QueueConfig{})

	assert.Zero(t, warmer.Warm("2024-03-04", []string{"T1"}))
}
