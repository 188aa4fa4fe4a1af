package reaper

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkers(t *testing.T) {
	tests := []struct {
		limit, count, want int
	}{
		{64, 100, 64},
		{64, 10, 10},
		{64, 1, 1},
		{0, 10, 1},
		{-3, 10, 1},
		{8, 0, 1},
	}
	for _, tt := range tests {
		if got := Workers(tt.limit, tt.count); got != tt.want {
			t.Errorf("Workers(%d, %d) = %d, want %d", tt.limit, tt.count, got, tt.want)
		}
	}
}

func newTestDropper(client *fakeClient, limit int, timeout time.Duration) (*Dropper, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Dropper{
		client:      client,
		limit:       limit,
		callTimeout: timeout,
		out:         &console{stdout: &stdout, stderr: &stderr},
	}, &stdout, &stderr
}

func TestDropper_CallTimeoutCountsAsError(t *testing.T) {
	client := &fakeClient{
		dropFunc: func(ctx context.Context, name string) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	d, _, stderr := newTestDropper(client, 4, 20*time.Millisecond)

	ok, failed := d.Run(context.Background(), testNames(3))

	assert.Equal(t, 0, ok)
	assert.Equal(t, 3, failed)
	for _, line := range strings.Split(strings.TrimSpace(stderr.String()), "\n") {
		assert.True(t, strings.HasPrefix(line, "Error while dropping "), line)
		assert.Contains(t, line, "context deadline exceeded")
	}
}

// syncBuffer is a bytes.Buffer safe to read while sequences write to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDropper_CancelledBeforeAdmission(t *testing.T) {
	release := make(chan struct{})
	client := &fakeClient{
		dropFunc: func(ctx context.Context, name string) error {
			<-release
			return nil
		},
	}
	var stdout bytes.Buffer
	stderr := &syncBuffer{}
	d := &Dropper{client: client, limit: 1, out: &console{stdout: &stdout, stderr: stderr}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var ok, failed int
	go func() {
		ok, failed = d.Run(ctx, testNames(5))
		close(done)
	}()

	// One sequence holds the only slot; the rest wait for admission.
	assert.Eventually(t, func() bool { return client.calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	assert.Eventually(t, func() bool { return strings.Count(stderr.String(), "context canceled") == 4 }, time.Second, time.Millisecond)
	close(release)
	<-done

	assert.Equal(t, 1, ok)
	assert.Equal(t, 4, failed)
}

func TestDropper_LinesDoNotInterleave(t *testing.T) {
	client := &fakeClient{
		dropFunc: func(ctx context.Context, name string) error {
			if strings.HasSuffix(name, "1") {
				return errors.New("nope")
			}
			return nil
		},
	}
	d, stdout, _ := newTestDropper(client, 16, 0)

	d.Run(context.Background(), testNames(50))

	for _, line := range strings.Split(strings.TrimSpace(stdout.String()), "\n") {
		assert.True(t, strings.HasPrefix(line, "Dropped cpast_api_tests_"), line)
	}
}
