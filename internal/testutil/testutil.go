// Package testutil provides fake upstream adapters shared by the pipeline,
// reconciliation and daemon tests.
package testutil

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/voxinv/voxinv/internal/extractor"
	"github.com/voxinv/voxinv/internal/logging"
	"github.com/voxinv/voxinv/internal/upstream"
)

// Logger returns a quiet logger for tests.
func Logger() *logging.Logger {
	return logging.New("error", "text")
}

// FakeTranscriber implements transcriber.Adapter.
type FakeTranscriber struct {
	mu sync.Mutex

	Text string
	Err  error

	Calls    int
	LastPath string
	LastMime string
	// PathExisted records whether the audio file existed when the call was
	// made, so tests can assert on the temp artifact lifecycle.
	PathExisted bool
}

func (f *FakeTranscriber) Transcribe(ctx context.Context, audioPath, mimeType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	f.LastPath = audioPath
	f.LastMime = mimeType
	if _, err := os.Stat(audioPath); err == nil {
		f.PathExisted = true
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}

// FakeCompleter implements extractor.Completer. Replies are consumed in
// order; the last one repeats. A non-zero Delay simulates a slow upstream:
// the call blocks until the context expires and fails with a
// ConnectivityError, like a real timed-out request.
type FakeCompleter struct {
	mu sync.Mutex

	Replies []string
	Err     error
	Delay   time.Duration

	Calls        int
	LastMessages []extractor.Message
	LastOptions  extractor.Options
}

func (f *FakeCompleter) Complete(ctx context.Context, messages []extractor.Message, opts extractor.Options) (string, error) {
	f.mu.Lock()
	f.Calls++
	call := f.Calls
	f.LastMessages = messages
	f.LastOptions = opts
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return "", &upstream.ConnectivityError{Err: ctx.Err()}
		}
	}
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Replies) == 0 {
		return "", nil
	}
	idx := call - 1
	if idx >= len(f.Replies) {
		idx = len(f.Replies) - 1
	}
	return f.Replies[idx], nil
}
