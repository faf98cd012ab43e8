package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// collect accumulates tailed chunks thread-safely
type collect struct {
	mu sync.Mutex
	sb strings.Builder
}

func (c *collect) add(chunk string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sb.WriteString(chunk)
}

func (c *collect) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sb.String()
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestTailDeliversAppends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compute.log")

	var got collect
	tailer := New(path, got.add).WithDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		tailer.Tail(ctx)
		close(done)
	}()

	// created after the tailer starts, like a real engine log
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("progress 10\n"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 2*time.Second, func() bool {
		return strings.Contains(got.String(), "progress 10")
	})

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("progress 50\n")
	f.Close()

	waitFor(t, 2*time.Second, func() bool {
		return strings.Contains(got.String(), "progress 50")
	})

	// appended content only, no duplication of earlier chunks
	if strings.Count(got.String(), "progress 10") != 1 {
		t.Errorf("chunk duplicated: %q", got.String())
	}

	cancel()
	<-done
}

func TestTailFinalDrainOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compute.log")
	if err := os.WriteFile(path, []byte("preexisting\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var got collect
	tailer := New(path, got.add)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tailer.Tail(ctx)
		close(done)
	}()

	waitFor(t, 2*time.Second, func() bool {
		return strings.Contains(got.String(), "preexisting")
	})
	cancel()
	<-done
}
