package domain

import (
	"testing"
	"time"
)

func TestRunStatusTerminal(t *testing.T) {
	tests := []struct {
		status   RunStatus
		terminal bool
	}{
		{RunStatusPending, false},
		{RunStatusRunning, false},
		{RunStatusCompleted, true},
		{RunStatusFailed, true},
		{RunStatusCanceled, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("RunStatus(%s).Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestRunLifecycle(t *testing.T) {
	r := &Run{ID: "abc", Status: RunStatusPending}

	start := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	r.MarkRunning(start)
	if r.Status != RunStatusRunning {
		t.Fatalf("Status = %s, want running", r.Status)
	}
	if r.Duration() != 0 {
		t.Error("Duration() should be zero before finish")
	}

	finish := start.Add(90 * time.Minute)
	r.MarkCompleted(finish)
	if r.Status != RunStatusCompleted {
		t.Fatalf("Status = %s, want completed", r.Status)
	}
	if r.Duration() != 90*time.Minute {
		t.Errorf("Duration() = %s, want 90m", r.Duration())
	}
}

func TestRunMarkFailed(t *testing.T) {
	r := &Run{ID: "abc", Status: RunStatusRunning}
	now := time.Now()
	r.MarkFailed(now, "engine exited with code 2")

	if r.Status != RunStatusFailed {
		t.Errorf("Status = %s, want failed", r.Status)
	}
	if r.Error == "" {
		t.Error("Error should carry the failure cause")
	}
}

func TestBatchSummary(t *testing.T) {
	var b BatchSummary
	b.Add(RunStatusCompleted)
	b.Add(RunStatusCompleted)
	b.Add(RunStatusFailed)
	b.Add(RunStatusCanceled)

	if b.Total != 4 || b.Completed != 2 || b.Failed != 1 || b.Canceled != 1 {
		t.Errorf("summary = %+v", b)
	}
	if b.Clean() {
		t.Error("Clean() should be false with failures")
	}

	clean := BatchSummary{}
	clean.Add(RunStatusCompleted)
	if !clean.Clean() {
		t.Error("Clean() should be true when all runs completed")
	}
	if (&BatchSummary{}).Clean() {
		t.Error("empty batch is not clean")
	}
}
