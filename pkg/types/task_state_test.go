package types

import (
	"testing"
	"time"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", s, err)
	}
	return ts
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from TaskStatus
		to   TaskStatus
		want bool
	}{
		{"pending to in_progress", TaskPending, TaskInProgress, true},
		{"pending to cancelled", TaskPending, TaskCancelled, true},
		{"pending to done skips in_progress", TaskPending, TaskDone, false},
		{"in_progress to done", TaskInProgress, TaskDone, true},
		{"in_progress to cancelled", TaskInProgress, TaskCancelled, true},
		{"in_progress back to pending", TaskInProgress, TaskPending, false},
		{"done is terminal", TaskDone, TaskInProgress, false},
		{"done to cancelled", TaskDone, TaskCancelled, false},
		{"cancelled is terminal", TaskCancelled, TaskPending, false},
		{"cancelled to done", TaskCancelled, TaskDone, false},
		{"no self transition", TaskPending, TaskPending, false},
		{"no self transition in_progress", TaskInProgress, TaskInProgress, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestIsValidTaskStatus(t *testing.T) {
	for _, s := range ValidTaskStatuses {
		if !IsValidTaskStatus(s) {
			t.Errorf("IsValidTaskStatus(%q) = false, want true", s)
		}
	}
	if IsValidTaskStatus("archived") {
		t.Error("IsValidTaskStatus(\"archived\") = true, want false")
	}
	if IsValidTaskStatus("") {
		t.Error("IsValidTaskStatus(\"\") = true, want false")
	}
}

func TestWorkSessionDuration(t *testing.T) {
	start := mustParse(t, "2026-03-02T09:00:00Z")
	end := mustParse(t, "2026-03-02T09:45:00Z")

	open := &WorkSession{StartTime: start}
	if !open.Open() {
		t.Error("session without end time should be open")
	}
	if d := open.Duration(); d != 0 {
		t.Errorf("open session duration = %v, want 0", d)
	}

	closed := &WorkSession{StartTime: start, EndTime: &end}
	if closed.Open() {
		t.Error("session with end time should not be open")
	}
	if d := closed.Duration(); d.Minutes() != 45 {
		t.Errorf("closed session duration = %v, want 45m", d)
	}
}

func TestIsValidEntityType(t *testing.T) {
	for _, et := range ValidEntityTypes {
		if !IsValidEntityType(et) {
			t.Errorf("IsValidEntityType(%q) = false, want true", et)
		}
	}
	if IsValidEntityType("memory") {
		t.Error("IsValidEntityType(\"memory\") = true, want false")
	}
}
