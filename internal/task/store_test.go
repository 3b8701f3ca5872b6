package task

import (
	"errors"
	"testing"
	"time"
)

func TestStoreCreateAndGet(t *testing.T) {
	s := NewStore(time.Hour, nil)

	created, fresh := s.Create("https://x.com/u/status/1", "mp4-832000", nil)
	if !fresh {
		t.Fatal("expected a fresh task")
	}

	if created.ID == "" {
		t.Fatal("expected non-empty task id")
	}
	if len(created.ID) < 32 {
		t.Errorf("expected uuid-sized id, got %q", created.ID)
	}
	if created.Status != StatusPending {
		t.Errorf("expected pending status, got %s", created.Status)
	}

	got, ok := s.Get(created.ID)
	if !ok {
		t.Fatal("expected to find created task")
	}
	if got.URL != "https://x.com/u/status/1" {
		t.Errorf("unexpected url %q", got.URL)
	}
}

func TestStoreGetUnknown(t *testing.T) {
	s := NewStore(time.Hour, nil)

	if _, ok := s.Get("doesnotexist"); ok {
		t.Error("expected unknown id to report not found")
	}
}

func TestStoreDedupsActiveTasks(t *testing.T) {
	s := NewStore(time.Hour, nil)

	first, _ := s.Create("https://x.com/u/status/1", "mp4-832000", nil)
	second, fresh := s.Create("https://x.com/u/status/1", "mp4-832000", nil)

	if fresh {
		t.Error("expected duplicate request to reuse the active task")
	}
	if second.ID != first.ID {
		t.Errorf("expected same task id, got %s vs %s", second.ID, first.ID)
	}

	// A different format is a different task
	other, fresh := s.Create("https://x.com/u/status/1", "mp4-256000", nil)
	if !fresh || other.ID == first.ID {
		t.Error("expected different format to create a new task")
	}

	// Finished tasks do not block a fresh download
	s.Complete(first.ID, "file.mp4")
	again, fresh := s.Create("https://x.com/u/status/1", "mp4-832000", nil)
	if !fresh || again.ID == first.ID {
		t.Error("expected new task after the previous one finished")
	}
}

func TestStoreProgressIsMonotonic(t *testing.T) {
	s := NewStore(time.Hour, nil)
	created, _ := s.Create("u", "f", nil)

	s.SetProgress(created.ID, 40)
	s.SetProgress(created.ID, 25) // stale update
	s.SetProgress(created.ID, 60)

	got, _ := s.Get(created.ID)
	if got.Percent != 60 {
		t.Errorf("expected percent 60, got %f", got.Percent)
	}
	if got.Status != StatusDownloading {
		t.Errorf("expected downloading status, got %s", got.Status)
	}
}

func TestStoreComplete(t *testing.T) {
	s := NewStore(time.Hour, nil)
	created, _ := s.Create("u", "f", nil)

	s.SetProgress(created.ID, 50)
	s.Complete(created.ID, "video.mp4")

	got, _ := s.Get(created.ID)
	if got.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if got.Percent != 100 {
		t.Errorf("expected percent 100, got %f", got.Percent)
	}
	if got.Filename != "video.mp4" {
		t.Errorf("expected filename video.mp4, got %s", got.Filename)
	}

	// Terminal state: further updates are ignored
	s.SetProgress(created.ID, 10)
	s.Fail(created.ID, errors.New("too late"))

	got, _ = s.Get(created.ID)
	if got.Status != StatusCompleted || got.Percent != 100 {
		t.Errorf("terminal task mutated: %+v", got)
	}
}

func TestStoreFail(t *testing.T) {
	s := NewStore(time.Hour, nil)
	created, _ := s.Create("u", "f", nil)

	s.Fail(created.ID, errors.New("network down"))

	got, _ := s.Get(created.ID)
	if got.Status != StatusFailed {
		t.Errorf("expected failed, got %s", got.Status)
	}
	if got.Error != "network down" {
		t.Errorf("expected error message, got %q", got.Error)
	}
}

func TestStoreCancel(t *testing.T) {
	s := NewStore(time.Hour, nil)

	canceled := false
	created, _ := s.Create("u", "f", func() { canceled = true })

	if !s.Cancel(created.ID) {
		t.Fatal("expected cancel to find the task")
	}
	if !canceled {
		t.Error("expected the cancel func to be invoked")
	}
	if _, ok := s.Get(created.ID); ok {
		t.Error("expected record to be removed")
	}

	if s.Cancel("doesnotexist") {
		t.Error("expected cancel of unknown id to report false")
	}
}

func TestStoreCancelFinishedTaskReleasesFile(t *testing.T) {
	var expired []Task
	s := NewStore(time.Hour, func(t Task) { expired = append(expired, t) })

	done, _ := s.Create("u", "f", nil)
	s.Complete(done.ID, "done.mp4")

	if !s.Cancel(done.ID) {
		t.Fatal("expected cancel to find the finished task")
	}

	if len(expired) != 1 || expired[0].Filename != "done.mp4" {
		t.Errorf("expected expiry hook for the removed task, got %+v", expired)
	}

	// In-flight tasks have no file yet; the hook stays quiet for them
	active, _ := s.Create("u2", "f", func() {})
	s.SetProgress(active.ID, 10)
	s.Cancel(active.ID)

	if len(expired) != 1 {
		t.Errorf("expected no expiry hook for an unfinished task, got %+v", expired)
	}
}

func TestStoreSweepExpiresFinishedTasks(t *testing.T) {
	var expired []Task
	s := NewStore(time.Minute, func(t Task) { expired = append(expired, t) })

	done, _ := s.Create("u1", "f", nil)
	s.Complete(done.ID, "old.mp4")

	active, _ := s.Create("u2", "f", nil)
	s.SetProgress(active.ID, 10)

	// Age the finished task past the TTL
	s.mu.Lock()
	s.tasks[done.ID].task.UpdatedAt = time.Now().Add(-2 * time.Minute)
	s.mu.Unlock()

	s.sweep()

	if _, ok := s.Get(done.ID); ok {
		t.Error("expected finished task to be swept")
	}
	if _, ok := s.Get(active.ID); !ok {
		t.Error("expected active task to survive the sweep")
	}

	if len(expired) != 1 || expired[0].Filename != "old.mp4" {
		t.Errorf("expected expiry hook with the swept task, got %+v", expired)
	}
}

func TestStoreSweepKeepsUnexpiredFinishedTasks(t *testing.T) {
	s := NewStore(time.Hour, nil)

	done, _ := s.Create("u", "f", nil)
	s.Complete(done.ID, "fresh.mp4")

	s.sweep()

	if _, ok := s.Get(done.ID); !ok {
		t.Error("expected recently finished task to survive")
	}
}
