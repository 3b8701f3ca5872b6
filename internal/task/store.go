package task

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ExpireFunc is invoked with a copy of each task removed by the TTL sweeper,
// so the owner can delete the downloaded file along with the record.
type ExpireFunc func(t Task)

type entry struct {
	task   Task
	cancel context.CancelFunc
}

// Store tracks download tasks in memory. Task ids are random uuids, so one
// client cannot enumerate another's tasks. Finished tasks expire after the
// configured TTL.
type Store struct {
	mu       sync.RWMutex
	tasks    map[string]*entry
	ttl      time.Duration
	onExpire ExpireFunc
}

// NewStore creates a task store with the given retention for finished tasks.
func NewStore(ttl time.Duration, onExpire ExpireFunc) *Store {
	return &Store{
		tasks:    make(map[string]*entry),
		ttl:      ttl,
		onExpire: onExpire,
	}
}

// Create registers a new pending task and returns it. When an unfinished
// task for the same url+format already exists, that task is returned
// instead and created is false; identical concurrent requests share one
// download.
func (s *Store) Create(url, formatID string, cancel context.CancelFunc) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.tasks {
		if e.task.URL == url && e.task.FormatID == formatID && !e.task.Status.IsFinished() {
			return e.task, false
		}
	}

	now := time.Now()
	t := Task{
		ID:        uuid.NewString(),
		URL:       url,
		FormatID:  formatID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.tasks[t.ID] = &entry{task: t, cancel: cancel}
	return t, true
}

// Get returns a snapshot of the task.
func (s *Store) Get(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return e.task, true
}

// SetProgress moves the task to downloading and records the percentage.
// Percent never decreases; stale updates are dropped.
func (s *Store) SetProgress(id string, percent float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.tasks[id]
	if !ok || e.task.Status.IsFinished() {
		return
	}
	e.task.Status = StatusDownloading
	if percent > e.task.Percent {
		e.task.Percent = percent
	}
	e.task.UpdatedAt = time.Now()
}

// Complete marks the task finished with its output filename.
func (s *Store) Complete(id, filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.tasks[id]
	if !ok || e.task.Status.IsFinished() {
		return
	}
	e.task.Status = StatusCompleted
	e.task.Percent = 100
	e.task.Filename = filename
	e.task.UpdatedAt = time.Now()
}

// Fail marks the task failed. Failures are terminal; there are no retries.
func (s *Store) Fail(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.tasks[id]
	if !ok || e.task.Status.IsFinished() {
		return
	}
	e.task.Status = StatusFailed
	e.task.Error = err.Error()
	e.task.UpdatedAt = time.Now()
}

// Cancel aborts an in-flight task and removes its record. Removing a
// finished task also releases its file through the expiry hook.
func (s *Store) Cancel(id string) bool {
	s.mu.Lock()

	e, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	finished := e.task.Status.IsFinished()
	if !finished && e.cancel != nil {
		e.cancel()
	}
	removed := e.task
	delete(s.tasks, id)
	s.mu.Unlock()

	if finished && s.onExpire != nil {
		s.onExpire(removed)
	}
	return true
}

// Start runs the TTL sweeper until ctx is done.
func (s *Store) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

// sweep removes finished tasks older than the TTL and notifies the expiry hook.
func (s *Store) sweep() {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	var expired []Task
	for id, e := range s.tasks {
		if e.task.Status.IsFinished() && e.task.UpdatedAt.Before(cutoff) {
			expired = append(expired, e.task)
			delete(s.tasks, id)
		}
	}
	s.mu.Unlock()

	for _, t := range expired {
		log.Printf("[TASK] Expired task %s (%s)", t.ID, t.Status)
		if s.onExpire != nil {
			s.onExpire(t)
		}
	}
}
