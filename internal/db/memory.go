package db

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/javiermolinar/campus/internal/schedule"
)

// Memory is an in-process schedule.Repository. Stored weeks are deep-copied
// on the way in and out so callers never share state with the store.
type Memory struct {
	mu    sync.RWMutex
	weeks map[string]schedule.Snapshot
}

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{weeks: make(map[string]schedule.Snapshot)}
}

// Load returns the stored snapshot for key.
func (m *Memory) Load(_ context.Context, key schedule.WeekKey) (schedule.Snapshot, bool, error) {
	key = key.Normalized()

	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.weeks[key.String()]
	if !ok {
		return schedule.Snapshot{Key: key}, false, nil
	}
	snap.Week = snap.Week.Clone()
	return snap, true, nil
}

// Save stores snap.
func (m *Memory) Save(_ context.Context, snap schedule.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(snap)
	return nil
}

// SaveIfRevision stores snap if the stored revision equals expected.
func (m *Memory) SaveIfRevision(_ context.Context, snap schedule.Snapshot, expected string) error {
	key := snap.Key.Normalized()

	m.mu.Lock()
	defer m.mu.Unlock()

	if current := m.weeks[key.String()].Revision; current != expected {
		return fmt.Errorf("%s: %w", key, schedule.ErrStaleRevision)
	}
	m.put(snap)
	return nil
}

// ListWeeks returns the stored week keys of a classroom, oldest first.
func (m *Memory) ListWeeks(_ context.Context, classroomID string) ([]schedule.WeekKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []schedule.WeekKey
	for _, snap := range m.weeks {
		if snap.Key.ClassroomID == classroomID {
			keys = append(keys, snap.Key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].WeekStart.Before(keys[j].WeekStart) })
	return keys, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

func (m *Memory) put(snap schedule.Snapshot) {
	snap.Key = snap.Key.Normalized()
	snap.Week = snap.Week.Clone()
	snap.Exists = true
	m.weeks[snap.Key.String()] = snap
}
