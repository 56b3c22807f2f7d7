package download

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// CompletedSet is the recovery anchor for resumable downloads: a
// monotonically growing, lock-protected set of "{category}/{url}" keys
// persisted as a JSON array. Keys are added only after a fully validated
// write, so re-running after a crash never trusts a torn file. Checkpoints
// happen every flushEvery additions rather than on every one, trading a
// little redone work for less lock time.
type CompletedSet struct {
	mu         sync.Mutex
	path       string
	done       map[string]struct{}
	pending    int
	flushEvery int
}

// LoadCompletedSet reads the persisted set, starting empty when the file
// does not exist yet.
func LoadCompletedSet(path string, flushEvery int) (*CompletedSet, error) {
	if flushEvery <= 0 {
		flushEvery = 1
	}
	s := &CompletedSet{
		path:       path,
		done:       make(map[string]struct{}),
		flushEvery: flushEvery,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read completed-set: %w", err)
	}

	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("decode completed-set: %w", err)
	}
	for _, k := range keys {
		s.done[k] = struct{}{}
	}
	return s, nil
}

// Contains reports whether the item is already recorded as complete.
func (s *CompletedSet) Contains(it Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.done[it.Key()]
	return ok
}

// Len returns the number of recorded completions.
func (s *CompletedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.done)
}

// Add records a validated completion, checkpointing once enough additions
// have accumulated.
func (s *CompletedSet) Add(it Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := it.Key()
	if _, ok := s.done[key]; ok {
		return nil
	}
	s.done[key] = struct{}{}
	s.pending++
	if s.pending < s.flushEvery {
		return nil
	}
	return s.flushLocked()
}

// Flush forces a checkpoint regardless of the pending count.
func (s *CompletedSet) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// Close flushes any pending completions.
func (s *CompletedSet) Close() error {
	return s.Flush()
}

func (s *CompletedSet) flushLocked() error {
	keys := make([]string, 0, len(s.done))
	for k := range s.done {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("encode completed-set: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write completed-set: %w", err)
	}
	s.pending = 0
	return nil
}
