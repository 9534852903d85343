// Package memory provides the in-memory short-term store for recent items.
// It holds conversation turns and home events for fast, time-sensitive access.
package memory

import (
	"sync"
	"time"
)

// Item is a single short-term memory entry.
type Item struct {
	Key        string    `json:"key"`
	Data       any       `json:"data"`
	Category   string    `json:"category"`
	InsertedAt time.Time `json:"inserted_at"`
}

// ShortTermMemory is a bounded, time-expiring key/value cache.
// Eviction is FIFO by insertion: a Get does not refresh an item's position,
// only a re-Add does. Thread-safe; every operation holds a single mutex for
// the duration of its in-memory work only.
type ShortTermMemory struct {
	mu       sync.Mutex
	items    map[string]*Item
	order    []string // insertion order, oldest first
	ttl      time.Duration
	maxItems int
}

// NewShortTermMemory creates a short-term memory store.
// ttl defaults to 6 hours, maxItems to 1000.
func NewShortTermMemory(ttl time.Duration, maxItems int) *ShortTermMemory {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	if maxItems <= 0 {
		maxItems = 1000
	}
	return &ShortTermMemory{
		items:    make(map[string]*Item),
		order:    make([]string, 0, maxItems),
		ttl:      ttl,
		maxItems: maxItems,
	}
}

// Add inserts or refreshes an item. Re-adding an existing key moves it to
// the most-recent position and updates its timestamp. The least-recently
// inserted items are evicted once maxItems is exceeded.
func (s *ShortTermMemory) Add(key string, data any, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; ok {
		s.removeKeyLocked(key)
	}

	s.items[key] = &Item{
		Key:        key,
		Data:       data,
		Category:   category,
		InsertedAt: time.Now().UTC(),
	}
	s.order = append(s.order, key)

	for len(s.items) > s.maxItems {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.items, oldest)
	}
}

// Get returns the payload for key, or false if the key is absent or expired.
// An expired entry is deleted as a side effect.
func (s *ShortTermMemory) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	if !ok {
		return nil, false
	}
	if s.isExpiredLocked(item) {
		s.removeKeyLocked(key)
		delete(s.items, key)
		return nil, false
	}
	return item.Data, true
}

// GetRecent returns up to limit non-expired items, newest first, optionally
// filtered by category. All expired entries are purged first.
func (s *ShortTermMemory) GetRecent(category string, limit int) []*Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked()

	result := make([]*Item, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(result) < limit; i-- {
		item := s.items[s.order[i]]
		if category != "" && item.Category != category {
			continue
		}
		result = append(result, item)
	}
	return result
}

// Clear removes all items, or all items of one category when category is
// non-empty, and returns the number removed.
func (s *ShortTermMemory) Clear(category string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category == "" {
		count := len(s.items)
		s.items = make(map[string]*Item)
		s.order = s.order[:0]
		return count
	}

	count := 0
	kept := s.order[:0]
	for _, key := range s.order {
		if s.items[key].Category == category {
			delete(s.items, key)
			count++
			continue
		}
		kept = append(kept, key)
	}
	s.order = kept
	return count
}

// Size returns the number of non-expired items after purging.
func (s *ShortTermMemory) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked()
	return len(s.items)
}

func (s *ShortTermMemory) isExpiredLocked(item *Item) bool {
	return time.Since(item.InsertedAt) > s.ttl
}

func (s *ShortTermMemory) purgeExpiredLocked() {
	kept := s.order[:0]
	for _, key := range s.order {
		if s.isExpiredLocked(s.items[key]) {
			delete(s.items, key)
			continue
		}
		kept = append(kept, key)
	}
	s.order = kept
}

// removeKeyLocked drops key from the insertion order without touching the map.
func (s *ShortTermMemory) removeKeyLocked(key string) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
