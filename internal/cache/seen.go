// Package cache holds the worker's bounded record of processed message ids.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Seen is a size- and TTL-bounded set of keys with LRU eviction.
type Seen struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time
}

type entry struct {
	key       string
	expiresAt time.Time
}

func NewSeen(maxSize int, ttl time.Duration) *Seen {
	return &Seen{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
}

// FirstSeen records key and reports whether it was absent or expired.
func (s *Seen) FirstSeen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if elem, ok := s.items[key]; ok {
		e := elem.Value.(*entry)
		if now.Before(e.expiresAt) {
			s.lru.MoveToFront(elem)
			return false
		}
		e.expiresAt = now.Add(s.ttl)
		s.lru.MoveToFront(elem)
		return true
	}

	s.items[key] = s.lru.PushFront(&entry{key: key, expiresAt: now.Add(s.ttl)})
	if s.lru.Len() > s.maxSize {
		s.remove(s.lru.Back())
	}
	return true
}

// Forget drops key so a later delivery is processed again.
func (s *Seen) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if elem, ok := s.items[key]; ok {
		s.remove(elem)
	}
}

// Sweep removes expired keys and returns how many were dropped.
func (s *Seen) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for elem := s.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*entry).expiresAt) {
			s.remove(elem)
			n++
		}
		elem = prev
	}
	return n
}

func (s *Seen) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Seen) remove(elem *list.Element) {
	if elem == nil {
		return
	}
	delete(s.items, elem.Value.(*entry).key)
	s.lru.Remove(elem)
}
