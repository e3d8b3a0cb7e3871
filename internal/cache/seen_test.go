package cache

import (
	"testing"
	"time"
)

func TestSeen_FirstSeen(t *testing.T) {
	s := NewSeen(10, time.Minute)
	if !s.FirstSeen("m1") {
		t.Fatal("first delivery should be new")
	}
	if s.FirstSeen("m1") {
		t.Fatal("redelivery should be recognized")
	}
	s.Forget("m1")
	if !s.FirstSeen("m1") {
		t.Fatal("forgotten key should be new again")
	}
}

func TestSeen_EvictsLeastRecentlyUsed(t *testing.T) {
	s := NewSeen(2, time.Minute)
	s.FirstSeen("a")
	s.FirstSeen("b")
	s.FirstSeen("a") // touch a so b is oldest
	s.FirstSeen("c")

	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
	if !s.FirstSeen("b") {
		t.Error("b should have been evicted")
	}
}

func TestSeen_TTL(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewSeen(10, time.Minute)
	s.now = func() time.Time { return now }

	s.FirstSeen("old")
	now = now.Add(30 * time.Second)
	s.FirstSeen("fresh")
	now = now.Add(45 * time.Second)

	if n := s.Sweep(); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if s.FirstSeen("fresh") {
		t.Error("fresh key should still be present")
	}
	if !s.FirstSeen("old") {
		t.Error("expired key should be new again")
	}
}
