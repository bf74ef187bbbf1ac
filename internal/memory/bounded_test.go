package memory

import (
	"fmt"
	"reflect"
	"testing"
)

func rec(label string) Record {
	return NewRecord(KindConversation, map[string]interface{}{"label": label})
}

func labels(records []Record) []string {
	var out []string
	for _, r := range records {
		out = append(out, r.Payload["label"].(string))
	}
	return out
}

func TestAppendNeverExceedsCapacity(t *testing.T) {
	s := NewBoundedStore(5)
	for i := 0; i < 20; i++ {
		s.Append(rec(fmt.Sprintf("r%d", i)))
		if s.Len() > 5 {
			t.Fatalf("store exceeded capacity after append %d: len=%d", i, s.Len())
		}
	}
}

func TestFIFOEviction(t *testing.T) {
	s := NewBoundedStore(3)
	for _, l := range []string{"A", "B", "C", "D"} {
		s.Append(rec(l))
	}

	got := labels(s.All())
	want := []string{"B", "C", "D"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestAllKeepsInsertionOrder(t *testing.T) {
	s := NewBoundedStore(10)
	for _, l := range []string{"one", "two", "three"} {
		s.Append(rec(l))
	}
	got := labels(s.All())
	if !reflect.DeepEqual(got, []string{"one", "two", "three"}) {
		t.Errorf("order not preserved: %v", got)
	}
}

func TestRecent(t *testing.T) {
	s := NewBoundedStore(10)
	for _, l := range []string{"a", "b", "c", "d"} {
		s.Append(rec(l))
	}

	got := labels(s.Recent(2))
	if !reflect.DeepEqual(got, []string{"c", "d"}) {
		t.Errorf("expected last two in order, got %v", got)
	}

	// n larger than size returns everything
	if got := s.Recent(100); len(got) != 4 {
		t.Errorf("expected 4 records, got %d", len(got))
	}

	if got := s.Recent(0); got != nil {
		t.Errorf("expected nil for n=0, got %v", got)
	}
}

func TestRecentIsRepeatable(t *testing.T) {
	s := NewBoundedStore(10)
	for _, l := range []string{"x", "y", "z"} {
		s.Append(rec(l))
	}

	first := labels(s.Recent(2))
	second := labels(s.Recent(2))
	if !reflect.DeepEqual(first, second) {
		t.Errorf("recent not idempotent: %v vs %v", first, second)
	}
}

func TestClear(t *testing.T) {
	s := NewBoundedStore(3)
	s.Append(rec("a"))
	s.Clear()
	if s.Len() != 0 {
		t.Errorf("expected empty store after clear, got %d", s.Len())
	}
}

func TestDefaultCapacity(t *testing.T) {
	s := NewBoundedStore(0)
	if s.Capacity() != DefaultCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultCapacity, s.Capacity())
	}
}
