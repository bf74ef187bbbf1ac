package memory

import (
	"path/filepath"
	"testing"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := NewArchive(filepath.Join(t.TempDir(), "archive.bleve"))
	if err != nil {
		t.Fatalf("creating archive: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestArchiveIndexAndSearch(t *testing.T) {
	a := newTestArchive(t)

	r1 := NewRecord(KindConversation, nil)
	r2 := NewRecord(KindInvocationResult, nil)
	if err := a.Index(r1, "deploy the billing service to staging"); err != nil {
		t.Fatalf("index failed: %v", err)
	}
	if err := a.Index(r2, "word count of the quarterly report"); err != nil {
		t.Fatalf("index failed: %v", err)
	}

	hits, err := a.Search("billing staging", 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].ID != r1.ID {
		t.Errorf("expected best hit %s, got %s", r1.ID, hits[0].ID)
	}
	if hits[0].Kind != KindConversation {
		t.Errorf("expected conversation kind, got %s", hits[0].Kind)
	}
}

func TestArchiveSearchNoMatch(t *testing.T) {
	a := newTestArchive(t)

	r := NewRecord(KindConversation, nil)
	if err := a.Index(r, "hello there"); err != nil {
		t.Fatalf("index failed: %v", err)
	}

	hits, err := a.Search("zyzzogeton", 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestArchiveCount(t *testing.T) {
	a := newTestArchive(t)

	for i := 0; i < 3; i++ {
		if err := a.Index(NewRecord(KindConversation, nil), "some text"); err != nil {
			t.Fatalf("index failed: %v", err)
		}
	}
	n, err := a.Count()
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 documents, got %d", n)
	}
}
