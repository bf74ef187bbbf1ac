package checkpoint

import (
	"testing"
	"time"
)

func TestSaveAndLatest(t *testing.T) {
	store, err := NewStore(t.TempDir(), 3)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Save([]byte(`{"version": 1, "n": 1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	id2, err := store.Save([]byte(`{"version": 1, "n": 2}`))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	data, id, err := store.Latest()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if id != id2 {
		t.Errorf("expected newest id %s, got %s", id2, id)
	}
	if string(data) != `{"version": 1, "n": 2}` {
		t.Errorf("unexpected payload %s", data)
	}
}

func TestLatestEmpty(t *testing.T) {
	store, err := NewStore(t.TempDir(), 3)
	if err != nil {
		t.Fatal(err)
	}
	data, id, err := store.Latest()
	if err != nil || data != nil || id != "" {
		t.Errorf("expected empty results, got %s/%s/%v", data, id, err)
	}
}

func TestRejectsInvalidJSON(t *testing.T) {
	store, err := NewStore(t.TempDir(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save([]byte("{broken")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	store, err := NewStore(t.TempDir(), 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if _, err := store.Save([]byte(`{"version": 1}`)); err != nil {
			t.Fatal(err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	infos, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 retained snapshots, got %d", len(infos))
	}
	if infos[0].ID < infos[1].ID {
		t.Error("expected newest first")
	}
}
