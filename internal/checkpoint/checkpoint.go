// Package checkpoint persists agent state snapshots across runs.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultKeep is how many snapshots are retained before pruning.
const DefaultKeep = 5

// Info describes one stored snapshot.
type Info struct {
	ID        string    `json:"id"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Store manages timestamped state snapshots in a directory. The newest
// snapshot is restored on startup; older ones are pruned past the
// retention count.
type Store struct {
	dir  string
	keep int
	mu   sync.Mutex
}

// NewStore creates a snapshot store. A non-positive keep uses DefaultKeep.
func NewStore(dir string, keep int) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &Store{dir: dir, keep: keep}, nil
}

// Save writes a snapshot and prunes old ones. The state document is
// stored as-is; validation is the importer's job.
func (s *Store) Save(state []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !json.Valid(state) {
		return "", fmt.Errorf("refusing to checkpoint invalid JSON")
	}

	id := time.Now().UTC().Format("20060102T150405.000000000")
	path := filepath.Join(s.dir, id+".json")
	if err := os.WriteFile(path, state, 0644); err != nil {
		return "", fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := s.prune(); err != nil {
		return id, err
	}
	return id, nil
}

// Latest returns the newest snapshot and its id. Both results are zero
// when no snapshot exists.
func (s *Store) Latest() ([]byte, string, error) {
	infos, err := s.List()
	if err != nil || len(infos) == 0 {
		return nil, "", err
	}
	newest := infos[0]
	data, err := os.ReadFile(filepath.Join(s.dir, newest.ID+".json"))
	if err != nil {
		return nil, "", fmt.Errorf("reading checkpoint: %w", err)
	}
	return data, newest.ID, nil
}

// List returns snapshot infos, newest first.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			ID:        strings.TrimSuffix(entry.Name(), ".json"),
			Size:      fi.Size(),
			CreatedAt: fi.ModTime(),
		})
	}
	// Snapshot ids are lexically ordered timestamps.
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID > infos[j].ID })
	return infos, nil
}

// prune removes snapshots past the retention count. Caller holds the lock.
func (s *Store) prune() error {
	infos, err := s.List()
	if err != nil {
		return err
	}
	for _, info := range infos[min(len(infos), s.keep):] {
		if err := os.Remove(filepath.Join(s.dir, info.ID+".json")); err != nil {
			return fmt.Errorf("pruning checkpoint %s: %w", info.ID, err)
		}
	}
	return nil
}
