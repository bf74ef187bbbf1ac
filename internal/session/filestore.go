package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// JSONL record types for the streaming format.
const (
	recordTypeHeader = "header" // Session metadata (first line)
	recordTypeEvent  = "event"  // Individual event
	recordTypeFooter = "footer" // Final state (last line)
)

// jsonlRecord is a wrapper for JSONL lines with type discrimination.
type jsonlRecord struct {
	RecordType string `json:"_type"`

	// Header fields (when _type == "header")
	ID        string    `json:"id,omitempty"`
	AgentID   string    `json:"agent_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`

	// Event fields (when _type == "event")
	*Event `json:",omitempty"`

	// Footer fields (when _type == "footer"). The session status key is
	// distinct from the event status key so the embedded Event's field is
	// not shadowed during marshaling.
	SessionStatus string    `json:"session_status,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// FileStore persists sessions as one JSONL file each, header first,
// events in sequence order, footer last.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-based store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes the full session file, replacing any previous contents.
func (s *FileStore) Save(sess *Session) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	path := filepath.Join(s.dir, sess.ID+".jsonl")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating session file: %w", err)
	}
	defer f.Close()

	header := jsonlRecord{
		RecordType: recordTypeHeader,
		ID:         sess.ID,
		AgentID:    sess.AgentID,
		CreatedAt:  sess.CreatedAt,
	}
	if err := writeLine(f, header); err != nil {
		return err
	}

	for _, evt := range sess.Events {
		evtCopy := evt
		if err := writeLine(f, jsonlRecord{RecordType: recordTypeEvent, Event: &evtCopy}); err != nil {
			return err
		}
	}

	footer := jsonlRecord{
		RecordType:    recordTypeFooter,
		SessionStatus: sess.Status,
		UpdatedAt:     sess.UpdatedAt,
	}
	return writeLine(f, footer)
}

func writeLine(f *os.File, record jsonlRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	_, err = f.WriteString("\n")
	return err
}

// Load reads a session back from its JSONL file.
func (s *FileStore) Load(id string) (*Session, error) {
	path := filepath.Join(s.dir, id+".jsonl")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sess := &Session{Events: []Event{}}

	// bufio.Reader instead of Scanner: no line length limit.
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				if len(bytes.TrimSpace(line)) > 0 {
					if parseErr := parseLine(line, sess); parseErr != nil {
						return nil, parseErr
					}
				}
				break
			}
			return nil, fmt.Errorf("reading session file: %w", err)
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if err := parseLine(line, sess); err != nil {
			return nil, err
		}
	}

	// Restore the sequence counter from the last event.
	if len(sess.Events) > 0 {
		sess.seqCounter = sess.Events[len(sess.Events)-1].SeqID
	}
	return sess, nil
}

func parseLine(line []byte, sess *Session) error {
	var record jsonlRecord
	if err := json.Unmarshal(line, &record); err != nil {
		return fmt.Errorf("parsing session line: %w", err)
	}
	switch record.RecordType {
	case recordTypeHeader:
		sess.ID = record.ID
		sess.AgentID = record.AgentID
		sess.CreatedAt = record.CreatedAt
	case recordTypeEvent:
		if record.Event != nil {
			sess.Events = append(sess.Events, *record.Event)
		}
	case recordTypeFooter:
		sess.Status = record.SessionStatus
		sess.UpdatedAt = record.UpdatedAt
	}
	return nil
}

// List summarizes every stored session, most recently updated first.
func (s *FileStore) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session directory: %w", err)
	}

	var out []Summary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".jsonl")
		sess, err := s.Load(id)
		if err != nil {
			continue
		}
		out = append(out, Summary{
			ID:         sess.ID,
			AgentID:    sess.AgentID,
			Status:     sess.Status,
			EventCount: len(sess.Events),
			CreatedAt:  sess.CreatedAt,
			UpdatedAt:  sess.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}
