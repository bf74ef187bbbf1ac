// Package session provides conversation session persistence.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"
)

// Status constants for sessions.
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// Event types for the session log. The log is the forensic record of a
// conversation: every request, the decision taken for it, and the
// dispatch outcome land here in order.
const (
	EventRequest  = "request"  // Incoming user message
	EventDecision = "decision" // Decision selected for the message
	EventDispatch = "dispatch" // Dispatch outcome
	EventAdapt    = "adapt"    // Adaptation directive fired
	EventHealth   = "health"   // Health status transition
)

// Event is a single entry in the session log.
type Event struct {
	SeqID     uint64    `json:"seq"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// Content depends on the event type.
	Content    string                 `json:"content,omitempty"`
	DecisionID string                 `json:"decision_id,omitempty"`
	Detail     map[string]interface{} `json:"detail,omitempty"`

	// Outcome, for dispatch events.
	Status     string `json:"status,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

// Session is one conversation's event log.
type Session struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	Status    string    `json:"status"`
	Events    []Event   `json:"events"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal state (not persisted)
	seqCounter uint64
	mu         sync.Mutex
}

// NewSession creates an active session for the given agent.
func NewSession(agentID string) *Session {
	now := time.Now()
	return &Session{
		ID:        generateID(),
		AgentID:   agentID,
		Status:    StatusActive,
		Events:    []Event{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// nextSeqID returns the next sequence ID for this session.
func (s *Session) nextSeqID() uint64 {
	return atomic.AddUint64(&s.seqCounter, 1)
}

// CurrentSeqID returns the last used sequence ID, 0 if no events yet.
func (s *Session) CurrentSeqID() uint64 {
	return atomic.LoadUint64(&s.seqCounter)
}

// AddEvent appends an event with automatic sequencing and returns its
// sequence ID.
func (s *Session) AddEvent(event Event) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.SeqID = s.nextSeqID()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	s.Events = append(s.Events, event)
	s.UpdatedAt = time.Now()
	return event.SeqID
}

// Close marks the session closed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StatusClosed
	s.UpdatedAt = time.Now()
}

// generateID creates a unique session ID.
func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Store is the interface for session persistence.
type Store interface {
	Save(sess *Session) error
	Load(id string) (*Session, error)
	List() ([]Summary, error)
}

// Summary is the listing view of a stored session.
type Summary struct {
	ID         string    `json:"id"`
	AgentID    string    `json:"agent_id"`
	Status     string    `json:"status"`
	EventCount int       `json:"event_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
