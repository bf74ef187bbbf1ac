// Package memory provides the bounded interaction log and its searchable archive.
package memory

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies a memory record.
type Kind string

const (
	KindConversation     Kind = "conversation"
	KindInvocationResult Kind = "invocation-result"
	KindAdaptationEvent  Kind = "adaptation-event"
	KindPattern          Kind = "pattern"
)

// Record is one entry in the interaction log. Records are created by the
// dispatcher or the adaptation engine and owned by the store; payloads are
// opaque structured values the store never inspects.
type Record struct {
	ID        string                 `json:"id"`
	Kind      Kind                   `json:"kind"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
	Relevance float64                `json:"relevance,omitempty"`
}

// NewRecord creates a record with a fresh id and the current time.
func NewRecord(kind Kind, payload map[string]interface{}) Record {
	return Record{
		ID:        uuid.New().String(),
		Kind:      kind,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}
