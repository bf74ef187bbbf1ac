// Package decision classifies incoming requests and selects the action to take.
package decision

import (
	"time"

	"github.com/google/uuid"
)

// Type is the action family a decision selects.
type Type string

const (
	TypeInvoke Type = "invoke"
	TypePlan   Type = "plan"
	TypeReply  Type = "reply"
	TypeAdapt  Type = "adapt"
)

// Action carries the parameters of the selected action. Which fields are
// meaningful depends on the decision type.
type Action struct {
	CapabilityID string                 `json:"capability_id,omitempty"`
	Params       map[string]interface{} `json:"params,omitempty"`
	Prompt       string                 `json:"prompt,omitempty"`
}

// Decision is the engine's single output per incoming message. Immutable
// once created; retained in the decision log for audit and adaptation input.
type Decision struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Confidence float64   `json:"confidence"`
	Reasoning  string    `json:"reasoning"`
	Action     Action    `json:"action"`
	Timestamp  time.Time `json:"timestamp"`
}

// New creates a decision, clamping confidence into [0, 1].
func New(typ Type, confidence float64, reasoning string, action Action) Decision {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return Decision{
		ID:         uuid.New().String(),
		Type:       typ,
		Confidence: confidence,
		Reasoning:  reasoning,
		Action:     action,
		Timestamp:  time.Now(),
	}
}
