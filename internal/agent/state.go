package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/openclaw/axon/internal/adaptation"
	"github.com/openclaw/axon/internal/decision"
	"github.com/openclaw/axon/internal/memory"
	"github.com/openclaw/axon/internal/safety"
)

// ErrInvalidState rejects state documents that fail validation. Callers
// can match it with errors.Is.
var ErrInvalidState = errors.New("invalid state document")

// stateVersion is the current export format version.
const stateVersion = 1

// State is the agent's exportable snapshot: everything needed to restore
// a session on another process, minus the capability implementations
// themselves (those are rebuilt from the local registry).
type State struct {
	Version           int                           `json:"version"`
	AgentID           string                        `json:"agent_id"`
	ExportedAt        time.Time                     `json:"exported_at"`
	SafetyLevel       string                        `json:"safety_level"`
	ComplexityCeiling string                        `json:"complexity_ceiling"`
	Messages          []Message                     `json:"messages"`
	Decisions         []decision.Decision           `json:"decisions"`
	Records           []memory.Record               `json:"records"`
	Patterns          []adaptation.Pattern          `json:"patterns"`
	Performance       []adaptation.PerformanceEntry `json:"performance"`
	Capabilities      []string                      `json:"capabilities"`
}

// Export snapshots the agent's state.
func (a *Agent) Export() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	return State{
		Version:           stateVersion,
		AgentID:           a.id,
		ExportedAt:        time.Now(),
		SafetyLevel:       a.gate.Level().String(),
		ComplexityCeiling: string(a.decisions.ComplexityCeiling()),
		Messages:          append([]Message(nil), a.messages...),
		Decisions:         append([]decision.Decision(nil), a.decisionLog...),
		Records:           a.store.All(),
		Patterns:          a.learner.Patterns(),
		Performance:       a.learner.History(),
		Capabilities:      a.registry.IDs(),
	}
}

// ExportJSON renders the snapshot as indented JSON.
func (a *Agent) ExportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(a.Export(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}
	return data, nil
}

// Import replaces the agent's state from a snapshot. The document is
// validated first; an invalid document leaves the agent untouched.
// Capabilities named in the snapshot but absent from the local registry
// are logged and skipped, not errors.
func (a *Agent) Import(st State) error {
	if err := validateState(st); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.messages = append([]Message(nil), st.Messages...)
	a.decisionLog = append([]decision.Decision(nil), st.Decisions...)

	a.store.Clear()
	for _, rec := range st.Records {
		a.store.Append(rec)
	}

	a.learner.ImportState(st.Patterns, st.Performance)
	a.gate.SetLevel(safety.ParseLevel(st.SafetyLevel))
	if st.ComplexityCeiling != "" {
		a.decisions.SetComplexityCeiling(decision.Complexity(st.ComplexityCeiling))
	}

	for _, id := range st.Capabilities {
		if a.registry.Get(id) == nil {
			a.logger.Warn("capability from snapshot not registered locally", map[string]interface{}{
				"capability": id,
			})
		}
	}

	a.logger.Info("state imported", map[string]interface{}{
		"messages":  len(st.Messages),
		"decisions": len(st.Decisions),
		"records":   len(st.Records),
		"patterns":  len(st.Patterns),
	})
	return nil
}

// ImportJSON decodes and imports a snapshot document.
func (a *Agent) ImportJSON(data []byte) error {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return a.Import(st)
}

// validateState checks structural invariants before any mutation.
func validateState(st State) error {
	if st.Version != stateVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidState, st.Version)
	}
	if st.AgentID == "" {
		return fmt.Errorf("%w: missing agent id", ErrInvalidState)
	}
	for i, d := range st.Decisions {
		if d.Confidence < 0 || d.Confidence > 1 {
			return fmt.Errorf("%w: decision %d confidence out of range", ErrInvalidState, i)
		}
	}
	for i, p := range st.Patterns {
		if p.Confidence < 0 || p.Confidence > 1 {
			return fmt.Errorf("%w: pattern %d confidence out of range", ErrInvalidState, i)
		}
		if p.Phrase == "" {
			return fmt.Errorf("%w: pattern %d missing phrase", ErrInvalidState, i)
		}
	}
	for i, m := range st.Messages {
		if m.Role != "user" && m.Role != "assistant" {
			return fmt.Errorf("%w: message %d has unknown role %q", ErrInvalidState, i, m.Role)
		}
	}
	switch st.ComplexityCeiling {
	case "", string(decision.ComplexitySimple), string(decision.ComplexityModerate), string(decision.ComplexityComplex):
	default:
		return fmt.Errorf("%w: unknown complexity ceiling %q", ErrInvalidState, st.ComplexityCeiling)
	}
	return nil
}
