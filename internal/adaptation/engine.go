package adaptation

import (
	"fmt"
	"sync"
	"time"

	"github.com/openclaw/axon/internal/decision"
	"github.com/openclaw/axon/internal/memory"
	"github.com/vinayprograms/agentkit/logging"
)

// historyCap bounds the performance history; oldest entries are evicted.
const historyCap = 1000

// Outcome is one completed interaction fed back into the learner.
type Outcome struct {
	Message    string
	Intent     string
	Decision   decision.Decision
	Quality    float64
	DurationMs float64
}

// PerformanceEntry is one row of the engine's performance history.
// Success is derived from the decision confidence alone; Quality carries
// the dispatch-derived score alongside it.
type PerformanceEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	DecisionType decision.Type `json:"decision_type"`
	Confidence   float64       `json:"confidence"`
	Success      bool          `json:"success"`
	Quality      float64       `json:"quality"`
	DurationMs   float64       `json:"duration_ms"`
}

// Prediction is the learner's intent guess for an unseen message.
type Prediction struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Engine maintains the pattern table, the performance history, and the
// adaptation rules. Learning is best-effort: each step of a learning cycle
// fails independently and a failed step never aborts the cycle.
type Engine struct {
	mu       sync.RWMutex
	patterns map[string]*Pattern
	history  []PerformanceEntry
	lexicon  []string
	rules    []Rule
	targets  Targets
	logger   *logging.Logger
}

// NewEngine creates an adaptation engine with the built-in lexicon and the
// default rule set. Targets may hold nil fields; rules needing an absent
// target report an error and are skipped for that cycle.
func NewEngine(targets Targets) *Engine {
	return &Engine{
		patterns: make(map[string]*Pattern),
		lexicon:  append([]string(nil), defaultPhrases...),
		rules:    defaultRules(),
		targets:  targets,
		logger:   logging.New().WithComponent("adaptation"),
	}
}

// SetLexicon replaces the key phrase lexicon.
func (e *Engine) SetLexicon(phrases []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lexicon = append([]string(nil), phrases...)
}

// SetRules replaces the rule set. Rules are evaluated in ascending
// priority order on every learning cycle.
func (e *Engine) SetRules(rules []Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = sortRules(rules)
}

// Learn runs one learning cycle over a completed interaction. The cycle
// has four steps: phrase extraction, pattern table update, performance
// recording, and rule evaluation. Steps fail independently; a failure is
// logged and the remaining steps still run.
func (e *Engine) Learn(o Outcome) {
	var phrases []string
	e.step("extract-phrases", func() error {
		phrases = e.extract(o.Message)
		return nil
	})
	e.step("update-patterns", func() error {
		return e.updatePatterns(phrases, o)
	})
	e.step("record-performance", func() error {
		return e.recordPerformance(o)
	})
	e.step("evaluate-rules", func() error {
		return e.evaluateRules()
	})
}

// step runs one learning step, containing panics and logging failures.
func (e *Engine) step(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("learning step panicked", map[string]interface{}{
				"step":  name,
				"panic": fmt.Sprintf("%v", r),
			})
		}
	}()
	if err := fn(); err != nil {
		e.logger.Warn("learning step failed", map[string]interface{}{
			"step":  name,
			"error": err.Error(),
		})
	}
}

func (e *Engine) extract(message string) []string {
	e.mu.RLock()
	lexicon := e.lexicon
	e.mu.RUnlock()
	return extractPhrases(message, lexicon)
}

// updatePatterns reinforces or weakens every phrase seen in the message.
// A pattern whose confidence first reaches the established threshold is
// recorded in bounded memory, once per crossing.
func (e *Engine) updatePatterns(phrases []string, o Outcome) error {
	if len(phrases) == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, phrase := range phrases {
		p, ok := e.patterns[phrase]
		if !ok {
			p = &Pattern{
				Phrase:     phrase,
				Intent:     o.Intent,
				Confidence: patternInitialConfidence,
			}
			e.patterns[phrase] = p
		}
		if o.Intent != "" {
			p.Intent = o.Intent
		}
		prev := p.Confidence
		p.adjust(o.Decision.Confidence)
		if prev < patternEstablished && p.Confidence >= patternEstablished && e.targets.Memory != nil {
			e.targets.Memory.Append(memory.NewRecord(memory.KindPattern, map[string]interface{}{
				"phrase":     p.Phrase,
				"intent":     p.Intent,
				"confidence": p.Confidence,
			}))
		}
	}
	return nil
}

// recordPerformance appends one history entry, evicting the oldest when
// the history is full.
func (e *Engine) recordPerformance(o Outcome) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, PerformanceEntry{
		Timestamp:    time.Now(),
		DecisionType: o.Decision.Type,
		Confidence:   o.Decision.Confidence,
		Success:      o.Decision.Confidence > 0.5,
		Quality:      o.Quality,
		DurationMs:   o.DurationMs,
	})
	if excess := len(e.history) - historyCap; excess > 0 {
		e.history = append([]PerformanceEntry(nil), e.history[excess:]...)
	}
	return nil
}

// PredictIntent guesses the intent of a message from learned patterns.
// The highest-confidence matching pattern wins; with no match the
// prediction is "unknown" at minimum confidence.
func (e *Engine) PredictIntent(message string) Prediction {
	phrases := e.extract(message)

	e.mu.RLock()
	defer e.mu.RUnlock()

	best := Prediction{Intent: "unknown", Confidence: patternFloor}
	found := false
	for _, phrase := range phrases {
		p, ok := e.patterns[phrase]
		if !ok {
			continue
		}
		if !found || p.Confidence > best.Confidence {
			best = Prediction{Intent: p.Intent, Confidence: p.Confidence}
			found = true
		}
	}
	return best
}

// Pattern returns the learned pattern for a phrase, if any.
func (e *Engine) Pattern(phrase string) (Pattern, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.patterns[phrase]
	if !ok {
		return Pattern{}, false
	}
	return *p, true
}

// Patterns returns a snapshot of the pattern table.
func (e *Engine) Patterns() []Pattern {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Pattern, 0, len(e.patterns))
	for _, p := range e.patterns {
		out = append(out, *p)
	}
	return out
}

// History returns a snapshot of the performance history, oldest first.
func (e *Engine) History() []PerformanceEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]PerformanceEntry(nil), e.history...)
}

// ImportState replaces the pattern table and history wholesale. Used when
// restoring exported agent state; the history is re-bounded on import.
func (e *Engine) ImportState(patterns []Pattern, history []PerformanceEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.patterns = make(map[string]*Pattern, len(patterns))
	for i := range patterns {
		p := patterns[i]
		e.patterns[p.Phrase] = &p
	}
	if len(history) > historyCap {
		history = history[len(history)-historyCap:]
	}
	e.history = append([]PerformanceEntry(nil), history...)
}
