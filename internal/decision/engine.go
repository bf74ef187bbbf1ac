package decision

import (
	"context"
	"fmt"
	"sync"

	"github.com/openclaw/axon/internal/capability"
	"github.com/openclaw/axon/internal/memory"
	"github.com/openclaw/axon/internal/safety"
	"github.com/vinayprograms/agentkit/logging"
)

// Context is the engine's view of recent state when deciding.
type Context struct {
	RecentMessages     []string
	RecentRecords      []memory.Record
	PerformanceSummary string
}

// Engine selects one of {invoke, plan, reply} per incoming message.
//
// The selection policy is a strict three-branch decision table, not a
// learned policy. Branch order and the first-match capability tie-break
// are load-bearing for reproducibility:
//
//  1. a capability matches the intent's category AND the safety level is
//     not strict             -> invoke, confidence 0.8
//  2. complexity is complex AND adaptive learning is enabled
//     -> plan, confidence 0.7
//  3. otherwise              -> reply, confidence 0.6, verbatim message
type Engine struct {
	registry   *capability.Registry
	gate       *safety.Gate
	classifier Classifier
	logger     *logging.Logger

	mu                sync.RWMutex
	adaptiveLearning  bool
	complexityCeiling Complexity
}

// NewEngine creates a decision engine. The classifier may be nil, in which
// case every request takes the deterministic fallback classification.
func NewEngine(registry *capability.Registry, gate *safety.Gate, classifier Classifier) *Engine {
	return &Engine{
		registry:          registry,
		gate:              gate,
		classifier:        classifier,
		logger:            logging.New().WithComponent("decision"),
		adaptiveLearning:  true,
		complexityCeiling: ComplexityComplex,
	}
}

// SetAdaptiveLearning toggles the plan branch's precondition.
func (e *Engine) SetAdaptiveLearning(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.adaptiveLearning = enabled
}

// SetComplexityCeiling caps the complexity the engine will act on.
// Adaptation directives lower it to reduce response complexity on
// subsequent decision cycles.
func (e *Engine) SetComplexityCeiling(c Complexity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.complexityCeiling = c
}

// ComplexityCeiling returns the active ceiling.
func (e *Engine) ComplexityCeiling() Complexity {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.complexityCeiling
}

// Decide classifies the message and applies the decision table. It never
// returns an error: classifier failure degrades to the reply branch.
func (e *Engine) Decide(ctx context.Context, message string, dctx Context) Decision {
	cls, degraded := e.classify(ctx, message, dctx)

	category := CategoryForIntent(cls.Intent)
	matching := e.registry.ByCategory(category)

	// Branch 1: invoke
	if len(matching) > 0 && e.gate.Level() != safety.LevelStrict {
		chosen := matching[0]
		params := make(map[string]interface{}, len(cls.Entities)+1)
		for k, v := range cls.Entities {
			params[k] = v
		}
		if _, ok := params["text"]; !ok {
			params["text"] = message
		}
		e.logger.Debug("decision: invoke", map[string]interface{}{
			"capability": chosen.ID(),
			"category":   string(category),
		})
		return New(TypeInvoke, 0.8,
			fmt.Sprintf("intent %q matched capability %s in category %s", cls.Intent, chosen.ID(), category),
			Action{CapabilityID: chosen.ID(), Params: params})
	}

	// Branch 2: plan
	if e.effectiveComplexity(cls.Complexity) == ComplexityComplex && e.adaptiveEnabled() {
		e.logger.Debug("decision: plan", map[string]interface{}{"intent": cls.Intent})
		return New(TypePlan, 0.7,
			fmt.Sprintf("request classified as complex (%s), composing a plan", cls.Intent),
			Action{Prompt: message})
	}

	// Branch 3: reply
	reasoning := fmt.Sprintf("no capability for intent %q, generating a direct reply", cls.Intent)
	if degraded {
		reasoning = "classifier unavailable, degraded to direct reply"
	}
	return New(TypeReply, 0.6, reasoning, Action{Prompt: message})
}

// classify obtains the classification, falling back deterministically on
// any classifier failure. The fallback never raises.
func (e *Engine) classify(ctx context.Context, message string, dctx Context) (Classification, bool) {
	if e.classifier == nil {
		return fallbackClassification(), true
	}
	cls, err := e.classifier.Classify(ctx, message, dctx)
	if err != nil {
		e.logger.Warn("classifier failed, using fallback", map[string]interface{}{
			"error": err.Error(),
		})
		return fallbackClassification(), true
	}
	if cls.Entities == nil {
		cls.Entities = map[string]string{}
	}
	return cls, false
}

func (e *Engine) adaptiveEnabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.adaptiveLearning
}

// effectiveComplexity caps declared complexity at the configured ceiling.
func (e *Engine) effectiveComplexity(declared Complexity) Complexity {
	e.mu.RLock()
	ceiling := e.complexityCeiling
	e.mu.RUnlock()

	rank := map[Complexity]int{
		ComplexitySimple:   0,
		ComplexityModerate: 1,
		ComplexityComplex:  2,
	}
	if rank[declared] > rank[ceiling] {
		return ceiling
	}
	return declared
}
