// Package safety validates proposed capability invocations before execution.
package safety

import (
	"fmt"
	"sync"

	"github.com/openclaw/axon/internal/capability"
	"github.com/vinayprograms/agentkit/logging"
)

// Level is the active safety tier. Strict is the most restrictive tier:
// the decision engine never routes to capability invocation under it.
type Level int

const (
	LevelPermissive Level = iota
	LevelStandard
	LevelStrict
)

// String returns the configuration name of the level.
func (l Level) String() string {
	switch l {
	case LevelPermissive:
		return "permissive"
	case LevelStandard:
		return "standard"
	case LevelStrict:
		return "strict"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel maps a configuration string to a Level. Unknown values
// default to standard.
func ParseLevel(s string) Level {
	switch s {
	case "permissive":
		return LevelPermissive
	case "strict":
		return LevelStrict
	default:
		return LevelStandard
	}
}

// Gate validates invocation parameters against the capability's declared
// schema and runs its safety predicate. The level may be raised at runtime
// by adaptation directives; reads and writes are synchronized.
type Gate struct {
	mu     sync.RWMutex
	level  Level
	logger *logging.Logger
}

// NewGate creates a gate at the given level.
func NewGate(level Level) *Gate {
	return &Gate{
		level:  level,
		logger: logging.New().WithComponent("safety"),
	}
}

// Level returns the active safety level.
func (g *Gate) Level() Level {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.level
}

// SetLevel changes the active safety level.
func (g *Gate) SetLevel(l Level) {
	g.mu.Lock()
	prev := g.level
	g.level = l
	g.mu.Unlock()
	if prev != l {
		g.logger.Info("safety level changed", map[string]interface{}{
			"from": prev.String(),
			"to":   l.String(),
		})
	}
}

// Raise moves the level one tier stricter, capped at strict.
func (g *Gate) Raise() {
	g.mu.Lock()
	if g.level < LevelStrict {
		g.level++
	}
	l := g.level
	g.mu.Unlock()
	g.logger.Info("safety level raised", map[string]interface{}{"level": l.String()})
}

// Check validates params for the capability. It returns nil when the
// invocation may proceed, or a descriptive error when it must not.
// The underlying Execute must not be called after a non-nil result.
func (g *Gate) Check(c capability.Capability, params map[string]interface{}) error {
	if err := validateParams(c.ParameterSchema(), params); err != nil {
		g.logger.Warn("parameter validation failed", map[string]interface{}{
			"capability": c.ID(),
			"error":      err.Error(),
		})
		return err
	}

	if checker, ok := c.(capability.SafetyChecker); ok {
		if !checker.SafetyCheck(params) {
			g.logger.Warn("safety predicate rejected invocation", map[string]interface{}{
				"capability": c.ID(),
			})
			return fmt.Errorf("safety check failed for %s", c.ID())
		}
	}
	return nil
}

// validateParams checks required keys and declared types.
func validateParams(schema capability.Schema, params map[string]interface{}) error {
	for _, p := range schema.Params {
		v, ok := params[p.Name]
		if !ok {
			if p.Required {
				return fmt.Errorf("missing required parameter %q", p.Name)
			}
			continue
		}
		if !typeMatches(p.Type, v) {
			return fmt.Errorf("parameter %q: expected %s, got %T", p.Name, p.Type, v)
		}
	}
	return nil
}

func typeMatches(declared string, v interface{}) bool {
	switch declared {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		switch v.(type) {
		case int, int64, float32, float64:
			return true
		}
		return false
	case "bool":
		_, ok := v.(bool)
		return ok
	case "object":
		_, ok := v.(map[string]interface{})
		return ok
	default:
		// Unknown declared types pass through; the capability validates.
		return true
	}
}
