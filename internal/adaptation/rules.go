package adaptation

import (
	"fmt"
	"os"
	"sort"

	"github.com/openclaw/axon/internal/decision"
	"github.com/openclaw/axon/internal/memory"
	"github.com/openclaw/axon/internal/safety"
	"gopkg.in/yaml.v3"
)

// Targets are the runtime knobs adaptation rules may turn. Fields may be
// nil; a rule whose action needs an absent target fails in isolation.
// Memory, when wired, receives an adaptation-event record per fired rule.
type Targets struct {
	Decisions *decision.Engine
	Safety    *safety.Gate
	Memory    *memory.BoundedStore
}

// Metrics is the snapshot a rule condition evaluates against. Averages
// cover the most recent metricsWindow history entries.
type Metrics struct {
	SampleCount   int
	AvgQuality    float64
	AvgConfidence float64
	AvgDurationMs float64
	PatternCount  int
}

// metricsWindow is how many recent entries feed the rule metrics.
const metricsWindow = 20

// Rule is one adaptation directive. Lower priority runs first. A rule
// whose condition or action fails never blocks the other rules.
type Rule struct {
	Name      string
	Priority  int
	Condition func(Metrics) bool
	Action    func(Targets) error
}

func sortRules(rules []Rule) []Rule {
	out := append([]Rule(nil), rules...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// defaultRules tune the runtime down when outcomes deteriorate. They are
// conservative on purpose: each needs a full metrics window before firing.
func defaultRules() []Rule {
	return []Rule{
		{
			Name:     "reduce-complexity-ceiling",
			Priority: 10,
			Condition: func(m Metrics) bool {
				return m.SampleCount >= metricsWindow && m.AvgQuality < 0.4
			},
			Action: func(t Targets) error {
				if t.Decisions == nil {
					return fmt.Errorf("no decision engine wired")
				}
				t.Decisions.SetComplexityCeiling(decision.ComplexityModerate)
				return nil
			},
		},
		{
			Name:     "raise-safety-level",
			Priority: 20,
			Condition: func(m Metrics) bool {
				return m.SampleCount >= metricsWindow && m.AvgQuality < 0.2
			},
			Action: func(t Targets) error {
				if t.Safety == nil {
					return fmt.Errorf("no safety gate wired")
				}
				t.Safety.Raise()
				return nil
			},
		},
	}
}

// metrics computes the current rule metrics. Caller holds no lock.
func (e *Engine) metrics() Metrics {
	e.mu.RLock()
	defer e.mu.RUnlock()

	m := Metrics{SampleCount: len(e.history), PatternCount: len(e.patterns)}
	window := e.history
	if len(window) > metricsWindow {
		window = window[len(window)-metricsWindow:]
	}
	if len(window) == 0 {
		return m
	}
	for _, entry := range window {
		m.AvgQuality += entry.Quality
		m.AvgConfidence += entry.Confidence
		m.AvgDurationMs += entry.DurationMs
	}
	n := float64(len(window))
	m.AvgQuality /= n
	m.AvgConfidence /= n
	m.AvgDurationMs /= n
	return m
}

// evaluateRules runs every rule against the current metrics in priority
// order. Rule failures are collected, logged by the caller, and never
// stop later rules.
func (e *Engine) evaluateRules() error {
	m := e.metrics()

	e.mu.RLock()
	rules := e.rules
	targets := e.targets
	e.mu.RUnlock()

	var failed int
	for _, rule := range rules {
		if rule.Condition == nil || !rule.Condition(m) {
			continue
		}
		if err := rule.Action(targets); err != nil {
			failed++
			e.logger.Warn("rule action failed", map[string]interface{}{
				"rule":  rule.Name,
				"error": err.Error(),
			})
			continue
		}
		e.logger.Info("rule fired", map[string]interface{}{"rule": rule.Name})
		if targets.Memory != nil {
			targets.Memory.Append(memory.NewRecord(memory.KindAdaptationEvent, map[string]interface{}{
				"rule":         rule.Name,
				"sample_count": m.SampleCount,
				"avg_quality":  m.AvgQuality,
			}))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d rule action(s) failed", failed)
	}
	return nil
}

// rulesFile is the on-disk adaptation configuration.
type rulesFile struct {
	Phrases []string `yaml:"phrases"`
	Rules   []struct {
		Name       string  `yaml:"name"`
		Priority   int     `yaml:"priority"`
		Metric     string  `yaml:"metric"`
		Below      float64 `yaml:"below"`
		MinSamples int     `yaml:"min_samples"`
		Action     string  `yaml:"action"`
	} `yaml:"rules"`
}

// ruleActions maps declarative action names to runtime mutations.
var ruleActions = map[string]func(Targets) error{
	"reduce-complexity-ceiling": func(t Targets) error {
		if t.Decisions == nil {
			return fmt.Errorf("no decision engine wired")
		}
		t.Decisions.SetComplexityCeiling(decision.ComplexityModerate)
		return nil
	},
	"raise-safety-level": func(t Targets) error {
		if t.Safety == nil {
			return fmt.Errorf("no safety gate wired")
		}
		t.Safety.Raise()
		return nil
	},
	"disable-adaptive-learning": func(t Targets) error {
		if t.Decisions == nil {
			return fmt.Errorf("no decision engine wired")
		}
		t.Decisions.SetAdaptiveLearning(false)
		return nil
	},
}

// ruleMetrics maps declarative metric names to Metrics accessors.
var ruleMetrics = map[string]func(Metrics) float64{
	"average_quality":     func(m Metrics) float64 { return m.AvgQuality },
	"average_confidence":  func(m Metrics) float64 { return m.AvgConfidence },
	"average_duration_ms": func(m Metrics) float64 { return m.AvgDurationMs },
}

// LoadRulesFile reads a YAML lexicon and rule set and installs both on the
// engine. Unknown metric or action names reject the whole file.
func (e *Engine) LoadRulesFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading rules file: %w", err)
	}
	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing rules file: %w", err)
	}

	rules := make([]Rule, 0, len(file.Rules))
	for _, raw := range file.Rules {
		metric, ok := ruleMetrics[raw.Metric]
		if !ok {
			return fmt.Errorf("rule %q: unknown metric %q", raw.Name, raw.Metric)
		}
		action, ok := ruleActions[raw.Action]
		if !ok {
			return fmt.Errorf("rule %q: unknown action %q", raw.Name, raw.Action)
		}
		threshold := raw.Below
		minSamples := raw.MinSamples
		rules = append(rules, Rule{
			Name:     raw.Name,
			Priority: raw.Priority,
			Condition: func(m Metrics) bool {
				return m.SampleCount >= minSamples && metric(m) < threshold
			},
			Action: action,
		})
	}

	if len(file.Phrases) > 0 {
		e.SetLexicon(file.Phrases)
	}
	if len(rules) > 0 {
		e.SetRules(rules)
	}
	e.logger.Info("rules file loaded", map[string]interface{}{
		"path":    path,
		"phrases": len(file.Phrases),
		"rules":   len(rules),
	})
	return nil
}
