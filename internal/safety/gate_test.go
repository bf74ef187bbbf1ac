package safety

import (
	"context"
	"testing"

	"github.com/openclaw/axon/internal/capability"
)

type gateTestCap struct {
	schema capability.Schema
	allow  bool
	hasSC  bool
}

func (c *gateTestCap) ID() string                          { return "test.cap" }
func (c *gateTestCap) Name() string                        { return "test" }
func (c *gateTestCap) Category() capability.Category       { return capability.CategorySystem }
func (c *gateTestCap) ParameterSchema() capability.Schema  { return c.schema }
func (c *gateTestCap) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return nil, nil
}

type gateTestCapWithCheck struct {
	gateTestCap
}

func (c *gateTestCapWithCheck) SafetyCheck(params map[string]interface{}) bool {
	return c.allow
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"permissive", LevelPermissive},
		{"standard", LevelStandard},
		{"strict", LevelStrict},
		{"", LevelStandard},
		{"bogus", LevelStandard},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCheckRequiredParam(t *testing.T) {
	g := NewGate(LevelStandard)
	c := &gateTestCap{schema: capability.Schema{Params: []capability.Param{
		{Name: "path", Type: "string", Required: true},
	}}}

	if err := g.Check(c, map[string]interface{}{}); err == nil {
		t.Error("expected error for missing required param")
	}
	if err := g.Check(c, map[string]interface{}{"path": "/tmp"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckParamTypes(t *testing.T) {
	g := NewGate(LevelStandard)
	c := &gateTestCap{schema: capability.Schema{Params: []capability.Param{
		{Name: "count", Type: "number"},
		{Name: "dry", Type: "bool"},
	}}}

	if err := g.Check(c, map[string]interface{}{"count": "five"}); err == nil {
		t.Error("expected type error for count")
	}
	if err := g.Check(c, map[string]interface{}{"count": 5, "dry": true}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := g.Check(c, map[string]interface{}{"count": 3.5}); err != nil {
		t.Errorf("float should satisfy number: %v", err)
	}
}

func TestCheckSafetyPredicate(t *testing.T) {
	g := NewGate(LevelStandard)

	denied := &gateTestCapWithCheck{gateTestCap{allow: false}}
	if err := g.Check(denied, map[string]interface{}{}); err == nil {
		t.Error("expected error when predicate rejects")
	}

	allowed := &gateTestCapWithCheck{gateTestCap{allow: true}}
	if err := g.Check(allowed, map[string]interface{}{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRaiseCapsAtStrict(t *testing.T) {
	g := NewGate(LevelPermissive)
	g.Raise()
	if g.Level() != LevelStandard {
		t.Errorf("expected standard, got %v", g.Level())
	}
	g.Raise()
	g.Raise() // already strict, stays strict
	if g.Level() != LevelStrict {
		t.Errorf("expected strict, got %v", g.Level())
	}
}
