package capability

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// RegisterBuiltins registers the built-in sample capabilities.
// Real effectful capabilities are expected to be registered by the caller.
func RegisterBuiltins(r *Registry) error {
	builtins := []Capability{
		&clockCapability{},
		&echoCapability{},
		&wordCountCapability{},
		&sysInfoCapability{},
	}
	for _, c := range builtins {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// clockCapability reports the current time.
type clockCapability struct{}

func (c *clockCapability) ID() string         { return "system.clock" }
func (c *clockCapability) Name() string       { return "clock" }
func (c *clockCapability) Category() Category { return CategorySystem }

func (c *clockCapability) ParameterSchema() Schema {
	return Schema{Params: []Param{
		{Name: "format", Type: "string", Description: "Go time layout, defaults to RFC3339"},
	}}
}

func (c *clockCapability) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	layout := time.RFC3339
	if f, ok := params["format"].(string); ok && f != "" {
		layout = f
	}
	return time.Now().Format(layout), nil
}

// echoCapability returns its input unchanged.
type echoCapability struct{}

func (c *echoCapability) ID() string         { return "text.echo" }
func (c *echoCapability) Name() string       { return "echo" }
func (c *echoCapability) Category() Category { return CategoryText }

func (c *echoCapability) ParameterSchema() Schema {
	return Schema{Params: []Param{
		{Name: "text", Type: "string", Required: true},
	}}
}

func (c *echoCapability) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	text, ok := params["text"].(string)
	if !ok {
		return nil, fmt.Errorf("text is required")
	}
	return text, nil
}

// wordCountCapability counts words in text.
type wordCountCapability struct{}

func (c *wordCountCapability) ID() string         { return "text.wordcount" }
func (c *wordCountCapability) Name() string       { return "word-count" }
func (c *wordCountCapability) Category() Category { return CategoryText }

func (c *wordCountCapability) ParameterSchema() Schema {
	return Schema{Params: []Param{
		{Name: "text", Type: "string", Required: true},
	}}
}

func (c *wordCountCapability) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	text, ok := params["text"].(string)
	if !ok {
		return nil, fmt.Errorf("text is required")
	}
	return map[string]interface{}{
		"words": len(strings.Fields(text)),
		"chars": len(text),
	}, nil
}

// sysInfoCapability reports basic runtime information. Carries a safety
// predicate that rejects unknown detail levels.
type sysInfoCapability struct{}

func (c *sysInfoCapability) ID() string         { return "system.info" }
func (c *sysInfoCapability) Name() string       { return "system-info" }
func (c *sysInfoCapability) Category() Category { return CategorySystem }

func (c *sysInfoCapability) ParameterSchema() Schema {
	return Schema{Params: []Param{
		{Name: "detail", Type: "string", Description: "basic or full"},
	}}
}

func (c *sysInfoCapability) SafetyCheck(params map[string]interface{}) bool {
	d, ok := params["detail"].(string)
	if !ok || d == "" {
		return true
	}
	return d == "basic" || d == "full"
}

func (c *sysInfoCapability) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	info := map[string]interface{}{
		"os":   runtime.GOOS,
		"arch": runtime.GOARCH,
	}
	if d, _ := params["detail"].(string); d == "full" {
		info["cpus"] = runtime.NumCPU()
		info["goroutines"] = runtime.NumGoroutine()
	}
	return info, nil
}
