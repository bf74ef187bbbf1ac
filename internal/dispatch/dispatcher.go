// Package dispatch executes decisions against the capability registry.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openclaw/axon/internal/capability"
	"github.com/openclaw/axon/internal/decision"
	"github.com/openclaw/axon/internal/memory"
	"github.com/openclaw/axon/internal/safety"
	"github.com/vinayprograms/agentkit/logging"
)

// Status classifies a dispatch result. Failures are values, not errors:
// no execution fault propagates past the dispatcher boundary.
type Status string

const (
	StatusOK             Status = "ok"
	StatusNotFound       Status = "capability-not-found"
	StatusSafetyRejected Status = "safety-check-failed"
	StatusExecFailed     Status = "execution-failed"
)

// Result is the dispatcher's user-presentable outcome.
type Result struct {
	Status   Status
	Text     string
	Detail   string
	Duration time.Duration
}

// Failed reports whether the dispatch ended in any failure status.
func (r Result) Failed() bool { return r.Status != StatusOK }

// Generator produces a direct textual reply. It may fail; the dispatcher
// degrades to an apology echo and never raises.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// DefaultInvokeTimeout bounds a single capability invocation.
const DefaultInvokeTimeout = 30 * time.Second

// Dispatcher executes decisions, enforcing the safety gate and recording
// outcomes in bounded memory.
type Dispatcher struct {
	registry  *capability.Registry
	gate      *safety.Gate
	generator Generator
	store     *memory.BoundedStore
	timeout   time.Duration
	logger    *logging.Logger
}

// New creates a dispatcher. A zero timeout uses DefaultInvokeTimeout.
func New(registry *capability.Registry, gate *safety.Gate, generator Generator, store *memory.BoundedStore, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultInvokeTimeout
	}
	return &Dispatcher{
		registry:  registry,
		gate:      gate,
		generator: generator,
		store:     store,
		timeout:   timeout,
		logger:    logging.New().WithComponent("dispatcher"),
	}
}

// Dispatch executes the decision and returns a textual result. Every branch
// appends exactly one conversation record pairing the user message, the
// assistant text, and the decision id.
func (d *Dispatcher) Dispatch(ctx context.Context, userMessage string, dec decision.Decision) Result {
	start := time.Now()

	var res Result
	switch dec.Type {
	case decision.TypeInvoke:
		res = d.invoke(ctx, dec)
	case decision.TypePlan:
		res = d.plan(dec)
	case decision.TypeReply, decision.TypeAdapt:
		res = d.reply(ctx, dec)
	default:
		res = Result{
			Status: StatusExecFailed,
			Text:   fmt.Sprintf("I don't know how to handle a %q decision.", dec.Type),
			Detail: "unknown decision type",
		}
	}
	res.Duration = time.Since(start)

	d.store.Append(memory.NewRecord(memory.KindConversation, map[string]interface{}{
		"user":        userMessage,
		"assistant":   res.Text,
		"decision_id": dec.ID,
		"type":        string(dec.Type),
		"status":      string(res.Status),
	}))

	d.logger.Info("dispatched", map[string]interface{}{
		"type":     string(dec.Type),
		"status":   string(res.Status),
		"duration": res.Duration.String(),
	})
	return res
}

// invoke resolves and executes a capability through the safety gate.
func (d *Dispatcher) invoke(ctx context.Context, dec decision.Decision) Result {
	cap := d.registry.Get(dec.Action.CapabilityID)
	if cap == nil {
		return Result{
			Status: StatusNotFound,
			Text:   fmt.Sprintf("Capability %q is not registered.", dec.Action.CapabilityID),
			Detail: dec.Action.CapabilityID,
		}
	}

	if err := d.gate.Check(cap, dec.Action.Params); err != nil {
		return Result{
			Status: StatusSafetyRejected,
			Text:   fmt.Sprintf("Safety check rejected %s: %v", cap.ID(), err),
			Detail: err.Error(),
		}
	}

	out, err := d.execute(ctx, cap, dec.Action.Params)
	if err != nil {
		d.logger.Warn("capability execution failed", map[string]interface{}{
			"capability": cap.ID(),
			"error":      err.Error(),
		})
		return Result{
			Status: StatusExecFailed,
			Text:   fmt.Sprintf("Executing %s failed: %v", cap.ID(), err),
			Detail: err.Error(),
		}
	}

	d.store.Append(memory.NewRecord(memory.KindInvocationResult, map[string]interface{}{
		"capability_id": cap.ID(),
		"params":        dec.Action.Params,
		"result":        out,
	}))

	return Result{Status: StatusOK, Text: renderResult(out)}
}

// execute runs the capability under the invocation timeout. A capability
// that ignores its context cannot block the caller past the deadline.
func (d *Dispatcher) execute(ctx context.Context, cap capability.Capability, params map[string]interface{}) (out interface{}, err error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	type outcome struct {
		val interface{}
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("capability panicked: %v", r)}
			}
		}()
		val, execErr := cap.Execute(ctx, params)
		done <- outcome{val: val, err: execErr}
	}()

	select {
	case o := <-done:
		return o.val, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("invocation timed out after %s", d.timeout)
	}
}

// reply generates a direct answer, degrading to an apology echo on failure.
func (d *Dispatcher) reply(ctx context.Context, dec decision.Decision) Result {
	if d.generator != nil {
		text, err := d.generator.Generate(ctx, dec.Action.Prompt)
		if err == nil && text != "" {
			return Result{Status: StatusOK, Text: text}
		}
		if err != nil {
			d.logger.Warn("generator failed, echoing request", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return Result{
		Status: StatusOK,
		Text:   fmt.Sprintf("Sorry, I couldn't generate a proper response. You said: %q", dec.Action.Prompt),
	}
}

// renderResult turns an opaque capability result into presentable text.
func renderResult(out interface{}) string {
	switch v := out.(type) {
	case string:
		return v
	case nil:
		return "done"
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
