package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/openclaw/axon/internal/capability"
	"github.com/openclaw/axon/internal/decision"
	"github.com/openclaw/axon/internal/memory"
	"github.com/openclaw/axon/internal/safety"
)

type testCap struct {
	id      string
	cat     capability.Category
	execute func(ctx context.Context, params map[string]interface{}) (interface{}, error)
	safe    func(params map[string]interface{}) bool
}

func (c *testCap) ID() string                         { return c.id }
func (c *testCap) Name() string                       { return c.id }
func (c *testCap) Category() capability.Category      { return c.cat }
func (c *testCap) ParameterSchema() capability.Schema { return capability.Schema{} }
func (c *testCap) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return c.execute(ctx, params)
}
func (c *testCap) SafetyCheck(params map[string]interface{}) bool {
	if c.safe == nil {
		return true
	}
	return c.safe(params)
}

type stubGenerator struct {
	text string
	err  error
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.text, g.err
}

func countKind(store *memory.BoundedStore, kind memory.Kind) int {
	n := 0
	for _, rec := range store.All() {
		if rec.Kind == kind {
			n++
		}
	}
	return n
}

func newTestDispatcher(t *testing.T, caps ...capability.Capability) (*Dispatcher, *memory.BoundedStore) {
	t.Helper()
	reg := capability.NewRegistry()
	for _, c := range caps {
		if err := reg.Register(c); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	store := memory.NewBoundedStore(50)
	return New(reg, safety.NewGate(safety.LevelStandard), &stubGenerator{text: "generated"}, store, time.Second), store
}

func TestDispatchInvokeSuccess(t *testing.T) {
	d, store := newTestDispatcher(t, &testCap{
		id:  "code.gen",
		cat: capability.CategoryCode,
		execute: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return "generated code", nil
		},
	})

	dec := decision.New(decision.TypeInvoke, 0.8, "", decision.Action{CapabilityID: "code.gen"})
	res := d.Dispatch(context.Background(), "write code", dec)

	if res.Status != StatusOK {
		t.Fatalf("expected ok, got %s (%s)", res.Status, res.Detail)
	}
	if res.Text != "generated code" {
		t.Errorf("unexpected text %q", res.Text)
	}
	if n := countKind(store, memory.KindInvocationResult); n != 1 {
		t.Errorf("expected 1 invocation record, got %d", n)
	}
	if n := countKind(store, memory.KindConversation); n != 1 {
		t.Errorf("expected 1 conversation record, got %d", n)
	}
}

func TestDispatchUnknownCapability(t *testing.T) {
	d, store := newTestDispatcher(t)

	dec := decision.New(decision.TypeInvoke, 0.8, "", decision.Action{CapabilityID: "ghost"})
	res := d.Dispatch(context.Background(), "hi", dec)

	if res.Status != StatusNotFound {
		t.Fatalf("expected capability-not-found, got %s", res.Status)
	}
	if !res.Failed() {
		t.Error("expected Failed() to be true")
	}
	// Failures still leave a conversation trail.
	if n := countKind(store, memory.KindConversation); n != 1 {
		t.Errorf("expected 1 conversation record, got %d", n)
	}
}

func TestDispatchSafetyRejection(t *testing.T) {
	d, store := newTestDispatcher(t, &testCap{
		id:  "sys.wipe",
		cat: capability.CategorySystem,
		execute: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			t.Fatal("execute must not run after safety rejection")
			return nil, nil
		},
		safe: func(params map[string]interface{}) bool { return false },
	})

	dec := decision.New(decision.TypeInvoke, 0.8, "", decision.Action{CapabilityID: "sys.wipe"})
	res := d.Dispatch(context.Background(), "wipe it", dec)

	if res.Status != StatusSafetyRejected {
		t.Fatalf("expected safety-check-failed, got %s", res.Status)
	}
	if n := countKind(store, memory.KindInvocationResult); n != 0 {
		t.Errorf("expected no invocation records after rejection, got %d", n)
	}
}

func TestDispatchExecutionFailure(t *testing.T) {
	d, store := newTestDispatcher(t, &testCap{
		id:  "net.fetch",
		cat: capability.CategoryNetwork,
		execute: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return nil, errors.New("connection refused")
		},
	})

	dec := decision.New(decision.TypeInvoke, 0.8, "", decision.Action{CapabilityID: "net.fetch"})
	res := d.Dispatch(context.Background(), "fetch it", dec)

	if res.Status != StatusExecFailed {
		t.Fatalf("expected execution-failed, got %s", res.Status)
	}
	if !strings.Contains(res.Detail, "connection refused") {
		t.Errorf("expected cause in detail, got %q", res.Detail)
	}
	if n := countKind(store, memory.KindInvocationResult); n != 0 {
		t.Errorf("expected no invocation records after failure, got %d", n)
	}
}

func TestDispatchInvocationTimeout(t *testing.T) {
	reg := capability.NewRegistry()
	reg.Register(&testCap{
		id:  "slow.op",
		cat: capability.CategorySystem,
		execute: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			select {
			case <-time.After(5 * time.Second):
				return "too late", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	})
	store := memory.NewBoundedStore(10)
	d := New(reg, safety.NewGate(safety.LevelStandard), nil, store, 20*time.Millisecond)

	dec := decision.New(decision.TypeInvoke, 0.8, "", decision.Action{CapabilityID: "slow.op"})
	res := d.Dispatch(context.Background(), "go slow", dec)

	if res.Status != StatusExecFailed {
		t.Errorf("expected execution-failed on timeout, got %s", res.Status)
	}
}

func TestDispatchCapabilityPanicIsContained(t *testing.T) {
	d, _ := newTestDispatcher(t, &testCap{
		id:  "bad.op",
		cat: capability.CategorySystem,
		execute: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			panic("boom")
		},
	})

	dec := decision.New(decision.TypeInvoke, 0.8, "", decision.Action{CapabilityID: "bad.op"})
	res := d.Dispatch(context.Background(), "break", dec)

	if res.Status != StatusExecFailed {
		t.Errorf("expected execution-failed on panic, got %s", res.Status)
	}
}

func TestDispatchPlanOutline(t *testing.T) {
	d, _ := newTestDispatcher(t)

	dec := decision.New(decision.TypePlan, 0.7, "", decision.Action{Prompt: "migrate everything"})
	res := d.Dispatch(context.Background(), "migrate everything", dec)

	if res.Status != StatusOK {
		t.Fatalf("expected ok, got %s", res.Status)
	}
	if res.Text == "" {
		t.Fatal("plan outline must not be empty")
	}
	for _, phase := range []string{"analysis", "capability selection", "execution", "validation"} {
		if !strings.Contains(res.Text, phase) {
			t.Errorf("plan missing phase %q", phase)
		}
	}
}

func TestDispatchReply(t *testing.T) {
	d, _ := newTestDispatcher(t)

	dec := decision.New(decision.TypeReply, 0.6, "", decision.Action{Prompt: "hello"})
	res := d.Dispatch(context.Background(), "hello", dec)

	if res.Status != StatusOK || res.Text != "generated" {
		t.Errorf("expected generated reply, got %s/%q", res.Status, res.Text)
	}
}

func TestDispatchReplyGeneratorFailureEchoes(t *testing.T) {
	reg := capability.NewRegistry()
	store := memory.NewBoundedStore(10)
	d := New(reg, safety.NewGate(safety.LevelStandard), &stubGenerator{err: errors.New("model down")}, store, time.Second)

	dec := decision.New(decision.TypeReply, 0.6, "", decision.Action{Prompt: "what time is it"})
	res := d.Dispatch(context.Background(), "what time is it", dec)

	if res.Status != StatusOK {
		t.Fatalf("generator failure must not fail the dispatch, got %s", res.Status)
	}
	if !strings.Contains(res.Text, "what time is it") {
		t.Errorf("expected echo of the request, got %q", res.Text)
	}
}

func TestRenderResult(t *testing.T) {
	if got := renderResult("plain"); got != "plain" {
		t.Errorf("string passthrough failed: %q", got)
	}
	if got := renderResult(nil); got != "done" {
		t.Errorf("nil render failed: %q", got)
	}
	got := renderResult(map[string]interface{}{"count": 3})
	if !strings.Contains(got, `"count": 3`) {
		t.Errorf("map render failed: %q", got)
	}
}
