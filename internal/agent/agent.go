// Package agent wires the decision engine, dispatcher, memory, adaptation,
// and monitoring into one interactive runtime.
package agent

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openclaw/axon/internal/adaptation"
	"github.com/openclaw/axon/internal/capability"
	"github.com/openclaw/axon/internal/decision"
	"github.com/openclaw/axon/internal/dispatch"
	"github.com/openclaw/axon/internal/memory"
	"github.com/openclaw/axon/internal/monitor"
	"github.com/openclaw/axon/internal/safety"
	"github.com/openclaw/axon/internal/session"
	"github.com/vinayprograms/agentkit/logging"
)

// Message is one entry in the agent's message log.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // user or assistant
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Response is the agent's answer to one processed message.
type Response struct {
	Text       string
	DecisionID string
	Status     dispatch.Status
	Duration   time.Duration
}

// Options configures an Agent. Registry, Gate, Decisions, Dispatcher,
// Store, Learner, and Monitor are required; Archive and Sessions are
// optional extras.
type Options struct {
	ID         string
	Registry   *capability.Registry
	Gate       *safety.Gate
	Decisions  *decision.Engine
	Dispatcher *dispatch.Dispatcher
	Store      *memory.BoundedStore
	Archive    *memory.Archive
	Learner    *adaptation.Engine
	Monitor    *monitor.Monitor
	Sessions   session.Store
}

// Agent is the interactive runtime. Process is single-flight: one message
// is handled at a time, so the message log, decision log, and bounded
// memory stay mutually consistent.
type Agent struct {
	id         string
	registry   *capability.Registry
	gate       *safety.Gate
	decisions  *decision.Engine
	dispatcher *dispatch.Dispatcher
	store      *memory.BoundedStore
	archive    *memory.Archive
	learner    *adaptation.Engine
	monitor    *monitor.Monitor
	sessions   session.Store
	logger     *logging.Logger

	mu          sync.Mutex
	messages    []Message
	decisionLog []decision.Decision
	sess        *session.Session
}

// New creates an agent and opens its session log.
func New(opts Options) *Agent {
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	a := &Agent{
		id:         id,
		registry:   opts.Registry,
		gate:       opts.Gate,
		decisions:  opts.Decisions,
		dispatcher: opts.Dispatcher,
		store:      opts.Store,
		archive:    opts.Archive,
		learner:    opts.Learner,
		monitor:    opts.Monitor,
		sessions:   opts.Sessions,
		logger:     logging.New().WithComponent("agent"),
		sess:       session.NewSession(id),
	}
	return a
}

// ID returns the agent's identifier.
func (a *Agent) ID() string { return a.id }

// SessionID returns the active session's identifier.
func (a *Agent) SessionID() string { return a.sess.ID }

// Process runs one message through the full pipeline: decide, dispatch,
// learn, sample. It never returns an error to the caller; failures are
// carried in the response status. The user message, the decision, and the
// assistant message are appended together even when dispatch fails.
func (a *Agent) Process(ctx context.Context, text string) Response {
	a.mu.Lock()
	defer a.mu.Unlock()

	ctx, span := a.startProcessSpan(ctx, text)
	start := time.Now()

	userMsg := Message{ID: uuid.New().String(), Role: "user", Content: text, Timestamp: start}
	a.messages = append(a.messages, userMsg)
	a.sess.AddEvent(session.Event{Type: session.EventRequest, Content: text})

	dctx := a.decisionContext()
	cls := a.classifyForLearning(text)
	dec := a.decisions.Decide(ctx, text, dctx)
	a.decisionLog = append(a.decisionLog, dec)
	a.sess.AddEvent(session.Event{
		Type:       session.EventDecision,
		Content:    string(dec.Type),
		DecisionID: dec.ID,
		Detail: map[string]interface{}{
			"type":       string(dec.Type),
			"confidence": dec.Confidence,
			"reasoning":  dec.Reasoning,
		},
	})

	res := a.dispatcher.Dispatch(ctx, text, dec)

	assistantMsg := Message{ID: uuid.New().String(), Role: "assistant", Content: res.Text, Timestamp: time.Now()}
	a.messages = append(a.messages, assistantMsg)
	a.sess.AddEvent(session.Event{
		Type:       session.EventDispatch,
		DecisionID: dec.ID,
		Status:     string(res.Status),
		DurationMs: res.Duration.Milliseconds(),
	})

	a.archiveExchange(userMsg, assistantMsg)

	duration := time.Since(start)
	a.learner.Learn(adaptation.Outcome{
		Message:    text,
		Intent:     cls,
		Decision:   dec,
		Quality:    qualityOf(res),
		DurationMs: float64(duration.Milliseconds()),
	})
	a.monitor.Record(a.sampleVitals(duration, res))

	a.persistSession()
	a.endProcessSpan(span, dec, res)

	return Response{
		Text:       res.Text,
		DecisionID: dec.ID,
		Status:     res.Status,
		Duration:   duration,
	}
}

// classifyForLearning asks the learner for an intent guess so patterns
// carry an intent label even when the classifier is degraded.
func (a *Agent) classifyForLearning(text string) string {
	pred := a.learner.PredictIntent(text)
	if pred.Intent != "unknown" {
		return pred.Intent
	}
	return ""
}

// decisionContext snapshots recent state for the decision engine.
// Caller holds a.mu.
func (a *Agent) decisionContext() decision.Context {
	recent := make([]string, 0, 6)
	for _, m := range lastMessages(a.messages, 6) {
		recent = append(recent, m.Role+": "+m.Content)
	}
	return decision.Context{
		RecentMessages: recent,
		RecentRecords:  a.store.Recent(10),
	}
}

func lastMessages(messages []Message, n int) []Message {
	if len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}

// archiveExchange indexes both sides of the exchange for later recall.
// Archive failures are logged, never surfaced.
func (a *Agent) archiveExchange(user, assistant Message) {
	if a.archive == nil {
		return
	}
	for _, m := range []Message{user, assistant} {
		rec := memory.Record{ID: m.ID, Kind: memory.KindConversation, Timestamp: m.Timestamp}
		if err := a.archive.Index(rec, m.Role+": "+m.Content); err != nil {
			a.logger.Warn("archive index failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// qualityOf scores a dispatch outcome for the learner. Successful
// invocations score highest since they required a correct category match.
func qualityOf(res dispatch.Result) float64 {
	if res.Failed() {
		return 0.1
	}
	return 0.8
}

// sampleVitals builds a performance sample for this interaction. Memory
// and CPU ratios are process-level proxies: heap in use against heap
// reserved, and goroutine count against a nominal budget.
func (a *Agent) sampleVitals(duration time.Duration, res dispatch.Result) monitor.PerformanceSample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	memRatio := 0.0
	if ms.HeapSys > 0 {
		memRatio = float64(ms.HeapAlloc) / float64(ms.HeapSys)
	}
	cpuRatio := float64(runtime.NumGoroutine()) / 1000.0
	if cpuRatio > 1 {
		cpuRatio = 1
	}
	errRate := 0.0
	if res.Failed() {
		errRate = 1.0
	}
	return monitor.PerformanceSample{
		Timestamp:         time.Now(),
		ResponseTimeMs:    float64(duration.Milliseconds()),
		MemoryUsageRatio:  memRatio,
		CPUUsageRatio:     cpuRatio,
		ErrorRate:         errRate,
		SuccessRate:       1 - errRate,
		ActiveConnections: runtime.NumGoroutine(),
		QueueSize:         0,
	}
}

// persistSession saves the session log if a store is wired.
func (a *Agent) persistSession() {
	if a.sessions == nil {
		return
	}
	if err := a.sessions.Save(a.sess); err != nil {
		a.logger.Warn("session save failed", map[string]interface{}{"error": err.Error()})
	}
}

// Messages returns a snapshot of the message log.
func (a *Agent) Messages() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Message(nil), a.messages...)
}

// Decisions returns a snapshot of the decision log.
func (a *Agent) Decisions() []decision.Decision {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]decision.Decision(nil), a.decisionLog...)
}

// Health reports the monitor's current assessment.
func (a *Agent) Health() monitor.Report { return a.monitor.Health() }

// Trend reports the performance trend over samples in the window; a
// non-positive window covers the full history.
func (a *Agent) Trend(windowMinutes int) monitor.Trend {
	return a.monitor.PerformanceTrend(windowMinutes)
}

// Recall searches the long-term archive. With no archive wired it
// returns nothing.
func (a *Agent) Recall(query string, limit int) ([]memory.Hit, error) {
	if a.archive == nil {
		return nil, nil
	}
	return a.archive.Search(query, limit)
}

// Close closes the session log and releases the archive.
func (a *Agent) Close() error {
	a.mu.Lock()
	a.sess.Close()
	a.persistSession()
	archive := a.archive
	a.mu.Unlock()

	if archive != nil {
		return archive.Close()
	}
	return nil
}
