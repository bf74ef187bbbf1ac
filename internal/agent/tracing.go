package agent

import (
	"context"

	"github.com/openclaw/axon/internal/decision"
	"github.com/openclaw/axon/internal/dispatch"
	"github.com/vinayprograms/agentkit/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// startProcessSpan starts a span covering one processed message.
func (a *Agent) startProcessSpan(ctx context.Context, text string) (context.Context, trace.Span) {
	tracer := telemetry.GetTracer()
	ctx, span := tracer.StartSpan(ctx, "agent.process")
	span.SetAttributes(
		attribute.String("agent.id", a.id),
		attribute.String("session.id", a.sess.ID),
	)
	if tracer.Debug() {
		span.SetAttributes(attribute.String("message.text", truncateForLog(text, 500)))
	}
	return ctx, span
}

// endProcessSpan records the decision and dispatch outcome on the span.
func (a *Agent) endProcessSpan(span trace.Span, dec decision.Decision, res dispatch.Result) {
	span.SetAttributes(
		attribute.String("decision.type", string(dec.Type)),
		attribute.Float64("decision.confidence", dec.Confidence),
		attribute.String("dispatch.status", string(res.Status)),
	)
	span.End()
}

// truncateForLog caps attribute payloads recorded on spans.
func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
