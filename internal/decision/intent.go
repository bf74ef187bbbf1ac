package decision

import (
	"context"
	"strings"

	"github.com/openclaw/axon/internal/capability"
)

// Urgency of a classified request.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Complexity of a classified request.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Classification is the intent oracle's output for a request.
type Classification struct {
	Intent     string            `json:"intent"`
	Entities   map[string]string `json:"entities"`
	Urgency    Urgency           `json:"urgency"`
	Complexity Complexity        `json:"complexity"`
}

// Classifier is the external intent oracle. Implementations may fail or
// time out; the engine recovers with a deterministic fallback and never
// surfaces classifier errors to its caller.
type Classifier interface {
	Classify(ctx context.Context, text string, dctx Context) (Classification, error)
}

// fallbackClassification is used when the classifier is unavailable.
func fallbackClassification() Classification {
	return Classification{
		Intent:     "reply",
		Entities:   map[string]string{},
		Urgency:    UrgencyMedium,
		Complexity: ComplexitySimple,
	}
}

// intentSuffixes are stripped when mapping an intent label to a capability
// category, e.g. "code_generation" maps to category "code". The list order
// matters: longer suffixes are tried first.
var intentSuffixes = []string{
	"_generation",
	"_management",
	"_operation",
	"_execution",
	"_request",
	"_command",
	"_task",
}

// CategoryForIntent maps an intent label to a capability category by
// stripping known suffixes. The string matching is deliberately simple and
// kept behind this one function so it can be replaced by an explicit
// intent-to-category table without touching the engine's control flow.
func CategoryForIntent(intent string) capability.Category {
	label := strings.ToLower(strings.TrimSpace(intent))
	for _, suffix := range intentSuffixes {
		if strings.HasSuffix(label, suffix) {
			label = strings.TrimSuffix(label, suffix)
			break
		}
	}
	return capability.Category(label)
}
