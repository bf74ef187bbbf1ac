package dispatch

import (
	"fmt"
	"strings"

	"github.com/openclaw/axon/internal/decision"
)

// planPhases is the fixed decomposition applied to every complex request.
// Plans are outlines for the user, not executable task graphs.
var planPhases = []struct {
	name        string
	description string
}{
	{"analysis", "Break the request down and identify what is being asked."},
	{"capability selection", "Match each part against the registered capabilities."},
	{"execution", "Run the selected capabilities in order, feeding results forward."},
	{"validation", "Check the combined output against the original request."},
}

// plan renders the fixed multi-phase outline for a complex request. The
// outline is always non-empty regardless of the request text.
func (d *Dispatcher) plan(dec decision.Decision) Result {
	var b strings.Builder
	fmt.Fprintf(&b, "This looks complex. Here is how I would approach %q:\n", dec.Action.Prompt)
	for i, phase := range planPhases {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, phase.name, phase.description)
	}
	return Result{Status: StatusOK, Text: b.String()}
}
