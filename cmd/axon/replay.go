package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/openclaw/axon/internal/session"
)

var (
	seqStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(5).Align(lipgloss.Right)
	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	requestStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	flowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

// replaySession prints a stored session's event log in order.
func replaySession(w io.Writer, sess *session.Session, verbose bool) {
	fmt.Fprintf(w, "%s %s\n", flowStyle.Render("SESSION:"), valueStyle.Render(sess.ID))
	fmt.Fprintf(w, "%s agent=%s status=%s events=%d started=%s\n\n",
		dimStyle.Render("  meta:"),
		sess.AgentID, sess.Status, len(sess.Events),
		sess.CreatedAt.Format("2006-01-02 15:04:05"))

	for i := range sess.Events {
		formatEvent(w, &sess.Events[i], verbose)
	}
}

// formatEvent renders one event line, plus detail lines when verbose.
func formatEvent(w io.Writer, event *session.Event, verbose bool) {
	seq := seqStyle.Render(fmt.Sprintf("%d", event.SeqID))
	ts := timeStyle.Render(event.Timestamp.Format("15:04:05"))

	switch event.Type {
	case session.EventRequest:
		fmt.Fprintf(w, "%s │ %s │ %s %s\n", seq, ts,
			requestStyle.Render("REQUEST"), valueStyle.Render(truncateContent(event.Content, 100)))
	case session.EventDecision:
		fmt.Fprintf(w, "%s │ %s │ %s %s %s\n", seq, ts,
			flowStyle.Render("DECISION"), valueStyle.Render(event.Content),
			dimStyle.Render(event.DecisionID))
	case session.EventDispatch:
		status := okStyle.Render(event.Status)
		if event.Status != "ok" {
			status = errStyle.Render(event.Status)
		}
		fmt.Fprintf(w, "%s │ %s │ %s %s %s\n", seq, ts,
			flowStyle.Render("DISPATCH"), status,
			dimStyle.Render(fmt.Sprintf("(%dms)", event.DurationMs)))
		if event.Content != "" {
			printContent(w, event.Content)
		}
	case session.EventAdapt:
		fmt.Fprintf(w, "%s │ %s │ %s %s\n", seq, ts,
			flowStyle.Render("ADAPT"), valueStyle.Render(event.Content))
	case session.EventHealth:
		fmt.Fprintf(w, "%s │ %s │ %s %s\n", seq, ts,
			flowStyle.Render("HEALTH"), valueStyle.Render(event.Content))
	default:
		fmt.Fprintf(w, "%s │ %s │ %s\n", seq, ts, dimStyle.Render(event.Type))
	}

	if verbose && len(event.Detail) > 0 {
		printDetail(w, event.Detail)
	}
}

// printContent indents event content under its header line.
func printContent(w io.Writer, content string) {
	for _, line := range strings.Split(truncateContent(content, 400), "\n") {
		fmt.Fprintf(w, "      │          │   %s\n", dimStyle.Render(line))
	}
}

// printDetail renders the detail map as indented JSON.
func printDetail(w io.Writer, detail map[string]interface{}) {
	data, err := json.MarshalIndent(detail, "      │          │   ", "  ")
	if err != nil {
		return
	}
	fmt.Fprintf(w, "      │          │   %s\n", dimStyle.Render(string(data)))
}

func truncateContent(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
