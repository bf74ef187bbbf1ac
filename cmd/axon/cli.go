// Package main defines the CLI structure using kong.
package main

import "github.com/alecthomas/kong"

// CLI defines the command-line interface.
type CLI struct {
	Config string `help:"Config file path" default:"axon.toml"`

	Chat     ChatCmd     `cmd:"" help:"Start an interactive chat session"`
	Ask      AskCmd      `cmd:"" help:"Process a single message and exit"`
	Health   HealthCmd   `cmd:"" help:"Show the agent's health report"`
	Recall   RecallCmd   `cmd:"" help:"Search archived conversations"`
	Export   ExportCmd   `cmd:"" help:"Export agent state to a JSON snapshot"`
	Import   ImportCmd   `cmd:"" help:"Import agent state from a JSON snapshot"`
	Sessions SessionsCmd `cmd:"" help:"List stored sessions"`
	Setup    SetupCmd    `cmd:"" help:"Interactive setup wizard"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// ChatCmd starts the interactive TUI.
type ChatCmd struct {
	Safety string `help:"Override safety level (permissive, standard, strict)"`
}

// AskCmd processes one message.
type AskCmd struct {
	Message []string `arg:"" help:"Message text"`
	JSON    bool     `help:"Print the full response as JSON"`
	State   string   `help:"Load a state snapshot before processing"`
}

// HealthCmd prints the current health report.
type HealthCmd struct {
	JSON bool `help:"Print the report as JSON"`
}

// RecallCmd searches the long-term archive.
type RecallCmd struct {
	Query []string `arg:"" help:"Search query"`
	Limit int      `default:"10" help:"Maximum hits"`
}

// ExportCmd writes the agent state snapshot.
type ExportCmd struct {
	Output string `short:"o" default:"axon-state.json" help:"Output path"`
	State  string `help:"Load a state snapshot before exporting"`
}

// ImportCmd validates a snapshot and stores it as the agent's state.
type ImportCmd struct {
	Snapshot string `arg:"" help:"Snapshot file to import"`
	Output   string `short:"o" default:"axon-state.json" help:"Where to store the validated state"`
}

// SessionsCmd lists stored sessions or replays one event log.
type SessionsCmd struct {
	ID      string `arg:"" optional:"" help:"Session to replay"`
	Verbose bool   `short:"v" help:"Show event detail payloads"`
}

// SetupCmd runs the interactive setup wizard.
type SetupCmd struct{}

// VersionCmd shows version information.
type VersionCmd struct{}

// kongVars returns variables for kong (version info).
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
	}
}
