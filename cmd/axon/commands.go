package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/openclaw/axon/internal/safety"
	"github.com/openclaw/axon/internal/setup"
)

// Run processes a single message and prints the response.
func (c *AskCmd) Run(cli *CLI) error {
	rt, err := newRuntime(cli.Config)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	if c.State != "" {
		if err := loadState(rt, c.State); err != nil {
			return err
		}
	}

	res := rt.ag.Process(context.Background(), strings.Join(c.Message, " "))
	if c.JSON {
		out, err := json.MarshalIndent(map[string]interface{}{
			"text":        res.Text,
			"decision_id": res.DecisionID,
			"status":      string(res.Status),
			"duration_ms": res.Duration.Milliseconds(),
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	fmt.Println(res.Text)
	if res.Status != "ok" {
		os.Exit(1)
	}
	return nil
}

// Run prints the health report.
func (c *HealthCmd) Run(cli *CLI) error {
	rt, err := newRuntime(cli.Config)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	report := rt.ag.Health()
	if c.JSON {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Status: %s (trend: %s, samples: %d)\n", report.Status, rt.ag.Trend(0), report.SampleCount)
	for _, check := range report.Checks {
		mark := "ok"
		if !check.Passed {
			mark = "FAIL"
		}
		fmt.Printf("  %-14s %-4s %.2f (threshold %.2f)\n", check.Name, mark, check.Value, check.Threshold)
	}
	for _, rec := range report.Recommendations {
		fmt.Printf("  -> %s\n", rec)
	}
	return nil
}

// Run searches the archive.
func (c *RecallCmd) Run(cli *CLI) error {
	rt, err := newRuntime(cli.Config)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	hits, err := rt.ag.Recall(strings.Join(c.Query, " "), c.Limit)
	if err != nil {
		return fmt.Errorf("searching archive: %w", err)
	}
	if len(hits) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for _, hit := range hits {
		fmt.Printf("%.2f  [%s]  %s\n", hit.Score, hit.Kind, hit.Text)
	}
	return nil
}

// Run exports agent state to a JSON file.
func (c *ExportCmd) Run(cli *CLI) error {
	rt, err := newRuntime(cli.Config)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	if c.State != "" {
		if err := loadState(rt, c.State); err != nil {
			return err
		}
	}

	data, err := rt.ag.ExportJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.Output, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	fmt.Printf("State exported to %s\n", c.Output)
	return nil
}

// Run validates a snapshot and stores it as the agent's state file.
func (c *ImportCmd) Run(cli *CLI) error {
	rt, err := newRuntime(cli.Config)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	data, err := os.ReadFile(c.Snapshot)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	if err := rt.ag.ImportJSON(data); err != nil {
		return err
	}

	// Re-export the validated state so subsequent commands pick it up.
	out, err := rt.ag.ExportJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.Output, out, 0o644); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	fmt.Printf("Snapshot imported; state written to %s\n", c.Output)
	return nil
}

// Run lists stored sessions, or replays one when an ID is given.
func (c *SessionsCmd) Run(cli *CLI) error {
	rt, err := newRuntime(cli.Config)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	if c.ID != "" {
		sess, err := rt.sessions.Load(c.ID)
		if err != nil {
			return fmt.Errorf("loading session: %w", err)
		}
		replaySession(os.Stdout, sess, c.Verbose)
		return nil
	}

	summaries, err := rt.sessions.List()
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No sessions.")
		return nil
	}
	for _, s := range summaries {
		fmt.Printf("%s  %-6s  %4d events  %s\n",
			s.ID, s.Status, s.EventCount, s.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// Run starts the setup wizard, writing the config file.
func (c *SetupCmd) Run(cli *CLI) error {
	return setup.Run(cli.Config)
}

// Run starts the interactive chat TUI.
func (c *ChatCmd) Run(cli *CLI) error {
	rt, err := newRuntime(cli.Config)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	if c.Safety != "" {
		rt.gate.SetLevel(safety.ParseLevel(c.Safety))
	}
	rt.watchConfig(cli.Config)

	return runChat(rt)
}

// loadState loads a snapshot file into the agent.
func loadState(rt *runtime, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading state file: %w", err)
	}
	return rt.ag.ImportJSON(data)
}
