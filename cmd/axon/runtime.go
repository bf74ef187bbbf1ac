package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/openclaw/axon/internal/adaptation"
	"github.com/openclaw/axon/internal/agent"
	"github.com/openclaw/axon/internal/capability"
	"github.com/openclaw/axon/internal/checkpoint"
	"github.com/openclaw/axon/internal/config"
	"github.com/openclaw/axon/internal/decision"
	"github.com/openclaw/axon/internal/dispatch"
	"github.com/openclaw/axon/internal/memory"
	"github.com/openclaw/axon/internal/monitor"
	"github.com/openclaw/axon/internal/safety"
	"github.com/openclaw/axon/internal/session"
	"github.com/vinayprograms/agentkit/telemetry"
)

// runtime assembles the agent and its supporting components.
type runtime struct {
	cfg *config.Config

	// Components
	registry  *capability.Registry
	gate      *safety.Gate
	store     *memory.BoundedStore
	archive   *memory.Archive
	decisions *decision.Engine
	disp      *dispatch.Dispatcher
	learner   *adaptation.Engine
	mon       *monitor.Monitor
	publisher *monitor.Publisher
	sessions  session.Store
	telem     telemetry.Exporter
	ckpt      *checkpoint.Store
	ag        *agent.Agent

	// Storage
	storagePath string

	// Cleanup
	closers []func()
}

// newRuntime loads configuration and assembles every component. Call
// cleanup when done.
func newRuntime(configPath string) (*runtime, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg}
	rt.resolveStoragePath()
	if err := rt.setup(); err != nil {
		rt.cleanup()
		return nil, err
	}
	return rt, nil
}

// loadConfig reads the config file, falling back to defaults when the
// default path does not exist. LoadFile wraps the open error, so the
// not-exist check has to unwrap.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && path == "axon.toml" {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// resolveStoragePath expands and defaults the storage root.
func (rt *runtime) resolveStoragePath() {
	rt.storagePath = config.ExpandPath(rt.cfg.Storage.Path)
	if rt.storagePath == "" {
		home, _ := os.UserHomeDir()
		rt.storagePath = filepath.Join(home, ".local", "axon")
	}
}

// setup initializes all runtime components. Returns error on failure.
func (rt *runtime) setup() error {
	if err := os.MkdirAll(rt.storagePath, 0755); err != nil {
		return fmt.Errorf("creating storage directory: %w", err)
	}

	if err := rt.setupTelemetry(); err != nil {
		return err
	}
	if err := rt.setupRegistry(); err != nil {
		return err
	}
	rt.setupGateAndStore()
	if err := rt.setupArchive(); err != nil {
		return err
	}
	if err := rt.setupEngines(); err != nil {
		return err
	}
	if err := rt.setupMonitor(); err != nil {
		return err
	}
	if err := rt.setupSessions(); err != nil {
		return err
	}
	rt.createAgent()
	return rt.setupCheckpoints()
}

// setupTelemetry creates the telemetry exporter.
func (rt *runtime) setupTelemetry() error {
	var err error
	if rt.cfg.Telemetry.Enabled {
		rt.telem, err = telemetry.NewExporter(rt.cfg.Telemetry.Protocol, rt.cfg.Telemetry.Endpoint)
		if err != nil {
			return fmt.Errorf("creating telemetry exporter: %w", err)
		}
	} else {
		rt.telem = telemetry.NewNoopExporter()
	}
	rt.addCloser(func() { rt.telem.Close() })
	return nil
}

// setupRegistry creates the capability registry with the builtins.
func (rt *runtime) setupRegistry() error {
	rt.registry = capability.NewRegistry()
	if err := capability.RegisterBuiltins(rt.registry); err != nil {
		return fmt.Errorf("registering builtin capabilities: %w", err)
	}
	return nil
}

// setupGateAndStore creates the safety gate and bounded memory.
func (rt *runtime) setupGateAndStore() {
	rt.gate = safety.NewGate(safety.ParseLevel(rt.cfg.Safety.Level))
	rt.store = memory.NewBoundedStore(rt.cfg.Memory.Capacity)
}

// setupArchive opens the long-term archive when enabled.
func (rt *runtime) setupArchive() error {
	if !rt.cfg.Memory.ArchiveEnabled {
		return nil
	}
	archive, err := memory.NewArchive(filepath.Join(rt.storagePath, "archive.bleve"))
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	rt.archive = archive
	return nil
}

// setupEngines creates the decision engine, the dispatcher, and the learner.
func (rt *runtime) setupEngines() error {
	classifier, err := rt.createClassifier()
	if err != nil {
		return err
	}
	rt.decisions = decision.NewEngine(rt.registry, rt.gate, classifier)
	rt.decisions.SetAdaptiveLearning(rt.cfg.Adaptation.Enabled)

	generator, err := rt.createGenerator()
	if err != nil {
		return err
	}
	timeout := time.Duration(rt.cfg.Timeouts.Invocation) * time.Second
	rt.disp = dispatch.New(rt.registry, rt.gate, generator, rt.store, timeout)

	rt.learner = adaptation.NewEngine(adaptation.Targets{
		Decisions: rt.decisions,
		Safety:    rt.gate,
		Memory:    rt.store,
	})
	if rt.cfg.Adaptation.RulesFile != "" {
		path := config.ExpandPath(rt.cfg.Adaptation.RulesFile)
		if err := rt.learner.LoadRulesFile(path); err != nil {
			return fmt.Errorf("loading adaptation rules: %w", err)
		}
	}
	return nil
}

// createClassifier builds the configured classifier, defaulting to the
// offline heuristic when no model is set.
func (rt *runtime) createClassifier() (decision.Classifier, error) {
	provider, err := createProvider(rt.cfg.Classifier, globalCreds)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return heuristicClassifier{}, nil
	}
	return &llmClassifier{provider: provider}, nil
}

// createGenerator builds the reply generator if a model is configured.
func (rt *runtime) createGenerator() (dispatch.Generator, error) {
	provider, err := createProvider(rt.cfg.LLM, globalCreds)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, nil
	}
	return &llmGenerator{provider: provider}, nil
}

// setupMonitor creates the monitor, with NATS publishing when enabled.
func (rt *runtime) setupMonitor() error {
	var notifier monitor.Notifier
	if rt.cfg.Health.PublishEnabled {
		pub, err := monitor.NewPublisher(rt.cfg.Health.NATSURL, rt.cfg.Health.Subject)
		if err != nil {
			return fmt.Errorf("creating health publisher: %w", err)
		}
		rt.publisher = pub
		rt.addCloser(pub.Close)
		notifier = pub
	}
	rt.mon = monitor.New(notifier)
	return nil
}

// setupSessions creates the session file store.
func (rt *runtime) setupSessions() error {
	store, err := session.NewFileStore(filepath.Join(rt.storagePath, "sessions"))
	if err != nil {
		return fmt.Errorf("creating session store: %w", err)
	}
	rt.sessions = store
	return nil
}

// createAgent assembles the agent from the components.
func (rt *runtime) createAgent() {
	rt.ag = agent.New(agent.Options{
		ID:         rt.cfg.Agent.ID,
		Registry:   rt.registry,
		Gate:       rt.gate,
		Decisions:  rt.decisions,
		Dispatcher: rt.disp,
		Store:      rt.store,
		Archive:    rt.archive,
		Learner:    rt.learner,
		Monitor:    rt.mon,
		Sessions:   rt.sessions,
	})
	rt.addCloser(func() { rt.ag.Close() })
}

// setupCheckpoints restores the newest state checkpoint and arranges a
// fresh checkpoint on shutdown. Restore failures are warnings: a stale or
// corrupt snapshot must not block startup.
func (rt *runtime) setupCheckpoints() error {
	store, err := checkpoint.NewStore(filepath.Join(rt.storagePath, "checkpoints"), rt.cfg.Storage.KeepCheckpoints)
	if err != nil {
		return fmt.Errorf("creating checkpoint store: %w", err)
	}
	rt.ckpt = store

	if rt.cfg.Storage.Resume {
		if data, id, err := store.Latest(); err == nil && data != nil {
			if err := rt.ag.ImportJSON(data); err != nil {
				fmt.Fprintf(os.Stderr, "warning: ignoring checkpoint %s: %v\n", id, err)
			}
		}
	}

	rt.addCloser(func() {
		data, err := rt.ag.ExportJSON()
		if err != nil {
			return
		}
		if _, err := store.Save(data); err != nil {
			fmt.Fprintf(os.Stderr, "warning: checkpoint save failed: %v\n", err)
		}
	})
	return nil
}

// watchConfig hot-reloads live-tunable settings from the config file.
func (rt *runtime) watchConfig(path string) {
	watcher, err := config.NewWatcher(path, func(cfg *config.Config) {
		rt.gate.SetLevel(safety.ParseLevel(cfg.Safety.Level))
		rt.decisions.SetAdaptiveLearning(cfg.Adaptation.Enabled)
		if cfg.Adaptation.RulesFile != "" {
			rulesPath := config.ExpandPath(cfg.Adaptation.RulesFile)
			if err := rt.learner.LoadRulesFile(rulesPath); err != nil {
				fmt.Fprintf(os.Stderr, "warning: reloading rules: %v\n", err)
			}
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: config watch disabled: %v\n", err)
		return
	}
	rt.addCloser(func() { watcher.Close() })
}

// cleanup runs all registered cleanup functions.
func (rt *runtime) cleanup() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// addCloser registers a cleanup function.
func (rt *runtime) addCloser(fn func()) {
	rt.closers = append(rt.closers, fn)
}
