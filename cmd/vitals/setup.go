package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"vitals/internal/calibration"
	"vitals/internal/config"
	"vitals/internal/engine"
	"vitals/internal/graph"
	"vitals/internal/logging"
	"vitals/internal/metrics"
	"vitals/internal/store"
)

// app bundles everything a command needs: loaded config, logger, store,
// and a ready engine. Build with newApp, release with Close.
type app struct {
	root    string
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	cycles  *logging.CycleLogger
	metrics *metrics.Registry
	engine  *engine.Engine
}

// newApp loads config, opens the store under <root>/.vitals, and builds the
// engine with any previously saved state.
func newApp(cmd *cobra.Command) (*app, error) {
	root, _ := cmd.Flags().GetString("root")
	cfgPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(root, cfgPath)
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)

	topo := graph.DefaultTopology()
	if cfg.Topology != "" {
		topo, err = graph.Load(cfg.Topology)
		if err != nil {
			return nil, err
		}
	}

	st, err := store.Open(root, logger)
	if err != nil {
		return nil, err
	}

	cycles := logging.NewCycleLogger(st.Dir(), cfg.Logging.Level)
	reg := metrics.New()

	e, err := engine.New(topo, engineConfig(cfg),
		engine.WithStore(st),
		engine.WithLogger(logger),
		engine.WithCycleLogger(cycles),
		engine.WithMetrics(reg),
	)
	if err != nil {
		cycles.Close()
		st.Close()
		return nil, err
	}

	return &app{
		root:    root,
		cfg:     cfg,
		logger:  logger,
		store:   st,
		cycles:  cycles,
		metrics: reg,
		engine:  e,
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	a.cycles.Close()
	a.store.Close()
}

// engineConfig maps the loaded file config onto the engine's config.
func engineConfig(cfg *config.Config) engine.Config {
	ec := engine.DefaultConfig()
	ec.HistoryCap = cfg.Engine.HistoryCap
	ec.Calibration = calibration.Config{
		MinSamples: cfg.Calibration.MinSamples,
		Step:       cfg.Calibration.Step,
		Floor:      cfg.Calibration.Floor,
		Ceil:       cfg.Calibration.Ceil,
		LogCap:     cfg.Calibration.LogCap,
	}

	if len(cfg.Engine.HalfLifeDays) > 0 {
		ec.HalfLifeOverrides = make(map[graph.Layer]time.Duration, len(cfg.Engine.HalfLifeDays))
		for layer, days := range cfg.Engine.HalfLifeDays {
			ec.HalfLifeOverrides[graph.Layer(layer)] = time.Duration(days * 24 * float64(time.Hour))
		}
	}

	return ec
}

// requireInitialized returns an error unless <root>/.vitals exists.
func requireInitialized(cmd *cobra.Command) error {
	root, _ := cmd.Flags().GetString("root")
	dir := filepath.Join(root, ".vitals")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf(".vitals not initialized. Run 'vitals init' first")
	}
	return nil
}
