package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/carbongdt/carbon/internal/component"
	"github.com/carbongdt/carbon/internal/config"
	"github.com/carbongdt/carbon/internal/core/event"
	"github.com/carbongdt/carbon/internal/reference"
	"github.com/carbongdt/carbon/internal/scripting"
	"github.com/carbongdt/carbon/internal/world"
)

const defaultConfigPath = "config/carbon.toml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// app is the state shared by every subcommand.
type app struct {
	configPath string
	cfg        *config.Config
	log        *zap.Logger
	bus        *event.Bus
	engine     *scripting.Engine
}

func newRootCmd() *cobra.Command {
	return newAppCmd(&app{})
}

func newAppCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "carbon",
		Short:         "Inspect and maintain Carbon world files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Flags().Changed("config"))
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.teardown()
		},
	}
	defaultPath := os.Getenv("CARBON_CONFIG")
	if defaultPath == "" {
		defaultPath = defaultConfigPath
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", defaultPath, "configuration file")

	root.AddCommand(
		newCreateCmd(a),
		newInfoCmd(a),
		newScenesCmd(a),
		newUpgradeCmd(a),
		newCheckCmd(a),
	)
	return root
}

// setup loads the configuration (falling back to defaults when the default
// file is absent), the logger unless one is already set, the bus and the
// optional script engine.
func (a *app) setup(explicit bool) error {
	cfg, err := config.Load(a.configPath)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, fs.ErrNotExist):
		cfg = config.Defaults()
	default:
		return err
	}
	a.cfg = cfg

	if a.log == nil {
		log, err := newLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		a.log = log
	}

	a.bus = event.NewBus()
	a.bus.SubscribeGroup(event.GroupWorld, func(msg any) {
		a.log.Debug("world event", zap.String("type", fmt.Sprintf("%T", msg)))
	})

	if cfg.Scripting.Enabled {
		engine, err := scripting.NewEngine(cfg.Scripting.ScriptsDir, a.log)
		if err != nil {
			return fmt.Errorf("init scripting: %w", err)
		}
		a.engine = engine
	}
	return nil
}

func (a *app) teardown() {
	if a.engine != nil {
		a.engine.Close()
	}
	if a.log != nil {
		a.log.Sync()
	}
}

// newWorld returns an unopened world with every built-in type registered.
func (a *app) newWorld(wc config.WorldConfig) (*world.World, error) {
	types := world.NewRegistry()
	if err := component.Register(types); err != nil {
		return nil, err
	}
	w, err := world.New(wc, types, reference.NewManager(a.log), a.bus, a.log)
	if err != nil {
		return nil, err
	}
	if a.engine != nil {
		w.AddListener(a.engine)
	}
	return w, nil
}

// closeWorld closes w and delivers the lifecycle messages it queued.
func (a *app) closeWorld(w *world.World) {
	if err := w.Close(); err != nil {
		a.log.Warn("failed to close world", zap.Error(err))
	}
	a.bus.Pump()
}

// openWorld opens path for reading, or for editing when edit is set.
func (a *app) openWorld(ctx context.Context, path string, edit bool) (*world.World, error) {
	wc := a.cfg.World
	wc.Editing = edit
	w, err := a.newWorld(wc)
	if err != nil {
		return nil, err
	}
	if err := w.Open(ctx, path); err != nil {
		return nil, err
	}
	return w, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = []string{"stderr"}

	return zapCfg.Build()
}
