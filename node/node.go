// Package node contains the application that runs a network of endpoints
// and dispatches sessions on it.
package node

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/entanglenet/go-repeater/cmd"
	"github.com/entanglenet/go-repeater/common/types"
	"github.com/entanglenet/go-repeater/common/util"
	"github.com/entanglenet/go-repeater/config"
	"github.com/entanglenet/go-repeater/config/presets"
	"github.com/entanglenet/go-repeater/dispatch"
	"github.com/entanglenet/go-repeater/log"
	"github.com/entanglenet/go-repeater/metrics"
	"github.com/entanglenet/go-repeater/timesync"
	"github.com/entanglenet/go-repeater/topology"
)

// label of the random stream used by the dispatcher.
const dispatchStream = 0xd15

// GetCommand returns the root command of the repeater.
func GetCommand() *cobra.Command {
	conf := config.DefaultConfig()
	var configPath *string
	c := &cobra.Command{
		Use:   "repeater",
		Short: "run a network of entanglement repeaters",
		RunE: func(c *cobra.Command, args []string) error {
			if err := configure(c, afero.NewOsFs(), *configPath, &conf); err != nil {
				return err
			}

			app := New(
				WithConfig(&conf),
				// max level so that module loggers can be set to any level below it
				WithLog(log.NewWithLevel("repeater", zap.NewAtomicLevelAt(zap.DebugLevel))),
			)

			// os.Interrupt for all systems, syscall.SIGTERM is mainly for docker.
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := app.Initialize(); err != nil {
				return fmt.Errorf("initializing app: %w", err)
			}
			// Don't print usage on error from this point forward
			c.SilenceUsage = true
			defer app.Cleanup()
			return app.Start(ctx)
		},
	}

	configPath = cmd.AddFlags(c.PersistentFlags(), &conf)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(c *cobra.Command, args []string) {
			fmt.Fprintln(c.OutOrStdout(), cmd.VersionString())
		},
	}
	c.AddCommand(versionCmd)
	return c
}

func configure(c *cobra.Command, fs afero.Fs, configPath string, conf *config.Config) error {
	preset := conf.Preset // might be set via CLI flag
	if err := loadConfig(fs, conf, preset, configPath); err != nil {
		return log.ErrMalformedConfig(err)
	}
	// apply CLI args to config
	if err := c.ParseFlags(os.Args[1:]); err != nil {
		return log.ErrBadFlags(err)
	}
	if conf.LOGGING.Encoder == config.JSONLogEncoder {
		log.JSONLog(true)
	}
	if err := conf.Validate(); err != nil {
		return log.ErrInvalidConfig(err)
	}
	return nil
}

// loadConfig loads config and preset (if provided) into the provided config.
// It first loads the preset and then overrides it with values from the config file.
func loadConfig(fs afero.Fs, cfg *config.Config, preset, path string) error {
	v := viper.New()
	if err := config.LoadConfig(fs, path, v); err != nil {
		return err
	}

	// override default config with preset if provided
	if len(preset) == 0 && v.IsSet("preset") {
		preset = v.GetString("preset")
	}
	if len(preset) > 0 {
		p, err := presets.Get(preset)
		if err != nil {
			return err
		}
		*cfg = p
	}

	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)
	opts := []viper.DecoderConfigOption{
		viper.DecodeHook(hook),
		WithZeroFields(),
		WithIgnoreUntagged(),
		WithErrorUnused(),
	}
	if err := v.Unmarshal(cfg, opts...); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func WithZeroFields() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.ZeroFields = true
	}
}

func WithIgnoreUntagged() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.IgnoreUntaggedFields = true
	}
}

func WithErrorUnused() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.ErrorUnused = true
	}
}

// Option to modify an App instance.
type Option func(app *App)

// WithLog enables logger for an App.
func WithLog(logger log.Log) Option {
	return func(app *App) {
		app.root = logger
	}
}

// WithConfig overwrites default App config.
func WithConfig(conf *config.Config) Option {
	return func(app *App) {
		app.Config = conf
	}
}

// WithClockOptions passes options to the virtual clock, e.g. a fake wallclock.
func WithClockOptions(opts ...timesync.Opt) Option {
	return func(app *App) {
		app.clockOpts = append(app.clockOpts, opts...)
	}
}

// New creates an instance of the repeater app.
func New(opts ...Option) *App {
	defaultConfig := config.DefaultConfig()
	app := &App{
		Config:  &defaultConfig,
		root:    log.NewNop(),
		loggers: make(map[string]*zap.AtomicLevel),
	}
	for _, opt := range opts {
		opt(app)
	}
	lvl := zap.NewAtomicLevelAt(zap.InfoLevel)
	log.SetupGlobal(app.root.SetLevel(&lvl))
	app.log = app.root
	return app
}

// App is the cli app singleton.
type App struct {
	Config    *config.Config
	root      log.Log
	log       log.Log
	loggers   map[string]*zap.AtomicLevel
	clockOpts []timesync.Opt

	clock      *timesync.Clock
	network    *topology.Network
	dispatcher *dispatch.Dispatcher
	metrics    *metrics.Server
}

// Initialize builds the clock, the network and the dispatcher.
func (app *App) Initialize() error {
	if err := app.Config.Validate(); err != nil {
		return log.ErrInvalidConfig(err)
	}
	app.log = app.addLogger("app", app.root)
	app.log.Zap().Info("initializing",
		zap.String("version", cmd.VersionString()),
		zap.String("preset", app.Config.Preset),
		zap.Inline(&app.Config.BaseConfig),
		zap.Inline(&app.Config.LINK),
		zap.Inline(&app.Config.ENTANGLE),
		zap.Inline(&app.Config.DISPATCH),
		zap.Inline(&app.Config.TIME),
	)

	clockOpts := append([]timesync.Opt{
		timesync.WithLogger(app.addLogger("clock", app.root).Zap()),
		timesync.WithPace(app.Config.TIME.Pace),
	}, app.clockOpts...)
	app.clock = timesync.New(clockOpts...)

	seed := app.Config.Seed
	network, err := topology.New(
		app.clock,
		app.Config.Endpoints,
		app.Config.LINK,
		seed,
		topology.WithLogger(app.addLogger("topology", app.root).Zap()),
	)
	if err != nil {
		return fmt.Errorf("create network: %w", err)
	}
	app.network = network

	launcher := dispatch.NewLauncher(network, app.Config.ENTANGLE, seed,
		dispatch.WithSessionLogger(app.addLogger("entangle", app.root).Zap()))
	app.dispatcher, err = dispatch.New(
		network.Endpoints(),
		launcher,
		util.NewRand(seed, dispatchStream),
		types.RunID(seed),
		dispatch.WithLogger(app.addLogger("dispatch", app.root).Zap()),
		dispatch.WithConfig(app.Config.DISPATCH),
	)
	if err != nil {
		return fmt.Errorf("create dispatcher: %w", err)
	}
	return nil
}

// Start runs the network until the horizon, the end of the dispatcher or the
// cancellation of ctx. An interrupted run still writes its report.
func (app *App) Start(ctx context.Context) error {
	if app.Config.CollectMetrics {
		srv, err := metrics.StartServer(app.addLogger("metrics", app.root).Zap(),
			fmt.Sprintf(":%d", app.Config.MetricsPort))
		if err != nil {
			return err
		}
		app.metrics = srv
	}

	eg, ctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	eg.Go(func() error {
		defer close(done)
		return app.run(ctx)
	})
	if app.metrics != nil {
		eg.Go(func() error {
			select {
			case <-done:
			case <-ctx.Done():
			}
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return app.metrics.Stop(stopCtx)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	if app.Config.MetricsPush != "" {
		if err := metrics.Push(context.Background(), app.Config.MetricsPush, types.RunID(app.Config.Seed).String()); err != nil {
			app.log.Zap().Warn("failed to push metrics", zap.Error(err))
		}
	}
	return nil
}

func (app *App) run(ctx context.Context) error {
	app.dispatcher.Start(app.clock)
	var err error
	if horizon := app.Config.TIME.Horizon; horizon > 0 {
		err = app.clock.RunUntil(ctx, horizon)
	} else {
		err = app.clock.Run(ctx)
	}
	interrupted := errors.Is(err, context.Canceled)
	if err != nil && !interrupted {
		return fmt.Errorf("run: %w", err)
	}

	report := app.Report()
	app.log.Zap().Info("run finished",
		log.ZVirtual("at", app.clock.Now()),
		zap.Bool("interrupted", interrupted),
		zap.Uint64("sessions", report.Stats.Sessions),
		zap.Uint64("delivered", report.Stats.Delivered),
		zap.Uint64("aborted", report.Stats.Aborted),
		zap.Uint64("exhausted", report.Stats.Exhausted),
		zap.Float64("mean fidelity", report.Stats.MeanFidelity),
	)
	if path := app.Config.Report; path != "" {
		if err := WriteReport(path, &report); err != nil {
			return err
		}
		app.log.Zap().Info("report written", zap.String("path", path))
	}
	return nil
}

// Cleanup releases the tasks blocked on the clock.
func (app *App) Cleanup() {
	if app.clock != nil {
		app.clock.Close()
	}
}

func (app *App) addLogger(name string, logger log.Log) log.Log {
	lvl, err := decodeLoggerLevel(app.Config, name)
	if err != nil {
		app.log.Zap().Panic("unable to decode loggers into map[string]string", zap.Error(err))
	}
	if logger.Check(lvl.Level()) {
		app.loggers[name] = &lvl
		logger = logger.SetLevel(&lvl)
	}
	return logger.Named(name)
}

// SetLogLevel updates the log level of an existing logger.
func (app *App) SetLogLevel(name, loglevel string) error {
	lvl, ok := app.loggers[name]
	if !ok {
		return fmt.Errorf("cannot find logger %v", name)
	}
	if err := lvl.UnmarshalText([]byte(loglevel)); err != nil {
		return err
	}
	return nil
}

func decodeLoggerLevel(cfg *config.Config, name string) (zap.AtomicLevel, error) {
	lvl := zap.NewAtomicLevel()
	loggers := map[string]string{}
	if err := mapstructure.Decode(cfg.LOGGING, &loggers); err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("error decoding mapstructure: %w", err)
	}

	level, ok := loggers[name]
	if ok {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return zap.AtomicLevel{}, fmt.Errorf("cannot parse logging for %v: %w", name, err)
		}
	} else {
		lvl.SetLevel(log.DefaultLevel())
	}
	return lvl, nil
}
