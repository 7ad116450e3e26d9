package cmd

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/entanglenet/go-repeater/config"
	"github.com/entanglenet/go-repeater/config/presets"
)

// AddFlags adds the flags of the run to flagSet. Flags write into cfg and
// override the preset and the config file. The returned pointer receives the
// path of the config file.
func AddFlags(flagSet *pflag.FlagSet, cfg *config.Config) (configPath *string) {
	flagSet.StringVarP(&cfg.Preset, "preset", "p", "",
		fmt.Sprintf("preset overwrites default values of the config. options %+s", presets.Options()))
	configPath = flagSet.StringP("config", "c", "", "load configuration from file")

	/** ======================== BaseConfig Flags ========================== **/
	flagSet.Int64Var(&cfg.Seed, "seed", cfg.Seed, "seed of every random choice of the run")
	flagSet.IntVar(&cfg.Endpoints, "endpoints", cfg.Endpoints, "number of endpoints in the network")
	flagSet.StringVar(&cfg.Report, "report", cfg.Report, "write a JSON report of the run to this path")
	flagSet.StringVar(&cfg.LOGGING.Encoder, "log-encoder",
		cfg.LOGGING.Encoder, "log as JSON instead of plain text")
	flagSet.BoolVar(&cfg.CollectMetrics, "metrics",
		cfg.CollectMetrics, "serve prometheus metrics")
	flagSet.IntVar(&cfg.MetricsPort, "metrics-port",
		cfg.MetricsPort, "metrics server port")
	flagSet.StringVar(&cfg.MetricsPush, "metrics-push",
		cfg.MetricsPush, "push metrics to this pushgateway url at the end of the run")

	/** ======================== Link Flags ========================== **/
	flagSet.Float64Var(&cfg.LINK.PGen, "p-gen", cfg.LINK.PGen,
		"probability that a source emits a pair on a clock tick")
	flagSet.Float64Var(&cfg.LINK.PArr, "p-arr", cfg.LINK.PArr,
		"probability that a half reaches its endpoint")
	flagSet.DurationVar(&cfg.LINK.TClock, "t-clock", cfg.LINK.TClock, "period of the source clock")
	flagSet.Float64Var(&cfg.LINK.Length, "length", cfg.LINK.Length, "fibre length in km")
	flagSet.Float64Var(&cfg.LINK.Noise, "noise", cfg.LINK.Noise,
		"probability that a pair carries a bit-flip error")

	/** ======================== Entangle Flags ========================== **/
	flagSet.DurationVar(&cfg.ENTANGLE.RoundMargin, "round-margin", cfg.ENTANGLE.RoundMargin,
		"time an attempt round extends past its last slot")
	flagSet.IntVar(&cfg.ENTANGLE.MaxRounds, "max-rounds", cfg.ENTANGLE.MaxRounds,
		"give up a generation after this many rounds (0 retries forever)")
	flagSet.BoolVar(&cfg.ENTANGLE.SourceSync, "source-sync", cfg.ENTANGLE.SourceSync,
		"wait for the first arrival before choosing the start time")

	/** ======================== Dispatch Flags ========================== **/
	flagSet.IntVar(&cfg.DISPATCH.MaxSessions, "max-sessions", cfg.DISPATCH.MaxSessions,
		"stop after this many sessions (0 runs forever)")
	flagSet.IntVar(&cfg.DISPATCH.History, "history", cfg.DISPATCH.History,
		"number of sessions kept in the report")

	/** ======================== TIME Flags ========================== **/
	flagSet.Float64Var(&cfg.TIME.Pace, "pace", cfg.TIME.Pace,
		"wall seconds per virtual second (0 runs as fast as possible)")
	flagSet.DurationVar(&cfg.TIME.Horizon, "horizon", cfg.TIME.Horizon,
		"stop the run at this virtual time (0 runs until the dispatcher stops)")
	return configPath
}
