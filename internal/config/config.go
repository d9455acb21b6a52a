// Package config defines the command-line configuration for the backtest
// harness. Flags are parsed with pflag; an optional --config YAML file
// (read with viper) can override any flag's default before flags are
// re-applied on top, so a flag passed on the command line always wins.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every tunable of one backtest run, mirroring the original
// harness's Args struct field for field.
type Config struct {
	Replay  string `mapstructure:"replay"`
	Results string `mapstructure:"results"`
	Latency string `mapstructure:"latency"`
	Histo   string `mapstructure:"histo"`

	Core    int `mapstructure:"core"`
	Warmup  int `mapstructure:"warmup"`
	MaxMsgs int `mapstructure:"max_msgs"`

	InvCap      int32   `mapstructure:"inv_cap"`
	Throttle    int     `mapstructure:"throttle"`
	NotionalCap float64 `mapstructure:"notional_cap"`

	Mode       string  `mapstructure:"mode"`
	AvsGamma   float64 `mapstructure:"avs_gamma"`
	AvsK       float64 `mapstructure:"avs_k"`
	AvsHorizon float64 `mapstructure:"avs_horizon"`
}

// Defaults returns the harness's built-in defaults, matching the original
// implementation's Args field initializers exactly.
func Defaults() Config {
	return Config{
		Results:     "out.csv",
		Latency:     "latency.csv",
		Histo:       "latency_hist.csv",
		Core:        -1,
		Warmup:      200,
		MaxMsgs:     1_000_000,
		InvCap:      100,
		Throttle:    200,
		NotionalCap: 1e12,
		Mode:        "heuristic",
		AvsGamma:    1e-6,
		AvsK:        0.1,
		AvsHorizon:  10.0,
	}
}

// ParseFlags builds a Config from args (typically os.Args[1:]): it starts from
// Defaults(), overlays an optional YAML file named by --config, then
// re-applies any flag the caller actually passed so the command line has
// the final word.
func ParseFlags(args []string) (Config, error) {
	fs := pflag.NewFlagSet("t2t_main", pflag.ContinueOnError)
	fs.Usage = func() { usage(fs) }

	var configPath string
	fs.StringVar(&configPath, "config", "", "optional YAML file overlaying the defaults below")

	cfg := Defaults()
	fs.StringVar(&cfg.Replay, "replay", cfg.Replay, "path to the replay CSV (required)")
	fs.StringVar(&cfg.Results, "results", cfg.Results, "path to write the admitted-quote results CSV")
	fs.StringVar(&cfg.Latency, "latency", cfg.Latency, "path to write the raw per-stage latency CSV")
	fs.StringVar(&cfg.Histo, "histo", cfg.Histo, "path to write the per-stage latency histogram CSV")
	fs.IntVar(&cfg.Core, "pinner", cfg.Core, "logical CPU core to pin this run to, -1 disables pinning")
	fs.IntVar(&cfg.Warmup, "warmup", cfg.Warmup, "number of leading events excluded from latency/histogram stats")
	fs.IntVar(&cfg.MaxMsgs, "max-msgs", cfg.MaxMsgs, "maximum number of replay events to load")
	var invCap int
	fs.IntVar(&invCap, "inv-cap", int(cfg.InvCap), "inventory cap enforced by the risk gate")
	fs.IntVar(&cfg.Throttle, "throttle", cfg.Throttle, "maximum admitted quotes per millisecond")
	fs.Float64Var(&cfg.NotionalCap, "notional-cap", cfg.NotionalCap, "notional cap (plumbed through, not yet enforced)")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "quoting mode: heuristic or avs")
	fs.Float64Var(&cfg.AvsGamma, "avs-gamma", cfg.AvsGamma, "Avellaneda-Stoikov risk aversion")
	fs.Float64Var(&cfg.AvsK, "avs-k", cfg.AvsK, "Avellaneda-Stoikov order arrival intensity")
	fs.Float64Var(&cfg.AvsHorizon, "avs-horizon", cfg.AvsHorizon, "Avellaneda-Stoikov pricing horizon, in seconds")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.InvCap = int32(invCap)

	if configPath != "" {
		overlay, err := loadYAML(configPath)
		if err != nil {
			return Config{}, err
		}
		mergeOverlay(&cfg, overlay, fs)
	}

	if cfg.Replay == "" {
		fs.Usage()
		return Config{}, fmt.Errorf("config: --replay is required")
	}
	if cfg.Mode != "heuristic" && cfg.Mode != "avs" {
		return Config{}, fmt.Errorf("config: --mode must be heuristic or avs, got %q", cfg.Mode)
	}
	return cfg, nil
}

func usage(fs *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "t2t_main --replay path.csv [--results out.csv] [--latency lat.csv] [--histo hist.csv]\n")
	fmt.Fprintf(os.Stderr, "         [--pinner core_id] [--warmup N] [--max-msgs N]\n")
	fmt.Fprintf(os.Stderr, "         [--inv-cap N] [--throttle N_per_ms]\n")
	fmt.Fprintf(os.Stderr, "         [--mode heuristic|avs] [--avs-gamma G] [--avs-k K] [--avs-horizon S]\n\n")
	fs.PrintDefaults()
}

// loadYAML reads a YAML overlay into a viper instance, keyed the same way
// as Config's mapstructure tags.
func loadYAML(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("T2T")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return v, nil
}

// mergeOverlay applies YAML values for every key the command line did not
// explicitly set (fs.Changed reports exactly that), preserving "flags win
// over file" precedence.
func mergeOverlay(cfg *Config, v *viper.Viper, fs *pflag.FlagSet) {
	apply := func(key string, set func()) {
		flag := strings.ReplaceAll(key, "_", "-")
		if key == "core" {
			flag = "pinner"
		}
		if v.IsSet(key) && !fs.Changed(flag) {
			set()
		}
	}
	apply("replay", func() { cfg.Replay = v.GetString("replay") })
	apply("results", func() { cfg.Results = v.GetString("results") })
	apply("latency", func() { cfg.Latency = v.GetString("latency") })
	apply("histo", func() { cfg.Histo = v.GetString("histo") })
	apply("core", func() { cfg.Core = v.GetInt("core") })
	apply("warmup", func() { cfg.Warmup = v.GetInt("warmup") })
	apply("max_msgs", func() { cfg.MaxMsgs = v.GetInt("max_msgs") })
	apply("inv_cap", func() { cfg.InvCap = int32(v.GetInt("inv_cap")) })
	apply("throttle", func() { cfg.Throttle = v.GetInt("throttle") })
	apply("notional_cap", func() { cfg.NotionalCap = v.GetFloat64("notional_cap") })
	apply("mode", func() { cfg.Mode = v.GetString("mode") })
	apply("avs_gamma", func() { cfg.AvsGamma = v.GetFloat64("avs_gamma") })
	apply("avs_k", func() { cfg.AvsK = v.GetFloat64("avs_k") })
	apply("avs_horizon", func() { cfg.AvsHorizon = v.GetFloat64("avs_horizon") })
}
