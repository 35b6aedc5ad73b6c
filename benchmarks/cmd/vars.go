package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/zeu5/pacman-qlearning/benchmarks/common"
)

var (
	flags      *common.Flags = common.DefaultFlags()
	configPath string
	savePath   string
	debug      bool

	alpha   float64
	epsilon float64
	gamma   float64

	layout    string
	chaseBias float64
	seed      uint64

	numRuns                int
	episodes               int
	evalEpisodes           int
	horizon                int
	maxConsecutiveErrors   int
	maxConsecutiveTimeouts int
	episodeTimeout         int
	parallelism            int
)

func AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Load settings from a recorded config.json, explicit flags still win")
	cmd.PersistentFlags().StringVar(&savePath, "save-path", flags.SavePath, "Path to save results")
	cmd.PersistentFlags().BoolVar(&debug, "debug", flags.Debug, "Debug logging and traces of evaluation episodes")

	cmd.PersistentFlags().Float64Var(&alpha, "alpha", flags.Alpha, "Learning rate")
	cmd.PersistentFlags().Float64Var(&epsilon, "epsilon", flags.Epsilon, "Exploration rate")
	cmd.PersistentFlags().Float64Var(&gamma, "gamma", flags.Gamma, "Discount factor")

	cmd.PersistentFlags().StringVar(&layout, "layout", flags.Layout, "Board layout")
	cmd.PersistentFlags().Float64Var(&chaseBias, "chase-bias", flags.ChaseBias, "Weight of ghost moves towards pacman")
	cmd.PersistentFlags().Uint64Var(&seed, "seed", flags.Seed, "Random seed, 0 seeds from the clock")

	cmd.PersistentFlags().IntVar(&numRuns, "num-runs", flags.NumRuns, "Number of runs")
	cmd.PersistentFlags().IntVar(&episodes, "episodes", flags.Episodes, "Number of training episodes")
	cmd.PersistentFlags().IntVar(&evalEpisodes, "eval-episodes", flags.EvalEpisodes, "Number of greedy episodes after training")
	cmd.PersistentFlags().IntVar(&horizon, "horizon", flags.Horizon, "Maximum steps per episode")
	cmd.PersistentFlags().IntVar(&maxConsecutiveErrors, "max-consecutive-errors", flags.MaxConsecutiveErrors, "Maximum number of consecutive errors")
	cmd.PersistentFlags().IntVar(&maxConsecutiveTimeouts, "max-consecutive-timeouts", flags.MaxConsecutiveTimeouts, "Maximum number of consecutive timeouts")
	cmd.PersistentFlags().IntVar(&episodeTimeout, "episode-timeout", int(flags.EpisodeTimeout.Seconds()), "Episode timeout in seconds")
	cmd.PersistentFlags().IntVar(&parallelism, "parallelism", flags.Parallelism, "Number of parallel experiments")
}

var setters = map[string]func(){
	"save-path":                func() { flags.SavePath = savePath },
	"debug":                    func() { flags.Debug = debug },
	"alpha":                    func() { flags.Alpha = alpha },
	"epsilon":                  func() { flags.Epsilon = epsilon },
	"gamma":                    func() { flags.Gamma = gamma },
	"layout":                   func() { flags.Layout = layout },
	"chase-bias":               func() { flags.ChaseBias = chaseBias },
	"seed":                     func() { flags.Seed = seed },
	"num-runs":                 func() { flags.NumRuns = numRuns },
	"episodes":                 func() { flags.Episodes = episodes },
	"eval-episodes":            func() { flags.EvalEpisodes = evalEpisodes },
	"horizon":                  func() { flags.Horizon = horizon },
	"max-consecutive-errors":   func() { flags.MaxConsecutiveErrors = maxConsecutiveErrors },
	"max-consecutive-timeouts": func() { flags.MaxConsecutiveTimeouts = maxConsecutiveTimeouts },
	"episode-timeout":          func() { flags.EpisodeTimeout = time.Duration(episodeTimeout) * time.Second },
	"parallelism":              func() { flags.Parallelism = parallelism },
}

// UpdateFlags applies the config file, if any, and then every flag set on the command line.
func UpdateFlags(cmd *cobra.Command) error {
	if configPath != "" {
		if err := flags.Load(configPath); err != nil {
			return err
		}
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if set, ok := setters[f.Name]; ok {
			set()
		}
	})
	return nil
}
