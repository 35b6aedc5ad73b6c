package common

import (
	"path"
	"time"

	"github.com/zeu5/pacman-qlearning/core"
	"github.com/zeu5/pacman-qlearning/util"
)

type Flags struct {
	LearnerFlags
	GameFlags
	SavePath string
	RunFlags
	Parallelism int
	Debug       bool
}

type LearnerFlags struct {
	Alpha   float64
	Epsilon float64
	// Gamma is fixed for the lifetime of a learner
	Gamma float64
}

type GameFlags struct {
	Layout    string
	ChaseBias float64
	// 0 seeds from the clock
	Seed uint64
}

type RunFlags struct {
	NumRuns                int
	Episodes               int
	EvalEpisodes           int
	Horizon                int
	MaxConsecutiveErrors   int
	MaxConsecutiveTimeouts int
	EpisodeTimeout         time.Duration
}

func DefaultFlags() *Flags {
	return &Flags{
		LearnerFlags: LearnerFlags{
			Alpha:   0.2,
			Epsilon: 0.05,
			Gamma:   0.8,
		},
		GameFlags: GameFlags{
			Layout:    "smallGrid",
			ChaseBias: 4,
			Seed:      0,
		},
		SavePath: "results",
		RunFlags: RunFlags{
			NumRuns:                1,
			Episodes:               2000,
			EvalEpisodes:           10,
			Horizon:                500,
			MaxConsecutiveErrors:   20,
			MaxConsecutiveTimeouts: 20,
			EpisodeTimeout:         10 * time.Second,
		},
		Parallelism: 2,
		Debug:       false,
	}
}

func (f *Flags) Record() error {
	return util.SaveJson(path.Join(f.SavePath, "config.json"), f)
}

// Load overrides f with a config previously written by Record.
func (f *Flags) Load(file string) error {
	return util.ReadJson(file, f)
}

func (f *Flags) RunConfig() *core.RunConfig {
	return &core.RunConfig{
		Episodes:                     f.Episodes,
		EvalEpisodes:                 f.EvalEpisodes,
		Horizon:                      f.Horizon,
		EpisodeTimeout:               f.EpisodeTimeout,
		ThresholdConsecutiveErrors:   f.MaxConsecutiveErrors,
		ThresholdConsecutiveTimeouts: f.MaxConsecutiveTimeouts,
	}
}
