package pacman

import (
	"github.com/rs/zerolog"

	"github.com/zeu5/pacman-qlearning/analysis"
	"github.com/zeu5/pacman-qlearning/benchmarks/common"
	"github.com/zeu5/pacman-qlearning/core"
	"github.com/zeu5/pacman-qlearning/policies"
)

// PrepareTraining sets up a single learner on the configured layout.
// The learner is returned so callers can inspect its table afterwards.
func PrepareTraining(flags *common.Flags) (*core.Comparison, *policies.QLearner, error) {
	layout, err := GetLayout(flags.Layout)
	if err != nil {
		return nil, nil, err
	}
	env := NewGameConstructor(layout, flags.ChaseBias, flags.Seed).NewEnvironment(0)
	learner := policies.NewQLearnerConstructor(flags.Alpha, flags.Epsilon, flags.Gamma, flags.Seed).NewAgent().(*policies.QLearner)

	cmp := core.NewComparison()
	cmp.AddAnalysis("Scores", analysis.NewScoreAnalyzer(), analysis.NewScoreComparator(flags.SavePath))
	cmp.AddAnalysis("Errors", analysis.NewErrorAnalyzer(flags.SavePath), analysis.NewCountComparator("errors", 0, zerolog.WarnLevel))
	if flags.Debug {
		cmp.AddAnalysis("Debug", analysis.NewPrintDebugAnalyzer(flags.SavePath, flags.Episodes), analysis.NewCountComparator("traces", 0, zerolog.InfoLevel))
	}
	cmp.AddExperiment(&core.Experiment{
		Name:        "QLearning",
		Environment: env,
		Agent:       learner,
	})
	return cmp, learner, nil
}

// PrepareComparison pits the learner against a random baseline, each on its own game.
func PrepareComparison(flags *common.Flags) (*core.ParallelComparison, error) {
	layout, err := GetLayout(flags.Layout)
	if err != nil {
		return nil, err
	}
	games := NewGameConstructor(layout, flags.ChaseBias, flags.Seed)

	cmp := core.NewParallelComparison()
	cmp.AddAnalysis("Scores", analysis.NewScoreAnalyzerConstructor(), analysis.NewScoreComparatorConstructor(flags.SavePath))
	cmp.AddAnalysis("Errors", analysis.NewErrorAnalyzerConstructor(flags.SavePath), analysis.NewCountComparatorConstructor("errors", zerolog.WarnLevel))
	if flags.Debug {
		cmp.AddAnalysis("Debug", analysis.NewPrintDebugAnalyzerConstructor(flags.SavePath, flags.Episodes), analysis.NewCountComparatorConstructor("traces", zerolog.InfoLevel))
	}

	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "QLearning",
		Environment: games,
		Agent:       policies.NewQLearnerConstructor(flags.Alpha, flags.Epsilon, flags.Gamma, flags.Seed),
	})
	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "Random",
		Environment: games,
		Agent:       policies.NewRandomAgentConstructor(flags.Seed),
	})
	return cmp, nil
}
