package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/zeu5/pacman-qlearning/core"
	"github.com/zeu5/pacman-qlearning/util"
)

func episode(n int, score float64, won, evaluation bool) *core.EpisodeContext {
	eCtx := core.NewEpisodeContext(context.Background())
	eCtx.Episode = n
	eCtx.FinalScore = score
	eCtx.Won = won
	eCtx.Evaluation = evaluation
	for i := 0; i < n+1; i++ {
		eCtx.Trace.AddStep(&core.Step{Action: core.North, Score: float64(i)})
	}
	return eCtx
}

func TestScoreAnalyzer(t *testing.T) {
	a := NewScoreAnalyzer()
	for i, score := range []float64{-10, 20, 500, 300} {
		eCtx := episode(i, score, score > 100, i >= 2)
		a.Analyze(eCtx, eCtx.Trace)
	}
	failed := episode(4, 1000, true, true)
	failed.Error(errors.New("boom"))
	a.Analyze(failed, failed.Trace)

	summary, ok := Summarize(a.DataSet())
	require.True(t, ok)
	require.Equal(t, 2, summary.Training.Episodes)
	require.InDelta(t, 5.0, summary.Training.MeanScore, 1e-9)
	require.Equal(t, 0.0, summary.Training.WinRate)
	require.InDelta(t, 1.5, summary.Training.MeanSteps, 1e-9)
	require.Equal(t, 2, summary.Evaluation.Episodes, "Failed episodes should be skipped")
	require.InDelta(t, 400.0, summary.Evaluation.MeanScore, 1e-9)
	require.InDelta(t, 141.42135623, summary.Evaluation.StdDev, 1e-6)
	require.Equal(t, 1.0, summary.Evaluation.WinRate)

	a.Reset()
	summary, _ = Summarize(a.DataSet())
	require.Equal(t, 0, summary.Training.Episodes)
	require.Equal(t, 0.0, summary.Training.MeanScore)

	_, ok = Summarize(nil)
	require.False(t, ok)
}

func TestScoreComparator(t *testing.T) {
	dir := t.TempDir()
	a := NewScoreAnalyzer()
	eCtx := episode(0, 42, false, false)
	a.Analyze(eCtx, eCtx.Trace)

	NewScoreComparatorConstructor(dir).NewComparator(3).Compare(
		[]string{"QLearning", "Broken"},
		[]core.DataSet{a.DataSet(), nil},
	)

	summaries := make(map[string]ExperimentSummary)
	require.NoError(t, util.ReadJson(filepath.Join(dir, "3", "scores.json"), &summaries))
	require.Len(t, summaries, 1)
	require.Equal(t, 42.0, summaries["QLearning"].Training.MeanScore)
	require.Equal(t, 0.0, summaries["QLearning"].Training.StdDev)
	_, err := os.Stat(filepath.Join(dir, "3", "scores_raw.json"))
	require.NoError(t, err)
}

func TestErrorAnalyzer(t *testing.T) {
	dir := t.TempDir()
	a := NewErrorAnalyzerConstructor(dir).NewAnalyzer("QLearning", 0)

	ok := episode(1, 10, false, false)
	a.Analyze(ok, ok.Trace)
	failed := episode(2, 0, false, false)
	failed.Run = 1
	failed.Error(core.ErrInvalidActionSet)
	a.Analyze(failed, failed.Trace)

	require.Equal(t, 1, a.DataSet())
	bs, err := os.ReadFile(filepath.Join(dir, "errors", "1_QLearning_error_2.txt"))
	require.NoError(t, err)
	require.Contains(t, string(bs), core.ErrInvalidActionSet.Error())
	require.Contains(t, string(bs), "Step 2")

	a.Reset()
	require.Equal(t, 0, a.DataSet())

	NewCountComparatorConstructor("errors", zerolog.WarnLevel).NewComparator(0).Compare(
		[]string{"QLearning", "Random"},
		[]core.DataSet{1, nil},
	)
}

func TestPrintDebugAnalyzer(t *testing.T) {
	dir := t.TempDir()
	a := NewPrintDebugAnalyzerConstructor(dir, 2).NewAnalyzer("QLearning", 0)

	for i := 0; i < 4; i++ {
		eCtx := episode(i, 1, false, i >= 2)
		a.Analyze(eCtx, eCtx.Trace)
	}

	require.Equal(t, 2, a.DataSet())
	bs, err := os.ReadFile(filepath.Join(dir, "traces", "0_QLearning_trace_3.txt"))
	require.NoError(t, err)
	require.Contains(t, string(bs), "Evaluation: true")
	require.Contains(t, string(bs), "Action: North")
}
