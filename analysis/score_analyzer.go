package analysis

import (
	"path"
	"strconv"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/zeu5/pacman-qlearning/core"
	"github.com/zeu5/pacman-qlearning/util"
)

type scoreDataset struct {
	Episodes   []int     `json:"episodes"`
	Scores     []float64 `json:"scores"`
	Steps      []int     `json:"steps"`
	Wins       []bool    `json:"wins"`
	Evaluation []bool    `json:"evaluation"`
}

func newScoreDataset() *scoreDataset {
	return &scoreDataset{
		Episodes:   make([]int, 0),
		Scores:     make([]float64, 0),
		Steps:      make([]int, 0),
		Wins:       make([]bool, 0),
		Evaluation: make([]bool, 0),
	}
}

func (s *scoreDataset) Copy() *scoreDataset {
	return &scoreDataset{
		Episodes:   util.CopyIntSlice(s.Episodes),
		Scores:     util.CopyFloatSlice(s.Scores),
		Steps:      util.CopyIntSlice(s.Steps),
		Wins:       util.CopyBoolSlice(s.Wins),
		Evaluation: util.CopyBoolSlice(s.Evaluation),
	}
}

// ScoreAnalyzer records the outcome of every completed episode.
type ScoreAnalyzer struct {
	dataset *scoreDataset
}

var _ core.Analyzer = &ScoreAnalyzer{}

func NewScoreAnalyzer() *ScoreAnalyzer {
	return &ScoreAnalyzer{
		dataset: newScoreDataset(),
	}
}

func (s *ScoreAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	if eCtx.IsError() || eCtx.IsTimeout() {
		return
	}
	s.dataset.Episodes = append(s.dataset.Episodes, eCtx.Episode)
	s.dataset.Scores = append(s.dataset.Scores, eCtx.FinalScore)
	s.dataset.Steps = append(s.dataset.Steps, trace.Len())
	s.dataset.Wins = append(s.dataset.Wins, eCtx.Won)
	s.dataset.Evaluation = append(s.dataset.Evaluation, eCtx.Evaluation)
}

func (s *ScoreAnalyzer) DataSet() core.DataSet {
	return s.dataset.Copy()
}

func (s *ScoreAnalyzer) Reset() {
	s.dataset = newScoreDataset()
}

type ScoreAnalyzerConstructor struct{}

var _ core.AnalyzerConstructor = &ScoreAnalyzerConstructor{}

func NewScoreAnalyzerConstructor() *ScoreAnalyzerConstructor {
	return &ScoreAnalyzerConstructor{}
}

func (c *ScoreAnalyzerConstructor) NewAnalyzer(_ string, _ int) core.Analyzer {
	return NewScoreAnalyzer()
}

// ScoreSummary aggregates one phase (training or evaluation) of an experiment.
type ScoreSummary struct {
	Episodes  int     `json:"episodes"`
	MeanScore float64 `json:"mean_score"`
	StdDev    float64 `json:"std_dev"`
	WinRate   float64 `json:"win_rate"`
	MeanSteps float64 `json:"mean_steps"`
}

type ExperimentSummary struct {
	Training   ScoreSummary `json:"training"`
	Evaluation ScoreSummary `json:"evaluation"`
}

func summarize(d *scoreDataset, evaluation bool) ScoreSummary {
	scores := make([]float64, 0)
	steps := make([]float64, 0)
	wins := 0
	for i := range d.Scores {
		if d.Evaluation[i] != evaluation {
			continue
		}
		scores = append(scores, d.Scores[i])
		steps = append(steps, float64(d.Steps[i]))
		if d.Wins[i] {
			wins++
		}
	}
	summary := ScoreSummary{Episodes: len(scores)}
	if len(scores) == 0 {
		return summary
	}
	summary.MeanScore = stat.Mean(scores, nil)
	if len(scores) > 1 {
		summary.StdDev = stat.StdDev(scores, nil)
	}
	summary.MeanSteps = stat.Mean(steps, nil)
	summary.WinRate = float64(wins) / float64(len(scores))
	return summary
}

// Summarize splits a ScoreAnalyzer dataset into training and evaluation.
func Summarize(ds core.DataSet) (ExperimentSummary, bool) {
	d, ok := ds.(*scoreDataset)
	if !ok || d == nil {
		return ExperimentSummary{}, false
	}
	return ExperimentSummary{
		Training:   summarize(d, false),
		Evaluation: summarize(d, true),
	}, true
}

// ScoreComparator saves the summary and the raw scores of every experiment.
type ScoreComparator struct {
	savePath string
}

var _ core.Comparator = &ScoreComparator{}

func NewScoreComparator(savePath string) *ScoreComparator {
	return &ScoreComparator{
		savePath: savePath,
	}
}

func (c *ScoreComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	summaries := make(map[string]ExperimentSummary)
	raw := make(map[string]*scoreDataset)
	for i, name := range experimentNames {
		summary, ok := Summarize(datasets[i])
		if !ok {
			log.Warn().Str("experiment", name).Msg("no scores recorded")
			continue
		}
		summaries[name] = summary
		raw[name] = datasets[i].(*scoreDataset)

		log.Info().
			Str("experiment", name).
			Float64("train_mean", summary.Training.MeanScore).
			Float64("eval_mean", summary.Evaluation.MeanScore).
			Float64("eval_win_rate", summary.Evaluation.WinRate).
			Msg("scores")
	}

	if err := util.SaveJson(path.Join(c.savePath, "scores.json"), summaries); err != nil {
		log.Error().Err(err).Msg("failed to save score summary")
	}
	if err := util.SaveJson(path.Join(c.savePath, "scores_raw.json"), raw); err != nil {
		log.Error().Err(err).Msg("failed to save scores")
	}
}

type ScoreComparatorConstructor struct {
	savePath string
}

var _ core.ComparatorConstructor = &ScoreComparatorConstructor{}

func NewScoreComparatorConstructor(savePath string) *ScoreComparatorConstructor {
	return &ScoreComparatorConstructor{
		savePath: savePath,
	}
}

func (c *ScoreComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewScoreComparator(path.Join(c.savePath, strconv.Itoa(run)))
}
