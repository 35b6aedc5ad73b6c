package analysis

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/zeu5/pacman-qlearning/core"
)

type PrintDebugAnalyzer struct {
	// savePath is the path to save the trace
	savePath string
	exp      string
	// will save the trace to the file only after the episode number exceeds this threshold
	thresholdEpisode int
	written          int
}

var _ core.Analyzer = &PrintDebugAnalyzer{}

func NewPrintDebugAnalyzer(savePath string, threshold int) *PrintDebugAnalyzer {
	// create a traces directory under save path if not exists
	if _, err := os.Stat(path.Join(savePath, "traces")); os.IsNotExist(err) {
		os.MkdirAll(path.Join(savePath, "traces"), 0755)
	}
	return &PrintDebugAnalyzer{
		savePath:         path.Join(savePath, "traces"),
		thresholdEpisode: threshold,
	}
}

func (a *PrintDebugAnalyzer) Analyze(ctx *core.EpisodeContext, trace *core.Trace) {
	if ctx.Episode < a.thresholdEpisode {
		return
	}
	buf := new(bytes.Buffer)
	buf.WriteString(fmt.Sprintf("Final score: %.1f, Won: %t, Evaluation: %t\n\n", ctx.FinalScore, ctx.Won, ctx.Evaluation))
	buf.WriteString(traceToString(trace))

	fileName := fmt.Sprintf("%d_trace_%d.txt", ctx.Run, ctx.Episode)
	if a.exp != "" {
		fileName = fmt.Sprintf("%d_%s_trace_%d.txt", ctx.Run, a.exp, ctx.Episode)
	}
	file := path.Join(a.savePath, fileName)
	if err := os.WriteFile(file, buf.Bytes(), 0644); err != nil {
		log.Error().Err(err).Str("file", file).Msg("failed to write trace")
		return
	}
	a.written++
}

func traceToString(trace *core.Trace) string {
	buf := new(bytes.Buffer)
	for i := 0; i < trace.Len(); i++ {
		buf.WriteString(fmt.Sprintf("Step %d\n%s\n", i, stepToString(trace.Step(i))))
	}
	return buf.String()
}

func stepToString(step *core.Step) string {
	return fmt.Sprintf(
		"Pacman: %s\nGhosts: %s\nAction: %s\nScore: %.1f\nAdditional Info:\n%s\n",
		coordToString(step.Position),
		coordsToString(step.Ghosts),
		step.Action,
		step.Score,
		addInfoToString(step.Misc),
	)
}

func coordToString(c core.Coord) string {
	return fmt.Sprintf("(%g, %g)", c.X, c.Y)
}

func coordsToString(cs []core.Coord) string {
	buf := new(bytes.Buffer)
	for i, c := range cs {
		if i > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(coordToString(c))
	}
	return buf.String()
}

func addInfoToString(addInfo map[string]interface{}) string {
	keys := make([]string, 0, len(addInfo))
	for k := range addInfo {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	buf := new(bytes.Buffer)
	for _, k := range keys {
		buf.WriteString(fmt.Sprintf("%s: %v\n", k, addInfo[k]))
	}
	return buf.String()
}

// DataSet is the number of traces written.
func (a *PrintDebugAnalyzer) DataSet() core.DataSet {
	return a.written
}

func (a *PrintDebugAnalyzer) Reset() {
	a.written = 0
}

type PrintDebugAnalyzerConstructor struct {
	savePath         string
	thresholdEpisode int
}

var _ core.AnalyzerConstructor = &PrintDebugAnalyzerConstructor{}

func NewPrintDebugAnalyzerConstructor(savePath string, thresholdEpisode int) *PrintDebugAnalyzerConstructor {
	return &PrintDebugAnalyzerConstructor{
		savePath:         savePath,
		thresholdEpisode: thresholdEpisode,
	}
}

func (c *PrintDebugAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	a := NewPrintDebugAnalyzer(c.savePath, c.thresholdEpisode)
	a.exp = exp
	return a
}
