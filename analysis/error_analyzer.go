package analysis

import (
	"bytes"
	"fmt"
	"os"
	"path"

	"github.com/rs/zerolog/log"

	"github.com/zeu5/pacman-qlearning/core"
)

// ErrorAnalyzer writes the trace of every failed episode to disk.
type ErrorAnalyzer struct {
	savePath string
	exp      string
	count    int
}

var _ core.Analyzer = &ErrorAnalyzer{}

func NewErrorAnalyzer(savePath string) *ErrorAnalyzer {
	if _, err := os.Stat(path.Join(savePath, "errors")); os.IsNotExist(err) {
		os.MkdirAll(path.Join(savePath, "errors"), 0755)
	}
	return &ErrorAnalyzer{
		savePath: path.Join(savePath, "errors"),
	}
}

func (a *ErrorAnalyzer) Analyze(ctx *core.EpisodeContext, trace *core.Trace) {
	err := trace.Error()
	if err == nil {
		return
	}
	a.count++
	buf := new(bytes.Buffer)
	buf.WriteString(fmt.Sprintf("Error: %s\n", err))
	buf.WriteString(traceToString(trace))

	fileName := fmt.Sprintf("%d_error_%d.txt", ctx.Run, ctx.Episode)
	if a.exp != "" {
		fileName = fmt.Sprintf("%d_%s_error_%d.txt", ctx.Run, a.exp, ctx.Episode)
	}
	file := path.Join(a.savePath, fileName)
	if err := os.WriteFile(file, buf.Bytes(), 0644); err != nil {
		log.Error().Err(err).Str("file", file).Msg("failed to write error trace")
	}
}

// DataSet is the number of failed episodes seen.
func (a *ErrorAnalyzer) DataSet() core.DataSet {
	return a.count
}

func (a *ErrorAnalyzer) Reset() {
	a.count = 0
}

type ErrorAnalyzerConstructor struct {
	SavePath string
}

var _ core.AnalyzerConstructor = &ErrorAnalyzerConstructor{}

func NewErrorAnalyzerConstructor(savePath string) *ErrorAnalyzerConstructor {
	return &ErrorAnalyzerConstructor{
		SavePath: savePath,
	}
}

func (e *ErrorAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	a := NewErrorAnalyzer(e.SavePath)
	a.exp = exp
	return a
}
