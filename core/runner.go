package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/gosuri/uilive"
	"github.com/rs/zerolog/log"

	"github.com/zeu5/pacman-qlearning/util"
)

var (
	ErrTooManyTimeouts = errors.New("too many timeouts")
	ErrTooManyErrors   = errors.New("too many errors")
)

type experimentRunContext struct {
	run       int
	ctx       context.Context
	analyzers map[string]Analyzer

	writer io.Writer

	*RunConfig
}

type ExperimentResult struct {
	CompletedEpisodes int
	TotalEpisodes     int
	ErrorEpisodes     int
	TimeoutEpisodes   int
	TotalTimeSteps    int
	Wins              int

	Error    error
	Datasets map[string]DataSet
}

func (r *ExperimentResult) IsError() bool {
	return r.Error != nil
}

func (e *Experiment) run(ctx *experimentRunContext) *ExperimentResult {
	result := &ExperimentResult{
		Datasets: make(map[string]DataSet),
	}
	e.Agent.Reset()

	consecutiveErrors := 0
	consecutiveTimeouts := 0
	totalEpisodes := ctx.Episodes + ctx.EvalEpisodes
EpisodeLoop:
	for episode := 0; episode < totalEpisodes; episode++ {
		select {
		case <-ctx.ctx.Done():
			result.Error = fmt.Errorf("context cancelled: %w", ctx.ctx.Err())
			break EpisodeLoop
		default:
		}

		evaluation := episode >= ctx.Episodes
		if episode == ctx.Episodes {
			// greedy play from here on, Finish still writes terminal scores
			e.Agent.SetParameters(0, 0)
			log.Debug().Str("experiment", e.Name).Int("run", ctx.run).Msg("training finished, evaluating")
		}

		fmt.Fprintf(
			ctx.writer,
			"Experiment: %s, Run %d, Episode %d/%d, Timesteps: %d, Wins: %d, Error: %d, Timedout: %d\n",
			e.Name, ctx.run, episode, totalEpisodes, result.TotalTimeSteps, result.Wins, result.ErrorEpisodes, result.TimeoutEpisodes,
		)

		var episodeCtx context.Context
		var cancel context.CancelFunc
		if ctx.EpisodeTimeout > 0 {
			episodeCtx, cancel = context.WithTimeout(ctx.ctx, ctx.EpisodeTimeout)
		} else {
			episodeCtx, cancel = context.WithCancel(ctx.ctx)
		}
		eCtx := NewEpisodeContext(episodeCtx)
		eCtx.Run = ctx.run
		eCtx.Episode = episode
		eCtx.Horizon = ctx.Horizon
		eCtx.StartTimeStep = result.TotalTimeSteps
		eCtx.Evaluation = evaluation

		e.runEpisode(eCtx)
		cancel()

		errorred := eCtx.IsError()
		timedout := eCtx.IsTimeout()

		if errorred {
			log.Warn().Err(eCtx.Err()).Str("experiment", e.Name).Int("episode", episode).Msg("episode failed")
			result.ErrorEpisodes++
			if consecutiveErrors++; consecutiveErrors >= ctx.ThresholdConsecutiveErrors {
				result.Error = ErrTooManyErrors
				break EpisodeLoop
			}
		} else {
			consecutiveErrors = 0
		}
		if timedout {
			log.Warn().Str("experiment", e.Name).Int("episode", episode).Msg("episode timed out")
			result.TimeoutEpisodes++
			if consecutiveTimeouts++; consecutiveTimeouts >= ctx.ThresholdConsecutiveTimeouts {
				result.Error = ErrTooManyTimeouts
				break EpisodeLoop
			}
		} else {
			consecutiveTimeouts = 0
		}

		if !errorred && !timedout {
			result.TotalTimeSteps += eCtx.Trace.Len()
			result.CompletedEpisodes++
			if eCtx.Won {
				result.Wins++
			}
		}
		result.TotalEpisodes++

		for _, a := range ctx.analyzers {
			a.Analyze(eCtx, eCtx.Trace)
		}
	}
	if result.Error != nil {
		fmt.Fprintf(ctx.writer, "Experiment: %s, Run %d, Error: %v\n", e.Name, ctx.run, result.Error)
	}
	log.Info().
		Str("experiment", e.Name).
		Int("run", ctx.run).
		Int("episodes", result.TotalEpisodes).
		Int("wins", result.Wins).
		Int("errors", result.ErrorEpisodes).
		Msg("experiment finished")

	for name, a := range ctx.analyzers {
		result.Datasets[name] = a.DataSet()
	}
	return result
}

// runEpisode plays one game to the end or to the horizon, whichever comes first.
func (e *Experiment) runEpisode(eCtx *EpisodeContext) {
	e.Agent.ResetEpisode()
	state, err := e.Environment.Reset()
	if err != nil {
		eCtx.Error(err)
		return
	}
	for step := 0; step < eCtx.Horizon && !state.Terminal(); step++ {
		select {
		case <-eCtx.Context.Done():
			if errors.Is(eCtx.Context.Err(), context.DeadlineExceeded) {
				eCtx.Timeout()
			} else {
				eCtx.Error(eCtx.Context.Err())
			}
			return
		default:
		}

		sCtx := &StepContext{Step: step, EpisodeContext: eCtx}
		legal := state.LegalActions()
		action, err := e.Agent.Decide(state, legal)
		if err != nil {
			eCtx.Error(fmt.Errorf("step %d: %w", step, err))
			return
		}
		nextState, err := e.Environment.Step(action, sCtx)
		if err != nil {
			eCtx.Error(fmt.Errorf("step %d: %w", step, err))
			return
		}
		eCtx.Trace.AddStep(&Step{
			Position: state.PacmanPosition(),
			Ghosts:   state.GhostPositions(),
			Action:   action,
			Score:    nextState.Score(),
			Misc:     map[string]interface{}{"legal": legal},
		})
		state = nextState
	}
	eCtx.FinalScore = state.Score()
	eCtx.Won = state.Win()
	// nothing was decided, so there is no entry to finish
	if eCtx.Trace.Len() == 0 {
		return
	}
	if err := e.Agent.Finish(state); err != nil {
		eCtx.Error(err)
	}
}

func (c *Comparison) Run(ctx context.Context, runs int, rConfig *RunConfig) {
	writer := uilive.New()
	writer.Start()
	defer writer.Stop()

	for run := 0; run < runs; run++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results := make(map[string]*ExperimentResult)

		// Run experiments
		for _, e := range c.Experiments {
			select {
			case <-ctx.Done():
				return
			default:
			}
			eCtx := &experimentRunContext{
				run:       run,
				ctx:       ctx,
				analyzers: make(map[string]Analyzer),
				writer:    writer,
				RunConfig: rConfig,
			}

			for name, a := range c.Analyzers {
				a.Reset()
				eCtx.analyzers[name] = a
			}

			results[e.Name] = e.run(eCtx)
		}

		compare(results, c.Comparators)
	}
}

// compare hands every comparator the datasets of its analyzer, one per experiment.
func compare(results map[string]*ExperimentResult, comparators map[string]Comparator) {
	experimentNames := make([]string, 0, len(results))
	for name := range results {
		experimentNames = append(experimentNames, name)
	}
	sort.Strings(experimentNames)

	for name, c := range comparators {
		datasets := make([]DataSet, len(experimentNames))
		for i, exp := range experimentNames {
			result := results[exp]
			if !result.IsError() {
				datasets[i] = result.Datasets[name]
			}
		}
		c.Compare(experimentNames, datasets)
	}
}

// parallelWorker is a worker that runs experiments
type parallelWorker struct {
	id int
}

// parallelWork is a struct that contains all the information needed to run an experiment
type parallelWork struct {
	experiment *ParallelExperiment
	comp       *ParallelComparison
	runNumber  int
	writer     io.Writer
	rConfig    *RunConfig
}

// parallelResult is a struct that contains the result of running an experiment
type parallelResult struct {
	experimentName string
	run            int
	result         *ExperimentResult
}

// Worker main loop that consumes work from a channel
func (w *parallelWorker) run(ctx context.Context, workCh <-chan *parallelWork, resultsCh chan<- *parallelResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case work, more := <-workCh:
			if !more {
				return
			}
			result := w.runWork(ctx, work)
			select {
			case resultsCh <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Run an experiment by constructing the experiment context, *Experiment
// Every experiment gets a fresh environment and agent, so no learner is shared between workers.
func (w *parallelWorker) runWork(ctx context.Context, work *parallelWork) *parallelResult {
	eCtx := &experimentRunContext{
		run:       work.runNumber,
		ctx:       ctx,
		analyzers: make(map[string]Analyzer),
		writer:    work.writer,
		RunConfig: work.rConfig,
	}

	for name, aC := range work.comp.Analyzers {
		eCtx.analyzers[name] = aC.NewAnalyzer(work.experiment.Name, work.runNumber)
	}

	exp := &Experiment{
		Name:        work.experiment.Name,
		Environment: work.experiment.Environment.NewEnvironment(w.id),
		Agent:       work.experiment.Agent.NewAgent(),
	}

	result := exp.run(eCtx)

	return &parallelResult{
		experimentName: work.experiment.Name,
		run:            work.runNumber,
		result:         result,
	}
}

func (c *ParallelComparison) Run(ctx context.Context, runs int, rConfig *RunConfig, parallelism int) {
	if parallelism < 1 {
		parallelism = 1
	}
	for run := 0; run < runs; run++ {
		select {
		case <-ctx.Done():
			return
		default:
		}
		log.Info().Int("run", run).Int("experiments", len(c.Experiments)).Msg("starting run")

		printer := util.NewTerminalPrinter(200 * time.Millisecond)
		printer.Write(fmt.Sprintf("Run %d\n", run))
		outputs := make([]io.Writer, len(c.Experiments))
		for i := range c.Experiments {
			outputs[i] = printer.NewOutput()
		}
		printer.Start(ctx)

		workCh := make(chan *parallelWork, len(c.Experiments))
		resultsCh := make(chan *parallelResult, len(c.Experiments))

		// Start workers
		for i := 0; i < parallelism; i++ {
			w := &parallelWorker{id: i}
			go w.run(ctx, workCh, resultsCh)
		}

		// Run experiments by sending work to workers
		for i, e := range c.Experiments {
			workCh <- &parallelWork{
				experiment: e,
				comp:       c,
				runNumber:  run,
				rConfig:    rConfig,
				writer:     outputs[i],
			}
		}
		close(workCh)

		results := make(map[string]*ExperimentResult)
		for len(results) < len(c.Experiments) {
			select {
			case <-ctx.Done():
				printer.Stop()
				return
			case r := <-resultsCh:
				results[r.experimentName] = r.result
			}
		}
		printer.Stop()

		comparators := make(map[string]Comparator)
		for name, cC := range c.Comparators {
			comparators[name] = cC.NewComparator(run)
		}
		compare(results, comparators)
	}
}
