package policies

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	erand "golang.org/x/exp/rand"

	"github.com/zeu5/pacman-qlearning/core"
)

// decision is the state the learner acted in and what it chose.
type decision struct {
	state  StateSnapshot
	action core.Action
	// score seen when the decision was made, kept for bookkeeping only
	score float64
}

// QLearner learns a QTable over one game at a time. It is not safe for
// concurrent use; run one QLearner per environment.
//
// The update applied on every decision after the first of an episode is
//
//	Q(s,a) <- Q(s,a) + alpha * (score + gamma * max_a' (Q(s',a') - Q(s,a)))
//
// where score is the cumulative game score and not a per-step reward. Unlike
// the textbook target, the bracket uses the difference to Q(s,a) rather than
// max_a' Q(s',a') itself.
type QLearner struct {
	alpha float64
	gamma float64
	// parameters Reset restores
	initAlpha   float64
	initEpsilon float64

	table  *QTable
	policy *EpsilonGreedy
	rand   *erand.Rand

	previous decision
	decided  bool
}

var _ core.Agent = &QLearner{}

// NewQLearner creates a learner with an empty table. A nil source is seeded
// from the clock. Gamma cannot be changed afterwards.
func NewQLearner(alpha, epsilon, gamma float64, src erand.Source) *QLearner {
	if src == nil {
		src = erand.NewSource(uint64(time.Now().UnixNano()))
	}
	rand := erand.New(src)
	table := NewQTable()
	return &QLearner{
		alpha:       alpha,
		gamma:       gamma,
		initAlpha:   alpha,
		initEpsilon: epsilon,
		table:       table,
		policy:      NewEpsilonGreedy(table, epsilon, rand),
		rand:        rand,
	}
}

func (q *QLearner) Decide(obs core.Observation, legal []core.Action) (core.Action, error) {
	if len(legal) == 0 {
		return "", fmt.Errorf("decide: %w", core.ErrInvalidActionSet)
	}
	curr, err := FromObservation(obs)
	if err != nil {
		return "", fmt.Errorf("decide: %w", err)
	}
	q.table.Ensure(curr, legal)
	score := obs.Score()

	if !q.decided {
		// nothing to learn from yet
		action := legal[q.rand.Intn(len(legal))]
		q.previous = decision{state: curr, action: action, score: score}
		q.decided = true
		return action, nil
	}

	sa := NewStateActionKey(q.previous.state, q.previous.action)
	q.update(sa, legal, curr, score)

	action, err := q.policy.Select(curr, legal)
	if err != nil {
		return "", err
	}
	q.previous = decision{state: curr, action: action, score: score}
	return action, nil
}

// update moves the estimate of sa towards score plus the discounted best
// improvement available from next. Every (next, a) entry must exist.
func (q *QLearner) update(sa StateActionKey, legal []core.Action, next StateSnapshot, score float64) {
	current := q.table.Get(sa)
	maxDelta := math.Inf(-1)
	for _, a := range legal {
		delta := q.table.Get(NewStateActionKey(next, a)) - current
		if delta > maxDelta {
			maxDelta = delta
		}
	}
	newValue := current + q.alpha*(score+q.gamma*maxDelta)
	q.table.Set(sa, newValue)

	log.Debug().
		Str("action", string(sa.Action)).
		Float64("score", score).
		Float64("old", current).
		Float64("new", newValue).
		Msg("q update")
}

// Finish overwrites the entry of the last decision with the terminal score.
func (q *QLearner) Finish(obs core.Observation) error {
	if !q.decided {
		return fmt.Errorf("finish: %w: no decision made this episode", core.ErrIllegalSessionState)
	}
	if err := core.ValidateObservation(obs); err != nil {
		return fmt.Errorf("finish: %w", err)
	}
	sa := NewStateActionKey(q.previous.state, q.previous.action)
	q.table.Set(sa, obs.Score())

	log.Debug().
		Float64("score", obs.Score()).
		Float64("last_step_delta", obs.Score()-q.previous.score).
		Int("entries", q.table.Size()).
		Msg("episode finished")
	return nil
}

// SetParameters takes effect from the next decision on.
func (q *QLearner) SetParameters(alpha, epsilon float64) {
	q.alpha = alpha
	q.policy.Epsilon = epsilon
}

func (q *QLearner) ResetEpisode() {
	q.previous = decision{}
	q.decided = false
}

// Reset drops the table and restores the alpha and epsilon the learner was built with.
func (q *QLearner) Reset() {
	q.table = NewQTable()
	q.policy.table = q.table
	q.SetParameters(q.initAlpha, q.initEpsilon)
	q.ResetEpisode()
}

func (q *QLearner) Table() *QTable {
	return q.table
}

func (q *QLearner) Alpha() float64 {
	return q.alpha
}

func (q *QLearner) Epsilon() float64 {
	return q.policy.Epsilon
}

func (q *QLearner) Gamma() float64 {
	return q.gamma
}

type QLearnerConstructor struct {
	alpha   float64
	epsilon float64
	gamma   float64
	seed    uint64
	count   atomic.Uint64
}

var _ core.AgentConstructor = &QLearnerConstructor{}

// NewQLearnerConstructor builds learners seeded from seed, or from the clock when seed is 0.
func NewQLearnerConstructor(alpha, epsilon, gamma float64, seed uint64) *QLearnerConstructor {
	return &QLearnerConstructor{
		alpha:   alpha,
		epsilon: epsilon,
		gamma:   gamma,
		seed:    seed,
	}
}

func (c *QLearnerConstructor) NewAgent() core.Agent {
	var src erand.Source
	if c.seed != 0 {
		src = erand.NewSource(c.seed + c.count.Add(1) - 1)
	}
	return NewQLearner(c.alpha, c.epsilon, c.gamma, src)
}
