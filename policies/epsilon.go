package policies

import (
	"fmt"
	"math"

	erand "golang.org/x/exp/rand"

	"github.com/zeu5/pacman-qlearning/core"
)

// EpsilonGreedy explores with probability Epsilon and otherwise plays the
// legal action with the highest value in its table.
type EpsilonGreedy struct {
	Epsilon float64

	table *QTable
	rand  *erand.Rand
}

func NewEpsilonGreedy(table *QTable, epsilon float64, rand *erand.Rand) *EpsilonGreedy {
	return &EpsilonGreedy{
		Epsilon: epsilon,
		table:   table,
		rand:    rand,
	}
}

func (p *EpsilonGreedy) Select(state StateSnapshot, legal []core.Action) (core.Action, error) {
	if len(legal) == 0 {
		return "", fmt.Errorf("select: %w", core.ErrInvalidActionSet)
	}
	if p.rand.Float64() < p.Epsilon && p.Epsilon > 0 {
		return legal[p.rand.Intn(len(legal))], nil
	}
	return p.ArgmaxAction(state, legal), nil
}

// ArgmaxAction scans legal in order and keeps the first action with the
// highest value. legal must not be empty.
func (p *EpsilonGreedy) ArgmaxAction(state StateSnapshot, legal []core.Action) core.Action {
	bestScore := math.Inf(-1)
	bestAction := core.Action("")
	found := false
	for _, a := range legal {
		score := p.table.Get(NewStateActionKey(state, a))
		if score > bestScore {
			bestScore = score
			bestAction = a
			found = true
		}
	}
	// only possible when every value is -Inf or NaN
	if !found {
		return legal[p.rand.Intn(len(legal))]
	}
	return bestAction
}
