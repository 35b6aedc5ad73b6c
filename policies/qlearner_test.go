package policies

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	erand "golang.org/x/exp/rand"

	"github.com/zeu5/pacman-qlearning/core"
)

var twoActions = []core.Action{core.North, core.South}

func snapshot(t *testing.T, obs core.Observation) StateSnapshot {
	t.Helper()
	s, err := FromObservation(obs)
	require.NoError(t, err)
	return s
}

func TestQLearnerEpisode(t *testing.T) {
	learner := NewQLearner(0.5, 0, 0.9, erand.NewSource(42))
	table := learner.Table()
	obs1 := testObservation(1, 0)
	obs2 := testObservation(2, 10)
	s1 := snapshot(t, obs1)
	s2 := snapshot(t, obs2)

	r1, err := learner.Decide(obs1, twoActions)
	require.NoError(t, err)
	require.Contains(t, twoActions, r1)
	require.Equal(t, 2, table.Size())
	for _, a := range twoActions {
		require.Equal(t, 0.0, table.Get(NewStateActionKey(s1, a)), "First decision should not learn")
	}

	r2, err := learner.Decide(obs2, twoActions)
	require.NoError(t, err)
	// 0 + 0.5 * (10 + 0.9 * 0)
	require.Equal(t, 5.0, table.Get(NewStateActionKey(s1, r1)))
	require.Equal(t, core.North, r2, "Greedy choice over an all zero state is the first legal action")

	// terminal score replaces the value, it is not blended
	table.Set(NewStateActionKey(s2, r2), 123)
	require.NoError(t, learner.Finish(testObservation(2, -50)))
	require.Equal(t, -50.0, table.Get(NewStateActionKey(s2, r2)))
	require.Equal(t, 5.0, table.Get(NewStateActionKey(s1, r1)))
}

func TestQLearnerUpdateUsesDeltaToPrevious(t *testing.T) {
	learner := NewQLearner(0.5, 0, 0.9, erand.NewSource(3))
	table := learner.Table()
	s2 := snapshot(t, testObservation(2, 0))
	s3 := snapshot(t, testObservation(3, 0))
	s4 := snapshot(t, testObservation(4, 0))

	_, err := learner.Decide(testObservation(1, 0), twoActions)
	require.NoError(t, err)
	r2, err := learner.Decide(testObservation(2, 0), twoActions)
	require.NoError(t, err)
	require.Equal(t, core.North, r2)

	table.Set(NewStateActionKey(s3, core.North), 8)
	table.Set(NewStateActionKey(s3, core.South), 1)
	r3, err := learner.Decide(testObservation(3, 12), twoActions)
	require.NoError(t, err)
	require.Equal(t, core.North, r3)
	// 0 + 0.5 * (12 + 0.9 * max(8-0, 1-0))
	require.InDelta(t, 9.6, table.Get(NewStateActionKey(s2, core.North)), 1e-9)

	table.Set(NewStateActionKey(s4, core.North), 10)
	table.Set(NewStateActionKey(s4, core.South), 3)
	_, err = learner.Decide(testObservation(4, 20), twoActions)
	require.NoError(t, err)
	// 8 + 0.5 * (20 + 0.9 * max(10-8, 3-8))
	require.InDelta(t, 18.9, table.Get(NewStateActionKey(s3, core.North)), 1e-9)
}

func TestQLearnerErrors(t *testing.T) {
	t.Run("finish before any decision", func(t *testing.T) {
		learner := NewQLearner(0.5, 0.1, 0.9, erand.NewSource(1))
		err := learner.Finish(testObservation(1, 0))
		require.True(t, errors.Is(err, core.ErrIllegalSessionState))
	})

	t.Run("empty legal actions", func(t *testing.T) {
		learner := NewQLearner(0.5, 0.1, 0.9, erand.NewSource(1))
		_, err := learner.Decide(testObservation(1, 0), nil)
		require.True(t, errors.Is(err, core.ErrInvalidActionSet))

		_, err = learner.Decide(testObservation(1, 0), twoActions)
		require.NoError(t, err)
		_, err = learner.Decide(testObservation(2, 0), []core.Action{})
		require.True(t, errors.Is(err, core.ErrInvalidActionSet))
	})

	t.Run("malformed observation", func(t *testing.T) {
		learner := NewQLearner(0.5, 0.1, 0.9, erand.NewSource(1))
		_, err := learner.Decide(&observation{position: core.Coord{X: 1, Y: 1}}, twoActions)
		require.True(t, errors.Is(err, core.ErrMalformedObservation))
		require.Equal(t, 0, learner.Table().Size())
	})
}

func TestQLearnerParameters(t *testing.T) {
	t.Run("zero alpha freezes values", func(t *testing.T) {
		learner := NewQLearner(0.5, 0, 0.9, erand.NewSource(1))
		learner.SetParameters(0, 0)
		s1 := snapshot(t, testObservation(1, 0))

		r1, err := learner.Decide(testObservation(1, 0), twoActions)
		require.NoError(t, err)
		_, err = learner.Decide(testObservation(2, 100), twoActions)
		require.NoError(t, err)

		require.Equal(t, 0.0, learner.Table().Get(NewStateActionKey(s1, r1)))
	})

	t.Run("only alpha and epsilon change", func(t *testing.T) {
		learner := NewQLearner(0.5, 0.3, 0.9, erand.NewSource(1))
		learner.SetParameters(0.1, 0.05)

		require.Equal(t, 0.1, learner.Alpha())
		require.Equal(t, 0.05, learner.Epsilon())
		require.Equal(t, 0.9, learner.Gamma())
	})

	t.Run("stored values survive a parameter change", func(t *testing.T) {
		learner := NewQLearner(0.5, 0, 0.9, erand.NewSource(1))
		s1 := snapshot(t, testObservation(1, 0))
		r1, _ := learner.Decide(testObservation(1, 0), twoActions)
		_, _ = learner.Decide(testObservation(2, 10), twoActions)
		learner.SetParameters(0.9, 1)

		require.Equal(t, 5.0, learner.Table().Get(NewStateActionKey(s1, r1)))
	})
}

func TestQLearnerReset(t *testing.T) {
	t.Run("new episode does not learn from the old one", func(t *testing.T) {
		learner := NewQLearner(0.5, 0, 0.9, erand.NewSource(1))
		_, err := learner.Decide(testObservation(1, 0), twoActions)
		require.NoError(t, err)
		require.NoError(t, learner.Finish(testObservation(1, -10)))
		before := learner.Table().Size()

		learner.ResetEpisode()
		require.True(t, errors.Is(learner.Finish(testObservation(1, 0)), core.ErrIllegalSessionState))

		_, err = learner.Decide(testObservation(5, 40), twoActions)
		require.NoError(t, err)
		s5 := snapshot(t, testObservation(5, 0))
		for _, a := range twoActions {
			require.Equal(t, 0.0, learner.Table().Get(NewStateActionKey(s5, a)))
		}
		require.Equal(t, before+2, learner.Table().Size())
	})

	t.Run("reset forgets the table", func(t *testing.T) {
		learner := NewQLearner(0.5, 0, 0.9, erand.NewSource(1))
		_, _ = learner.Decide(testObservation(1, 0), twoActions)
		_, _ = learner.Decide(testObservation(2, 10), twoActions)
		learner.Reset()

		require.Equal(t, 0, learner.Table().Size())
		require.True(t, errors.Is(learner.Finish(testObservation(1, 0)), core.ErrIllegalSessionState))
	})

	t.Run("reset restores training parameters", func(t *testing.T) {
		learner := NewQLearner(0.5, 0.3, 0.9, erand.NewSource(1))
		learner.SetParameters(0, 0)
		learner.Reset()

		require.Equal(t, 0.5, learner.Alpha())
		require.Equal(t, 0.3, learner.Epsilon())
		require.Equal(t, 0.9, learner.Gamma())

		r1, err := learner.Decide(testObservation(1, 0), twoActions)
		require.NoError(t, err)
		_, err = learner.Decide(testObservation(2, 10), twoActions)
		require.NoError(t, err)
		s1 := snapshot(t, testObservation(1, 0))
		require.Equal(t, 5.0, learner.Table().Get(NewStateActionKey(s1, r1)), "Learning should resume after a reset")
	})
}

func TestQLearnerFirstDecisionIsUniform(t *testing.T) {
	legal := []core.Action{core.North, core.South, core.East, core.West}
	learner := NewQLearner(0.5, 0, 0.9, erand.NewSource(17))
	obs := testObservation(1, 0)
	s := snapshot(t, obs)
	// a greedy pick would always return East
	learner.Table().Set(NewStateActionKey(s, core.East), 100)

	trials := 20000
	counts := make(map[core.Action]int)
	for i := 0; i < trials; i++ {
		learner.ResetEpisode()
		action, err := learner.Decide(obs, legal)
		require.NoError(t, err)
		counts[action]++
	}
	for _, a := range legal {
		require.InDelta(t, 0.25, float64(counts[a])/float64(trials), 0.02, "Action %s", a)
	}
	require.Equal(t, 100.0, learner.Table().Get(NewStateActionKey(s, core.East)), "First decisions should not update")
}

func TestRandomAgent(t *testing.T) {
	agent := NewRandomAgent(erand.NewSource(5))
	for i := 0; i < 50; i++ {
		action, err := agent.Decide(testObservation(1, 0), twoActions)
		require.NoError(t, err)
		require.Contains(t, twoActions, action)
	}
	_, err := agent.Decide(testObservation(1, 0), nil)
	require.True(t, errors.Is(err, core.ErrInvalidActionSet))
	require.NoError(t, agent.Finish(testObservation(1, 0)))
}

func TestRandomAgentConstructorSeed(t *testing.T) {
	legal := []core.Action{core.North, core.South, core.East, core.West, core.Stop}
	play := func(agent core.Agent) []core.Action {
		out := make([]core.Action, 0, 30)
		for i := 0; i < 30; i++ {
			action, err := agent.Decide(testObservation(1, 0), legal)
			require.NoError(t, err)
			out = append(out, action)
		}
		return out
	}

	c1 := NewRandomAgentConstructor(7)
	c2 := NewRandomAgentConstructor(7)
	first := play(c1.NewAgent())
	require.Equal(t, first, play(c2.NewAgent()), "Same seed should give the same moves")
	require.NotEqual(t, first, play(c1.NewAgent()), "Later agents should get a different seed")
}
