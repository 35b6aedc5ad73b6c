package pacman

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	erand "golang.org/x/exp/rand"

	"github.com/zeu5/pacman-qlearning/core"
)

func newTestGame(t *testing.T, name string) *Game {
	t.Helper()
	layout, err := GetLayout(name)
	require.NoError(t, err)
	return NewGame(layout, 2, erand.NewSource(11))
}

func TestLayouts(t *testing.T) {
	t.Run("built-in layouts parse", func(t *testing.T) {
		for _, name := range LayoutNames() {
			_, err := GetLayout(name)
			require.NoError(t, err, "Layout %s should parse", name)
		}
	})

	t.Run("unknown layout", func(t *testing.T) {
		_, err := GetLayout("nope")
		require.True(t, errors.Is(err, ErrUnknownLayout))
	})

	t.Run("rows are counted from the bottom", func(t *testing.T) {
		l, err := GetLayout("smallGrid")
		require.NoError(t, err)
		require.Equal(t, core.Coord{X: 2, Y: 1}, l.PacmanStart)
		require.Equal(t, []core.Coord{{X: 5, Y: 1}}, l.GhostStarts)
		require.True(t, l.Food[5][4])
		require.True(t, l.Food[1][1])
		require.Equal(t, 2, l.Food.Count())
	})

	t.Run("malformed layouts", func(t *testing.T) {
		cases := map[string][]string{
			"ragged":    {"%%%", "%P.%", "%%%"},
			"no pacman": {"%%%", "%.%", "%%%"},
			"no food":   {"%%%", "%P%", "%%%"},
			"bad char":  {"%%%%", "%Px.", "%%%%"},
			"two pacs":  {"%%%%", "%PP.", "%%%%"},
		}
		for name, lines := range cases {
			_, err := ParseLayout(name, lines)
			require.Error(t, err, name)
		}
	})
}

func TestGame(t *testing.T) {
	t.Run("eating the last food wins", func(t *testing.T) {
		g := newTestGame(t, "tinyGrid")
		state, err := g.Reset()
		require.NoError(t, err)
		require.Equal(t, []core.Action{core.East, core.Stop}, state.LegalActions())

		state, err = g.Step(core.East, nil)
		require.NoError(t, err)
		require.Equal(t, -TimePenalty, state.Score())
		require.False(t, state.Terminal())

		state, err = g.Step(core.East, nil)
		require.NoError(t, err)
		require.True(t, state.Terminal())
		require.True(t, state.Win())
		require.Equal(t, -2*TimePenalty+FoodReward+WinReward, state.Score())
		require.Empty(t, state.LegalActions())

		_, err = g.Step(core.West, nil)
		require.True(t, errors.Is(err, ErrGameOver))
	})

	t.Run("illegal moves are rejected", func(t *testing.T) {
		g := newTestGame(t, "tinyGrid")
		_, err := g.Step(core.East, nil)
		require.True(t, errors.Is(err, ErrNotStarted))

		_, err = g.Reset()
		require.NoError(t, err)
		_, err = g.Step(core.North, nil)
		require.True(t, errors.Is(err, ErrIllegalAction))
	})

	t.Run("reset restores the board", func(t *testing.T) {
		g := newTestGame(t, "tinyGrid")
		_, _ = g.Reset()
		_, _ = g.Step(core.East, nil)
		state, err := g.Reset()
		require.NoError(t, err)
		require.Equal(t, core.Coord{X: 1, Y: 1}, state.PacmanPosition())
		require.Equal(t, 0.0, state.Score())
		require.Equal(t, 1, state.Food().Count())
	})

	t.Run("walking into a ghost loses", func(t *testing.T) {
		layout, err := ParseLayout("corridor", []string{
			"%%%%%%",
			"%PG .%",
			"%%%%%%",
		})
		require.NoError(t, err)
		g := NewGame(layout, 1, erand.NewSource(1))
		_, err = g.Reset()
		require.NoError(t, err)

		state, err := g.Step(core.East, nil)
		require.NoError(t, err)
		require.True(t, state.Terminal())
		require.False(t, state.Win())
		require.Equal(t, -TimePenalty-LosePenalty, state.Score())
	})

	t.Run("ghosts stay on open cells", func(t *testing.T) {
		g := newTestGame(t, "mediumGrid")
		state, err := g.Reset()
		require.NoError(t, err)
		for i := 0; i < 200 && !state.Terminal(); i++ {
			state, err = g.Step(core.Stop, nil)
			require.NoError(t, err)
			for _, ghost := range state.GhostPositions() {
				require.False(t, g.layout.isWall(int(ghost.X), int(ghost.Y)))
			}
		}
	})

	t.Run("states are observations", func(t *testing.T) {
		g := newTestGame(t, "smallGrid")
		state, err := g.Reset()
		require.NoError(t, err)
		require.NoError(t, core.ValidateObservation(state))

		food := state.Food()
		food[1][1] = false
		require.True(t, state.Food()[1][1], "Observations should hand out copies")
	})
}
