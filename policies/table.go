package policies

import "github.com/zeu5/pacman-qlearning/core"

// QTable maps state-action pairs to value estimates. Pairs that were never
// written read as 0.
type QTable struct {
	table map[string]map[core.Action]float64
	size  int
}

func NewQTable() *QTable {
	return &QTable{
		table: make(map[string]map[core.Action]float64),
	}
}

// Get returns the stored value, or 0 without inserting anything.
func (q *QTable) Get(key StateActionKey) float64 {
	val, _ := q.Lookup(key)
	return val
}

func (q *QTable) Lookup(key StateActionKey) (float64, bool) {
	actions, ok := q.table[key.State.key]
	if !ok {
		return 0, false
	}
	val, ok := actions[key.Action]
	return val, ok
}

// Ensure inserts a 0 entry for every legal action of state that has none.
func (q *QTable) Ensure(state StateSnapshot, legal []core.Action) {
	for _, a := range legal {
		if _, ok := q.Lookup(NewStateActionKey(state, a)); !ok {
			q.Set(NewStateActionKey(state, a), 0)
		}
	}
}

func (q *QTable) Set(key StateActionKey, val float64) {
	if _, ok := q.table[key.State.key]; !ok {
		q.table[key.State.key] = make(map[core.Action]float64)
	}
	if _, ok := q.table[key.State.key][key.Action]; !ok {
		q.size++
	}
	q.table[key.State.key][key.Action] = val
}

// Size is the number of state-action entries.
func (q *QTable) Size() int {
	return q.size
}

// States is the number of distinct snapshots with at least one entry.
func (q *QTable) States() int {
	return len(q.table)
}
