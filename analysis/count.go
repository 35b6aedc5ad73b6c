package analysis

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zeu5/pacman-qlearning/core"
)

// CountComparator logs the int datasets of analyzers that only count things.
type CountComparator struct {
	label string
	run   int
	// level used when the count is non zero
	level zerolog.Level
}

var _ core.Comparator = &CountComparator{}

func NewCountComparator(label string, run int, level zerolog.Level) *CountComparator {
	return &CountComparator{
		label: label,
		run:   run,
		level: level,
	}
}

func (c *CountComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	for i, name := range experimentNames {
		count, ok := datasets[i].(int)
		if !ok {
			log.Warn().Str("experiment", name).Int("run", c.run).Msgf("no %s recorded", c.label)
			continue
		}
		level := zerolog.InfoLevel
		if count > 0 {
			level = c.level
		}
		log.WithLevel(level).Str("experiment", name).Int("run", c.run).Int(c.label, count).Send()
	}
}

type CountComparatorConstructor struct {
	label string
	level zerolog.Level
}

var _ core.ComparatorConstructor = &CountComparatorConstructor{}

func NewCountComparatorConstructor(label string, level zerolog.Level) *CountComparatorConstructor {
	return &CountComparatorConstructor{
		label: label,
		level: level,
	}
}

func (c *CountComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewCountComparator(c.label, run, c.level)
}
