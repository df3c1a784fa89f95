package game

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/clickpot/internal/model"
)

// Milestone is a global click count that unlocks a reward
type Milestone struct {
	At     int64  `yaml:"at"`
	Reward string `yaml:"reward"`
}

// Milestones is a list of milestones in ascending order
type Milestones []Milestone

// DefaultMilestones returns the milestones the service ships with
func DefaultMilestones() Milestones {
	return Milestones{
		{At: 10, Reward: "+100 free clicks"},
		{At: 50, Reward: "+500 free clicks"},
		{At: 100, Reward: "Win the pot!"},
	}
}

type milestoneFile struct {
	Milestones Milestones `yaml:"milestones"`
}

// LoadMilestones reads a YAML milestone file:
//
//	milestones:
//	  - at: 10
//	    reward: "+100 free clicks"
func LoadMilestones(path string) (Milestones, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read milestones: %w", err)
	}
	return ParseMilestones(data)
}

// ParseMilestones decodes and validates a YAML milestone document
func ParseMilestones(data []byte) (Milestones, error) {
	var f milestoneFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse milestones: %w", err)
	}
	if len(f.Milestones) == 0 {
		return nil, errors.New("no milestones defined")
	}

	ms := slices.Clone(f.Milestones)
	slices.SortFunc(ms, func(a, b Milestone) int {
		switch {
		case a.At < b.At:
			return -1
		case a.At > b.At:
			return 1
		}
		return 0
	})
	for i, m := range ms {
		if m.At <= 0 {
			return nil, fmt.Errorf("milestone %d must be positive", m.At)
		}
		if i > 0 && ms[i-1].At == m.At {
			return nil, fmt.Errorf("duplicate milestone %d", m.At)
		}
	}
	return ms, nil
}

// NextMilestone returns the smallest milestone strictly greater than clicks.
// ok is false once every milestone has been passed.
func NextMilestone(ms Milestones, clicks int64) (next Milestone, ok bool) {
	for _, m := range ms {
		if m.At > clicks {
			return m, true
		}
	}
	return Milestone{}, false
}

// Progress is clicks as a percentage of next, rounded to the nearest
// whole percent and clamped to [0, 100].
// With no next milestone progress is complete.
func Progress(clicks int64, next Milestone, ok bool) int {
	if !ok || next.At <= 0 {
		return 100
	}
	if clicks <= 0 {
		return 0
	}
	if clicks >= next.At {
		return 100
	}
	return int(math.Round(float64(clicks) * 100 / float64(next.At)))
}

// MilestoneStatus is the milestone part of the view
type MilestoneStatus struct {
	Next     Milestone
	HasNext  bool
	Percent  int
	Complete bool
}

// Status combines NextMilestone and Progress for clicks
func (ms Milestones) Status(clicks int64) MilestoneStatus {
	next, ok := NextMilestone(ms, clicks)
	return MilestoneStatus{
		Next:     next,
		HasNext:  ok,
		Percent:  Progress(clicks, next, ok),
		Complete: !ok,
	}
}

// RingProgress is clicks as a fraction of the display ceiling, in [0, 1]
func RingProgress(clicks int64) float64 {
	switch {
	case clicks <= 0:
		return 0
	case clicks >= model.MaxGlobalClicks:
		return 1
	}
	return float64(clicks) / float64(model.MaxGlobalClicks)
}
