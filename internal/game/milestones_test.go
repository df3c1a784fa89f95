package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/clickpot/internal/model"
)

func TestNextMilestoneAndProgress(t *testing.T) {
	ms := DefaultMilestones()
	tests := []struct {
		clicks   int64
		next     int64
		hasNext  bool
		percent  int
		complete bool
	}{
		{clicks: 0, next: 10, hasNext: true, percent: 0},
		{clicks: 9, next: 10, hasNext: true, percent: 90},
		{clicks: 10, next: 50, hasNext: true, percent: 20},
		{clicks: 49, next: 50, hasNext: true, percent: 98},
		{clicks: 50, next: 100, hasNext: true, percent: 50},
		{clicks: 99, next: 100, hasNext: true, percent: 99},
		{clicks: 100, hasNext: false, percent: 100, complete: true},
		{clicks: 5000, hasNext: false, percent: 100, complete: true},
		{clicks: -3, next: 10, hasNext: true, percent: 0},
	}

	for _, tt := range tests {
		status := ms.Status(tt.clicks)
		assert.Equal(t, tt.hasNext, status.HasNext, "clicks=%d", tt.clicks)
		if tt.hasNext {
			assert.Equal(t, tt.next, status.Next.At, "clicks=%d", tt.clicks)
		}
		assert.Equal(t, tt.percent, status.Percent, "clicks=%d", tt.clicks)
		assert.Equal(t, tt.complete, status.Complete, "clicks=%d", tt.clicks)
	}
}

func TestProgressRoundsToNearestPercent(t *testing.T) {
	tests := []struct {
		clicks int64
		at     int64
		want   int
	}{
		{clicks: 1, at: 3, want: 33},
		{clicks: 2, at: 3, want: 67},
		{clicks: 1, at: 8, want: 13},
		{clicks: 5, at: 7, want: 71},
		{clicks: 999, at: 1000, want: 100},
	}

	for _, tt := range tests {
		got := Progress(tt.clicks, Milestone{At: tt.at}, true)
		assert.Equal(t, tt.want, got, "%d of %d", tt.clicks, tt.at)
	}
}

func TestProgressBoundedAndMonotoneWithinInterval(t *testing.T) {
	ms := DefaultMilestones()
	prev := ms.Status(0)
	for clicks := int64(1); clicks <= 150; clicks++ {
		cur := ms.Status(clicks)
		assert.GreaterOrEqual(t, cur.Percent, 0)
		assert.LessOrEqual(t, cur.Percent, 100)
		if cur.HasNext && prev.HasNext && cur.Next.At == prev.Next.At {
			assert.GreaterOrEqual(t, cur.Percent, prev.Percent, "clicks=%d", clicks)
		}
		if clicks >= 100 {
			assert.True(t, cur.Complete)
			assert.False(t, cur.HasNext)
		}
		prev = cur
	}
}

func TestRingProgress(t *testing.T) {
	assert.Zero(t, RingProgress(0))
	assert.Equal(t, 0.5, RingProgress(model.MaxGlobalClicks/2))
	assert.Equal(t, 1.0, RingProgress(model.MaxGlobalClicks*3))
}

func TestParseMilestones(t *testing.T) {
	ms, err := ParseMilestones([]byte(`
milestones:
  - at: 500
    reward: big
  - at: 20
    reward: small
`))
	require.NoError(t, err)
	assert.Equal(t, Milestones{{At: 20, Reward: "small"}, {At: 500, Reward: "big"}}, ms)

	_, err = ParseMilestones([]byte(`milestones: []`))
	assert.Error(t, err)

	_, err = ParseMilestones([]byte("milestones:\n  - at: 0\n"))
	assert.Error(t, err)

	_, err = ParseMilestones([]byte("milestones:\n  - at: 5\n  - at: 5\n"))
	assert.Error(t, err)

	_, err = ParseMilestones([]byte("milestones: ["))
	assert.Error(t, err)
}

func TestLoadMilestones(t *testing.T) {
	path := filepath.Join(t.TempDir(), "milestones.yaml")
	require.NoError(t, os.WriteFile(path, []byte("milestones:\n  - at: 3\n    reward: tiny\n"), 0600))

	ms, err := LoadMilestones(path)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "tiny", ms[0].Reward)

	_, err = LoadMilestones(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestHasUnlimitedActions(t *testing.T) {
	tests := []struct {
		role  model.Role
		grant bool
		want  bool
	}{
		{role: model.RoleUser, grant: false, want: false},
		{role: model.RoleUser, grant: true, want: true},
		{role: model.RoleAdmin, grant: false, want: true},
		{role: model.RoleSuperuser, grant: false, want: true},
		{role: "", grant: false, want: false},
		{role: "", grant: true, want: true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasUnlimitedActions(tt.role, tt.grant), "role=%q grant=%v", tt.role, tt.grant)
	}
}
