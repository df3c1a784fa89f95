package mocks

import (
	"github.com/mcoot/clickpot/internal/dependencies/random"
)

// MockRandom returns queued values from Intn
type MockRandom struct {
	IntnResults []int
	intnIndex   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom(values ...int) *MockRandom {
	return &MockRandom{IntnResults: values}
}

// Intn returns the next queued result, or 0 if none remaining.
// Results are reduced modulo n so callers always get a value in range.
func (r *MockRandom) Intn(n int) int {
	if r.intnIndex >= len(r.IntnResults) || n <= 0 {
		return 0
	}
	result := r.IntnResults[r.intnIndex]
	r.intnIndex++
	return result % n
}
