package random

import "math/rand/v2"

// Random picks the jitter applied to click flashes
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int
}

// Source implements Random with the runtime's shared generator
type Source struct{}

// New creates a new Source
func New() Source {
	return Source{}
}

// Intn returns a random int in [0, n), or 0 when n is not positive
func (Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return rand.IntN(n)
}
