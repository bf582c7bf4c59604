package mat

import "github.com/pkg/errors"

// Pos returns the flat index of (x, y). It panics if the coordinate is out of range.
func (m *Mat) Pos(x, y int) int {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		panic(errors.Wrapf(ErrIndex, "(%d, %d) in a %dx%d Mat", x, y, m.width, m.height))
	}
	return m.width*y + x
}

func (m *Mat) check(i int) int {
	if i < 0 || i >= m.length {
		panic(errors.Wrapf(ErrIndex, "%d in a Mat of length %d", i, m.length))
	}
	return i
}

// Get returns the weight at (x, y).
func (m *Mat) Get(x, y int) float64 { return m.weights[m.Pos(x, y)] }

// Set sets the weight at (x, y).
func (m *Mat) Set(x, y int, v float64) { m.weights[m.Pos(x, y)] = v }

// Add accumulates v into the weight at (x, y).
func (m *Mat) Add(x, y int, v float64) { m.weights[m.Pos(x, y)] += v }

// At returns the weight at flat index i.
func (m *Mat) At(i int) float64 { return m.weights[m.check(i)] }

// SetAt sets the weight at flat index i.
func (m *Mat) SetAt(i int, v float64) { m.weights[m.check(i)] = v }

// AddAt accumulates v into the weight at flat index i.
func (m *Mat) AddAt(i int, v float64) { m.weights[m.check(i)] += v }

// Gradient returns the gradient at (x, y).
func (m *Mat) Gradient(x, y int) float64 { return m.gradients[m.Pos(x, y)] }

// SetGradient sets the gradient at (x, y).
func (m *Mat) SetGradient(x, y int, v float64) { m.gradients[m.Pos(x, y)] = v }

// AddGradient accumulates v into the gradient at (x, y).
func (m *Mat) AddGradient(x, y int, v float64) { m.gradients[m.Pos(x, y)] += v }

// GradientAt returns the gradient at flat index i.
func (m *Mat) GradientAt(i int) float64 { return m.gradients[m.check(i)] }

// SetGradientAt sets the gradient at flat index i.
func (m *Mat) SetGradientAt(i int, v float64) { m.gradients[m.check(i)] = v }

// AddGradientAt accumulates v into the gradient at flat index i.
func (m *Mat) AddGradientAt(i int, v float64) { m.gradients[m.check(i)] += v }
