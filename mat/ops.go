package mat

import "gorgonia.org/vecf64"

// Float64er is a source of uniform draws in [0, 1). *math/rand.Rand is one.
type Float64er interface {
	Float64() float64
}

// ZeroGradients resets every gradient to 0.
func (m *Mat) ZeroGradients() { m.SetConstGradient(0) }

// SetConst sets every weight to c.
func (m *Mat) SetConst(c float64) {
	for i := range m.weights {
		m.weights[i] = c
	}
}

// SetConstGradient sets every gradient to c.
func (m *Mat) SetConstGradient(c float64) {
	for i := range m.gradients {
		m.gradients[i] = c
	}
}

// AddFrom adds other's weights elementwise into m's weights.
// It panics if the lengths differ.
func (m *Mat) AddFrom(other *Mat) {
	checkLen("AddFrom", m.length, other.length)
	vecf64.Add(m.weights, other.weights)
}

// AddGradientFrom adds other's gradients elementwise into m's gradients.
// It panics if the lengths differ.
func (m *Mat) AddGradientFrom(other *Mat) {
	checkLen("AddGradientFrom", m.length, other.length)
	vecf64.Add(m.gradients, other.gradients)
}

// AddFromScaled performs weights += a * other.weights. It panics if the lengths differ.
func (m *Mat) AddFromScaled(other *Mat, a float64) {
	checkLen("AddFromScaled", m.length, other.length)
	scaled := append(other.weights[:0:0], other.weights...)
	vecf64.Scale(scaled, a)
	vecf64.Add(m.weights, scaled)
}

// Scale multiplies every weight by a.
func (m *Mat) Scale(a float64) { vecf64.Scale(m.weights, a) }

// MaxColumn returns the index of the largest weight. Ties go to the first
// occurrence. An empty Mat returns -1.
func (m *Mat) MaxColumn() int {
	pos := -1
	var max float64
	for i, v := range m.weights {
		if i == 0 || v > max {
			max = v
			pos = i
		}
	}
	return pos
}

// SampledColumn treats the weights as a probability distribution and returns an
// index sampled from it, using one draw from src. See SampleAt.
func (m *Mat) SampledColumn(src Float64er) int { return m.SampleAt(src.Float64()) }

// SampleAt returns the first index at which the running sum of the weights exceeds r.
// The weights are not renormalized; if rounding keeps the sum from ever exceeding r,
// the last index is returned.
func (m *Mat) SampleAt(r float64) int {
	var x float64
	for i, v := range m.weights {
		x += v
		if x > r {
			return i
		}
	}
	return m.length - 1
}
