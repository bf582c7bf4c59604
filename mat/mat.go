// Package mat implements the dense 2-D tensor used as the unit of computation and
// gradient accumulation, its variance scaled initializer and its serialized form.
//
// Storage is flat and row major: the element at (x, y) lives at index width*y + x,
// in both the weights and the parallel gradient accumulators.
package mat

import (
	"fmt"

	"github.com/pkg/errors"
)

// Mat is a fixed size width x height array of weights with a parallel array of
// gradients. The zero value is an empty 0x0 Mat which may be initialized with one of
// the Init methods.
type Mat struct {
	width, height int
	length        int

	weights   []float64
	gradients []float64
}

// New creates a width x height Mat whose weights are drawn from g, keyed by the
// number of elements. Gradients are zero.
func New(width, height int, g *Gaussians) (*Mat, error) {
	retVal := new(Mat)
	if err := retVal.Init(width, height, g); err != nil {
		return nil, err
	}
	return retVal, nil
}

// NewConst creates a width x height Mat with every weight set to c.
func NewConst(width, height int, c float64) (*Mat, error) {
	retVal := new(Mat)
	if err := retVal.InitConst(width, height, c); err != nil {
		return nil, err
	}
	return retVal, nil
}

// NewFrom creates a width x height Mat holding a copy of values, which must have
// exactly width*height elements.
func NewFrom(width, height int, values []float64) (*Mat, error) {
	retVal := new(Mat)
	if err := retVal.InitFrom(width, height, values); err != nil {
		return nil, err
	}
	return retVal, nil
}

// NewVector creates a 1 x len(values) Mat holding a copy of values.
func NewVector(values []float64) *Mat {
	n := len(values)
	retVal := &Mat{
		width:     1,
		height:    n,
		length:    n,
		weights:   make([]float64, n),
		gradients: make([]float64, n),
	}
	copy(retVal.weights, values)
	return retVal
}

// Init (re)initializes m as a width x height Mat with weights sampled from g.
func (m *Mat) Init(width, height int, g *Gaussians) error {
	if err := checkDims(width, height); err != nil {
		return err
	}
	if g == nil {
		return errors.WithStack(ErrNilSampler)
	}
	m.reset(width, height)
	g.Fill(m.weights)
	return nil
}

// InitConst (re)initializes m as a width x height Mat with every weight set to c.
func (m *Mat) InitConst(width, height int, c float64) error {
	if err := checkDims(width, height); err != nil {
		return err
	}
	m.reset(width, height)
	m.SetConst(c)
	return nil
}

// InitFrom (re)initializes m as a width x height Mat holding a copy of values.
func (m *Mat) InitFrom(width, height int, values []float64) error {
	if err := checkDims(width, height); err != nil {
		return err
	}
	if len(values) != width*height {
		return errors.Wrapf(ErrShape, "%d values cannot fill a %dx%d Mat", len(values), width, height)
	}
	m.reset(width, height)
	copy(m.weights, values)
	return nil
}

// Reshaped returns a copy of m's weights laid out as width x height. The number of
// elements must not change. Gradients of the returned Mat are zero.
func (m *Mat) Reshaped(width, height int) (*Mat, error) {
	if err := checkDims(width, height); err != nil {
		return nil, err
	}
	if width*height != m.length {
		return nil, errors.Wrapf(ErrShape, "cannot reshape %dx%d into %dx%d", m.width, m.height, width, height)
	}
	return NewFrom(width, height, m.weights)
}

// reset sets the dimensions and allocates zeroed storage.
func (m *Mat) reset(width, height int) {
	n := width * height
	m.width = width
	m.height = height
	m.length = n
	m.weights = make([]float64, n)
	m.gradients = make([]float64, n)
}

// Clone returns a deep copy of m.
func (m *Mat) Clone() *Mat {
	retVal := new(Mat)
	retVal.CopyFrom(m)
	return retVal
}

// CopyFrom makes m an independent copy of src, dimensions, weights and gradients.
func (m *Mat) CopyFrom(src *Mat) {
	m.width = src.width
	m.height = src.height
	m.length = src.length
	m.weights = append(m.weights[:0:0], src.weights...)
	m.gradients = append(m.gradients[:0:0], src.gradients...)
}

// Width is the number of columns.
func (m *Mat) Width() int { return m.width }

// Height is the number of rows.
func (m *Mat) Height() int { return m.height }

// Len returns the number of elements.
func (m *Mat) Len() int { return m.length }

// Weights returns the backing slice of weights. Writes go through to m.
func (m *Mat) Weights() []float64 { return m.weights }

// Gradients returns the backing slice of gradients. Writes go through to m.
func (m *Mat) Gradients() []float64 { return m.gradients }

// Rows returns one slice per row of the weights, sharing m's storage.
func (m *Mat) Rows() [][]float64 { return rows(m.weights, m.width, m.height) }

// GradientRows returns one slice per row of the gradients, sharing m's storage.
func (m *Mat) GradientRows() [][]float64 { return rows(m.gradients, m.width, m.height) }

func rows(data []float64, width, height int) [][]float64 {
	retVal := make([][]float64, height)
	for i := range retVal {
		start := i * width
		retVal[i] = data[start : start+width : start+width]
	}
	return retVal
}

// Format prints the dimensions and, with the + flag, the weights row by row.
func (m *Mat) Format(s fmt.State, c rune) {
	fmt.Fprintf(s, "Mat %dx%d", m.width, m.height)
	if !s.Flag('+') {
		return
	}
	for _, row := range m.Rows() {
		fmt.Fprint(s, "\n⎢ ")
		for _, v := range row {
			fmt.Fprintf(s, "%v ", v)
		}
		fmt.Fprint(s, "⎥")
	}
}
