package mat

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// NewGaussian creates a width x height Mat with weights drawn from N(mean, std²).
// The draws come from gorgonia's initializer, independent of any *Gaussians registry.
func NewGaussian(width, height int, mean, std float64) (*Mat, error) {
	if err := checkDims(width, height); err != nil {
		return nil, err
	}
	if std < 0 {
		return nil, errors.Errorf("negative standard deviation %v", std)
	}
	raw := G.Gaussian(mean, std)(tensor.Float64, width, height)
	backing, ok := raw.([]float64)
	if !ok {
		return nil, errors.Errorf("gorgonia returned %T for a Float64 initializer", raw)
	}
	retVal := new(Mat)
	retVal.reset(width, height)
	copy(retVal.weights, backing)
	return retVal, nil
}

// Dense wraps the weights as a (height, width) *tensor.Dense. The tensor shares m's
// storage.
func (m *Mat) Dense() (*tensor.Dense, error) { return m.dense(m.weights) }

// GradientDense wraps the gradients as a (height, width) *tensor.Dense sharing m's
// storage.
func (m *Mat) GradientDense() (*tensor.Dense, error) { return m.dense(m.gradients) }

func (m *Mat) dense(backing []float64) (*tensor.Dense, error) {
	if m.length == 0 {
		return nil, errors.Wrapf(ErrShape, "cannot wrap an empty Mat")
	}
	return tensor.New(tensor.WithShape(m.height, m.width), tensor.WithBacking(backing)), nil
}

// Dense32 copies the weights into a (height, width) Float32 *tensor.Dense, for graphs
// built on float32. Finite weights that overflow float32 are an error.
func (m *Mat) Dense32() (*tensor.Dense, error) {
	if m.length == 0 {
		return nil, errors.Wrapf(ErrShape, "cannot wrap an empty Mat")
	}
	backing := make([]float32, m.length)
	for i, v := range m.weights {
		f := float32(v)
		if math32.IsInf(f, 0) && !math.IsInf(v, 0) {
			return nil, errors.Errorf("weight %d (%v) overflows float32", i, v)
		}
		backing[i] = f
	}
	return tensor.New(tensor.WithShape(m.height, m.width), tensor.WithBacking(backing)), nil
}

// FromDense copies a 1-D or 2-D Float64 or Float32 tensor into a new Mat. A vector
// becomes a 1 x n Mat; a matrix with shape (rows, cols) becomes cols x rows.
func FromDense(t *tensor.Dense) (*Mat, error) {
	if t.IsView() {
		return nil, errors.Errorf("views are not supported, materialize the tensor first")
	}
	var width, height int
	switch s := t.Shape(); t.Dims() {
	case 1:
		width, height = 1, s[0]
	case 2:
		width, height = s[1], s[0]
	default:
		return nil, errors.Wrapf(ErrShape, "cannot convert a tensor of shape %v", s)
	}

	var values []float64
	switch data := t.Data().(type) {
	case []float64:
		values = data
	case []float32:
		values = make([]float64, len(data))
		for i, v := range data {
			values[i] = float64(v)
		}
	default:
		return nil, errors.Errorf("unsupported dtype %v", t.Dtype())
	}
	if width == 1 {
		return NewVector(values), nil
	}
	return NewFrom(width, height, values)
}
