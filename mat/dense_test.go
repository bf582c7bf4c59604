package mat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func TestDense(t *testing.T) {
	assert := assert.New(t)
	m, err := NewFrom(3, 2, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	d, err := m.Dense()
	require.NoError(t, err)
	assert.Equal(tensor.Shape{2, 3}, d.Shape())
	v, err := d.At(1, 2)
	require.NoError(t, err)
	assert.Equal(m.Get(2, 1), v)

	// shared storage
	require.NoError(t, d.SetAt(100.0, 0, 1))
	assert.Equal(100.0, m.Get(1, 0))

	g, err := m.GradientDense()
	require.NoError(t, err)
	require.NoError(t, g.SetAt(7.0, 1, 0))
	assert.Equal(7.0, m.Gradient(0, 1))

	var empty Mat
	_, err = empty.Dense()
	assert.ErrorIs(err, ErrShape)
}

func TestDense32(t *testing.T) {
	m := vec(1.5, -2, math.Inf(1))
	d, err := m.Dense32()
	require.NoError(t, err)
	assert.Equal(t, tensor.Float32, d.Dtype())
	assert.Equal(t, []float32{1.5, -2, float32(math.Inf(1))}, d.Data())

	_, err = vec(math.MaxFloat64).Dense32()
	assert.Error(t, err)
}

func TestFromDense(t *testing.T) {
	d := tensor.New(tensor.WithShape(2, 3), tensor.WithBacking([]float64{1, 2, 3, 4, 5, 6}))
	m, err := FromDense(d)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Width())
	assert.Equal(t, 2, m.Height())
	assert.Equal(t, 4.0, m.Get(0, 1))

	// copied, not shared
	m.SetAt(0, 10)
	v, _ := d.At(0, 0)
	assert.Equal(t, 1.0, v)

	f := tensor.New(tensor.WithShape(3), tensor.WithBacking([]float32{0.5, 1, 2}))
	m, err = FromDense(f)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Width())
	assert.Equal(t, []float64{0.5, 1, 2}, m.Weights())

	_, err = FromDense(tensor.New(tensor.WithShape(1, 2, 2), tensor.WithBacking([]float64{1, 2, 3, 4})))
	assert.ErrorIs(t, err, ErrShape)

	_, err = FromDense(tensor.New(tensor.WithShape(2), tensor.WithBacking([]int{1, 2})))
	assert.Error(t, err)

	// round trip through a view of the weights
	back, err := m.Dense()
	require.NoError(t, err)
	m2, err := FromDense(back)
	require.NoError(t, err)
	assert.Equal(t, m.Weights(), m2.Weights())
}

func TestNewGaussian(t *testing.T) {
	m, err := NewGaussian(50, 40, 3, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 2000, m.Len())
	var sum float64
	for _, v := range m.Weights() {
		sum += v
	}
	assert.InDelta(t, 3, sum/float64(m.Len()), 0.1)
	assert.Equal(t, make([]float64, 2000), m.Gradients())

	_, err = NewGaussian(0, 1, 0, 1)
	assert.ErrorIs(t, err, ErrShape)
	_, err = NewGaussian(1, 1, 0, -1)
	assert.Error(t, err)
}
