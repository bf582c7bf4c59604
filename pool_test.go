package matpool

import (
	"sync"
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/gorgonia/matpool/mat"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wantPanic asserts that fn panics with an error wrapping target.
func wantPanic(t *testing.T, target error, fn func()) {
	t.Helper()
	err := exceptions.TryCatch[error](fn)
	if assert.Error(t, err, "expected a panic") {
		assert.ErrorIs(t, err, target)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	conf := DefaultConfig()
	conf.Capacity = -1
	assert.Panics(t, func() { New(conf) })
	assert.True(t, DefaultConfig().IsValid())
}

func TestPersistent(t *testing.T) {
	assert := assert.New(t)
	p := New(DefaultConfig())

	a, err := p.NewConst(3, 2, 0.5)
	require.NoError(t, err)
	b, err := p.NewVarianceScaled(4, 4)
	require.NoError(t, err)
	c, err := p.NewRandom(2, 5, 1, 0.1)
	require.NoError(t, err)
	e := p.NewPersistent()

	assert.Equal(0, a.Int())
	assert.Equal(1, b.Int())
	assert.Equal(2, c.Int())
	assert.Equal(3, e.Int())
	assert.Equal(4, p.Len())
	assert.Equal([]Handle{a, b, c, e}, p.Handles())

	assert.Equal(0.5, p.Get(a).Get(2, 1))
	assert.Equal(16, p.Get(b).Len())
	assert.Equal(2, p.Get(c).Width())
	assert.Equal(5, p.Get(c).Height())

	// empty tensors are initialized by the caller
	assert.Zero(p.Get(e).Len())
	require.NoError(t, p.Get(e).InitConst(2, 2, 1))
	assert.Equal(4, p.Get(e).Len())

	// resolution returns the same tensor every time
	p.Get(a).Set(0, 0, 9)
	assert.Equal(9.0, p.Get(a).Get(0, 0))

	_, err = p.NewConst(0, 2, 1)
	assert.ErrorIs(err, mat.ErrShape)
	assert.Equal(4, p.Len(), "failed creation must not take a slot")
}

func TestVarianceScaledUsesRegistry(t *testing.T) {
	conf := DefaultConfig()
	conf.Random = mat.NewGaussians(99)
	p := New(conf)
	assert.Same(t, conf.Random, p.Gaussians())

	h, err := p.NewVarianceScaled(2, 3)
	require.NoError(t, err)

	want := make([]float64, 6)
	mat.NewGaussians(99).Fill(want)
	assert.Equal(t, want, p.Get(h).Weights())
}

func TestAdopt(t *testing.T) {
	p := New(DefaultConfig())
	m := mat.NewVector([]float64{1, 2})
	h := p.Adopt(m)
	assert.Same(t, m, p.Get(h))
	wantPanic(t, ErrInvalidHandle, func() { p.Adopt(nil) })
}

func TestTemporaries(t *testing.T) {
	assert := assert.New(t)
	p := New(DefaultConfig())
	persistent, err := p.NewConst(1, 1, 1)
	require.NoError(t, err)

	x := mat.NewVector([]float64{1, 2, 3})
	y := mat.NewVector([]float64{4})
	hx := p.AddTemporary(x)
	hy := p.AddTemporary(y)
	assert.Equal(-2, hx.Int())
	assert.Equal(-3, hy.Int())
	assert.True(hx.IsTemporary())
	assert.Equal(2, p.Temporaries())

	assert.Same(x, p.Get(hx))
	assert.Same(y, p.Get(hy))

	// borrowed, not copied
	x.SetAt(0, 10)
	assert.Equal(10.0, p.Get(hx).At(0))

	p.ClearTemporaries()
	assert.Zero(p.Temporaries())
	assert.Equal(1, p.Len(), "persistent tensors survive a clear")
	assert.Equal(1.0, p.Get(persistent).At(0))

	// new temporaries reuse slot indices but old handles stay stale
	hz := p.AddTemporary(mat.NewVector([]float64{0}))
	assert.Equal(hx.Int(), hz.Int())
	wantPanic(t, ErrStaleHandle, func() { p.Get(hx) })
	assert.NotPanics(func() { p.Get(hz) })

	wantPanic(t, ErrInvalidHandle, func() { p.AddTemporary(nil) })
}

func TestGet_Invalid(t *testing.T) {
	p := New(DefaultConfig())
	_, err := p.NewConst(1, 1, 0)
	require.NoError(t, err)

	invalid, err := ParseHandle(-1)
	require.NoError(t, err)
	wantPanic(t, ErrInvalidHandle, func() { p.Get(invalid) })
	wantPanic(t, ErrInvalidHandle, func() { p.Get(NilHandle) })
	wantPanic(t, ErrInvalidHandle, func() { p.Get(Handle{kind: Persistent, index: 1}) })
	wantPanic(t, ErrInvalidHandle, func() { p.Get(Handle{kind: Temporary, index: 0}) })

	_, err = p.Lookup(NilHandle)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestInputs(t *testing.T) {
	p := New(DefaultConfig())
	a, err := p.NewConst(1, 4, 0)
	require.NoError(t, err)
	b, err := p.NewConst(1, 4, 1)
	require.NoError(t, err)

	slot, err := p.AddInput(b)
	require.NoError(t, err)
	assert.Equal(t, 0, slot)
	slot, err = p.AddInput(a)
	require.NoError(t, err)
	assert.Equal(t, 1, slot)
	assert.Equal(t, b, p.Input(0))
	assert.Equal(t, a, p.Input(1))
	assert.Equal(t, 1.0, p.Get(p.Input(0)).At(3))

	require.NoError(t, p.SetInputs(a, a, b))
	assert.Equal(t, 3, p.Inputs())
	assert.Equal(t, b, p.Input(2))

	tmp := p.AddTemporary(mat.NewVector([]float64{1}))
	_, err = p.AddInput(tmp)
	assert.ErrorIs(t, err, ErrInvalidHandle, "inputs must be persistent")
	assert.ErrorIs(t, p.SetInputs(a, NilHandle), ErrInvalidHandle)
	assert.Equal(t, 3, p.Inputs(), "a failed SetInputs keeps the old index")

	wantPanic(t, ErrIndex, func() { p.Input(3) })
	wantPanic(t, ErrIndex, func() { p.Input(-1) })
}

func TestConcurrentCreate(t *testing.T) {
	const N = 200
	p := New(DefaultConfig())
	handles := make([]Handle, N)
	var wg sync.WaitGroup
	for i := 0; i < N; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				handles[i], err = p.NewConst(2, 2, float64(i))
			} else {
				handles[i], err = p.NewVarianceScaled(2, 2)
			}
			if err != nil {
				panic(err)
			}
			p.AddTemporary(mat.NewVector([]float64{float64(i)}))
		}(i)
	}
	wg.Wait()

	seen := make([]bool, N)
	for i, h := range handles {
		require.True(t, h.IsPersistent())
		require.False(t, seen[h.Index()], "duplicate handle %v", h)
		seen[h.Index()] = true
		if i%2 == 0 {
			assert.Equal(t, float64(i), p.Get(h).At(0))
		}
	}
	for i, ok := range seen {
		assert.True(t, ok, "lost index %d", i)
	}
	assert.Equal(t, N, p.Len())
	assert.Equal(t, N, p.Temporaries())
}

func TestConcurrentGradients(t *testing.T) {
	// goroutine local accumulation, merged afterwards
	p := New(DefaultConfig())
	h, err := p.NewConst(3, 1, 0)
	require.NoError(t, err)

	const workers = 8
	locals := make([]*mat.Mat, workers)
	var wg sync.WaitGroup
	for i := range locals {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			local, err := mat.NewConst(3, 1, 0)
			if err != nil {
				panic(err)
			}
			for j := 0; j < 100; j++ {
				local.AddGradientAt(j%3, 1)
			}
			locals[i] = local
			p.Get(h) // concurrent resolution is fine
		}(i)
	}
	wg.Wait()

	w := p.Get(h)
	for _, l := range locals {
		w.AddGradientFrom(l)
	}
	assert.Equal(t, []float64{34 * workers, 33 * workers, 33 * workers}, w.Gradients())

	p.ZeroGradients()
	assert.Equal(t, []float64{0, 0, 0}, w.Gradients())
}

func TestStep(t *testing.T) {
	p := New(DefaultConfig())
	h, err := p.NewConst(2, 1, 1)
	require.NoError(t, err)

	var tmp Handle
	err = p.Step(func() error {
		tmp = p.AddTemporary(mat.NewVector([]float64{1, 1}))
		p.Get(h).AddFrom(p.Get(tmp))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2}, p.Get(h).Weights())
	assert.Zero(t, p.Temporaries())
	wantPanic(t, ErrStaleHandle, func() { p.Get(tmp) })

	// precondition violations come back as errors
	err = p.Step(func() error {
		p.Get(h).AddFrom(p.Get(p.AddTemporary(mat.NewVector([]float64{1}))))
		return nil
	})
	assert.ErrorIs(t, err, mat.ErrShape)
	assert.Zero(t, p.Temporaries())

	err = p.Step(func() error {
		p.Get(NilHandle)
		return nil
	})
	assert.ErrorIs(t, err, ErrInvalidHandle)

	boom := errors.New("boom")
	err = p.Step(func() error { return boom })
	assert.Equal(t, boom, err)
}
