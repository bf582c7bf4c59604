package matpool

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorgonia/matpool/mat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filledPool(t *testing.T) *Pool {
	t.Helper()
	p := New(DefaultConfig())
	a, err := p.NewVarianceScaled(3, 2)
	require.NoError(t, err)
	b, err := p.NewConst(1, 4, 0.25)
	require.NoError(t, err)
	p.Get(a).SetGradientAt(1, -0.5)
	require.NoError(t, p.SetInputs(b, a))
	return p
}

func equalMats(t *testing.T, want, got *mat.Mat) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(mat.Mat{})); diff != "" {
		t.Errorf("tensors differ (-want +got):\n%s", diff)
	}
}

func TestCheckpoint(t *testing.T) {
	src := filledPool(t)
	var buf bytes.Buffer
	require.NoError(t, src.Save(&buf))

	dst := New(DefaultConfig())
	_, err := dst.NewConst(9, 9, 9)
	require.NoError(t, err)
	stale := dst.AddTemporary(mat.NewVector([]float64{1}))

	require.NoError(t, dst.Load(&buf))
	assert.Equal(t, 2, dst.Len())
	assert.Zero(t, dst.Temporaries())
	assert.Equal(t, 2, dst.Inputs())
	assert.Equal(t, src.Input(0), dst.Input(0))
	assert.Equal(t, src.Input(1), dst.Input(1))
	for _, h := range src.Handles() {
		equalMats(t, src.Get(h), dst.Get(h))
	}
	wantPanic(t, ErrStaleHandle, func() { dst.Get(stale) })

	// loaded tensors are independent of the saved ones
	src.Get(src.Input(0)).SetAt(0, 100)
	assert.Equal(t, 0.25, dst.Get(dst.Input(0)).At(0))
}

func TestCheckpoint_Errors(t *testing.T) {
	p := filledPool(t)
	before := p.Stats()

	assert.Error(t, p.Load(bytes.NewBufferString("not a checkpoint")))

	var buf bytes.Buffer
	bad := New(DefaultConfig())
	_, err := bad.NewConst(1, 1, 0)
	require.NoError(t, err)
	bad.inputs = []Handle{{kind: Persistent, index: 5}}
	require.NoError(t, bad.Save(&buf))
	assert.ErrorIs(t, p.Load(&buf), ErrInvalidHandle)

	assert.Equal(t, before, p.Stats(), "a failed load leaves the pool unchanged")
}

func TestCheckpointFile(t *testing.T) {
	src := filledPool(t)
	filename := filepath.Join(t.TempDir(), "pool.gob")
	require.NoError(t, src.SaveFile(filename))

	dst := New(DefaultConfig())
	require.NoError(t, dst.LoadFile(filename))
	assert.Equal(t, src.Stats(), dst.Stats())

	assert.Error(t, dst.LoadFile(filepath.Join(t.TempDir(), "missing.gob")))
}
