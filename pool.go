// Package matpool is a handle based arena of tensors shared across a computation
// graph: long lived persistent tensors owned by the pool, and short lived
// temporaries borrowed from the caller for one processing step.
package matpool

import (
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/gorgonia/matpool/mat"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	// ErrInvalidHandle is returned (or panicked with) when an Invalid or unknown handle is resolved.
	ErrInvalidHandle = errors.New("matpool: invalid handle")

	// ErrStaleHandle is returned (or panicked with) when a temporary handle is resolved after ClearTemporaries.
	ErrStaleHandle = errors.New("matpool: stale temporary handle")

	// ErrIndex is panicked with when an input slot is out of range.
	ErrIndex = errors.New("matpool: slot out of range")
)

// Pool is an arena of tensors addressed by handles. It owns persistent tensors for
// its whole lifetime and borrows temporary tensors, typically the intermediates of
// one graph evaluation, until ClearTemporaries.
//
// Structural changes (creating, registering, clearing) are serialized on one lock,
// held only for the change itself. The contents of a resolved *mat.Mat are not
// synchronized by the Pool: a tensor should be written by at most one goroutine per
// step, e.g. by accumulating into goroutine local gradients and merging them with
// AddGradientFrom.
type Pool struct {
	mu sync.RWMutex
	Config
	random *mat.Gaussians

	// memory related fields
	persistent []*mat.Mat
	temporary  []*mat.Mat
	epoch      uint32 // bumped by ClearTemporaries

	inputs []Handle // input slot -> persistent handle
}

// New creates an empty Pool. It panics if the config is not valid.
func New(conf Config) *Pool {
	if !conf.IsValid() {
		panic("matpool: Config is not valid. Unable to proceed")
	}
	random := conf.Random
	if random == nil {
		random = mat.NewGaussians(conf.Seed)
	}
	return &Pool{
		Config:     conf,
		random:     random,
		persistent: make([]*mat.Mat, 0, conf.Capacity),
		temporary:  make([]*mat.Mat, 0, conf.TempCapacity),
	}
}

// Gaussians returns the variance scaled initializer used by the pool.
func (p *Pool) Gaussians() *mat.Gaussians { return p.random }

func (p *Pool) add(m *mat.Mat) Handle {
	p.mu.Lock()
	h := Handle{kind: Persistent, index: len(p.persistent)}
	p.persistent = append(p.persistent, m)
	p.mu.Unlock()
	klog.V(2).Infof("%s: new persistent %v (%dx%d)", p.Name, h, m.Width(), m.Height())
	return h
}

// NewConst creates a persistent width x height tensor filled with c.
func (p *Pool) NewConst(width, height int, c float64) (Handle, error) {
	m, err := mat.NewConst(width, height, c)
	if err != nil {
		return NilHandle, err
	}
	return p.add(m), nil
}

// NewPersistent creates an empty persistent tensor, to be initialized in place
// through Get(h).Init* by the caller.
func (p *Pool) NewPersistent() Handle { return p.add(new(mat.Mat)) }

// NewVarianceScaled creates a persistent width x height tensor with weights drawn
// from the pool's variance scaled initializer.
func (p *Pool) NewVarianceScaled(width, height int) (Handle, error) {
	m, err := mat.New(width, height, p.random)
	if err != nil {
		return NilHandle, err
	}
	return p.add(m), nil
}

// NewRandom creates a persistent n x d tensor with weights drawn from N(mean, std²),
// independent of the variance scaled initializer.
func (p *Pool) NewRandom(n, d int, mean, std float64) (Handle, error) {
	m, err := mat.NewGaussian(n, d, mean, std)
	if err != nil {
		return NilHandle, err
	}
	return p.add(m), nil
}

// Adopt hands m to the pool as a persistent tensor. The caller must not keep using
// m other than through the returned handle.
func (p *Pool) Adopt(m *mat.Mat) Handle {
	if m == nil {
		panic(errors.Wrap(ErrInvalidHandle, "cannot adopt a nil *mat.Mat"))
	}
	return p.add(m)
}

// AddTemporary registers a tensor owned by the caller and returns a temporary
// handle to it. The tensor must stay valid until the next ClearTemporaries.
func (p *Pool) AddTemporary(m *mat.Mat) Handle {
	if m == nil {
		panic(errors.Wrap(ErrInvalidHandle, "cannot register a nil temporary"))
	}
	p.mu.Lock()
	h := Handle{kind: Temporary, index: len(p.temporary), epoch: p.epoch}
	p.temporary = append(p.temporary, m)
	p.mu.Unlock()
	return h
}

// ClearTemporaries forgets every temporary. Handles issued before the call become
// stale.
func (p *Pool) ClearTemporaries() {
	p.mu.Lock()
	for i := range p.temporary {
		p.temporary[i] = nil
	}
	n := len(p.temporary)
	p.temporary = p.temporary[:0]
	p.epoch++
	p.mu.Unlock()
	klog.V(2).Infof("%s: cleared %d temporaries, epoch %d", p.Name, n, p.epoch)
}

// Lookup resolves h.
func (p *Pool) Lookup(h Handle) (*mat.Mat, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch h.kind {
	case Persistent:
		if h.index < 0 || h.index >= len(p.persistent) {
			return nil, errors.Wrapf(ErrInvalidHandle, "%v: only %d persistent tensors", h, len(p.persistent))
		}
		return p.persistent[h.index], nil
	case Temporary:
		if h.epoch != p.epoch {
			return nil, errors.Wrapf(ErrStaleHandle, "%v: temporaries were cleared, epoch is %d", h, p.epoch)
		}
		if h.index < 0 || h.index >= len(p.temporary) {
			return nil, errors.Wrapf(ErrInvalidHandle, "%v: only %d temporaries", h, len(p.temporary))
		}
		return p.temporary[h.index], nil
	}
	return nil, errors.WithStack(ErrInvalidHandle)
}

// Get resolves h. It panics if h is Invalid, out of range or stale.
func (p *Pool) Get(h Handle) *mat.Mat {
	m, err := p.Lookup(h)
	if err != nil {
		panic(err)
	}
	return m
}

func (p *Pool) checkInput(h Handle) error {
	if !h.IsPersistent() || h.index >= len(p.persistent) {
		return errors.Wrapf(ErrInvalidHandle, "input %v is not a persistent tensor of this pool", h)
	}
	return nil
}

// AddInput appends h to the input index and returns its slot.
func (p *Pool) AddInput(h Handle) (slot int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err = p.checkInput(h); err != nil {
		return -1, err
	}
	p.inputs = append(p.inputs, h)
	return len(p.inputs) - 1, nil
}

// SetInputs replaces the input index with hs, slot i being hs[i].
func (p *Pool) SetInputs(hs ...Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, h := range hs {
		if err := p.checkInput(h); err != nil {
			return err
		}
	}
	p.inputs = append(p.inputs[:0:0], hs...)
	return nil
}

// Input returns the handle backing input slot. It panics if slot is out of range.
func (p *Pool) Input(slot int) Handle {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if slot < 0 || slot >= len(p.inputs) {
		panic(errors.Wrapf(ErrIndex, "input slot %d of %d", slot, len(p.inputs)))
	}
	return p.inputs[slot]
}

// Inputs returns the number of input slots.
func (p *Pool) Inputs() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.inputs)
}

// Len returns the number of persistent tensors.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.persistent)
}

// Temporaries returns the number of temporaries registered since the last clear.
func (p *Pool) Temporaries() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.temporary)
}

// Handles returns the handles of every persistent tensor, in creation order.
func (p *Pool) Handles() []Handle {
	p.mu.RLock()
	defer p.mu.RUnlock()
	retVal := make([]Handle, len(p.persistent))
	for i := range retVal {
		retVal[i] = Handle{kind: Persistent, index: i}
	}
	return retVal
}

// ZeroGradients zeroes the gradients of every persistent tensor.
func (p *Pool) ZeroGradients() {
	persistent, _, _, _ := p.snapshot()
	for _, m := range persistent {
		m.ZeroGradients()
	}
}

// Step runs fn as one processing step. Temporaries are cleared when fn returns.
// Precondition violations raised inside fn as panics (bad handles, out of range
// access, mismatched shapes) are returned as errors.
func (p *Pool) Step(fn func() error) (err error) {
	defer p.ClearTemporaries()
	if caught := exceptions.TryCatch[error](func() { err = fn() }); caught != nil {
		return caught
	}
	return err
}

// snapshot copies the slot tables and the epoch of the temporaries under one lock.
func (p *Pool) snapshot() (persistent, temporary []*mat.Mat, inputs []Handle, epoch uint32) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	persistent = append([]*mat.Mat(nil), p.persistent...)
	temporary = append([]*mat.Mat(nil), p.temporary...)
	inputs = append([]Handle(nil), p.inputs...)
	epoch = p.epoch
	return
}
