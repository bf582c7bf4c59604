package matpool

import (
	"sync"

	"github.com/gorgonia/matpool/mat"
)

// Scratch recycles temporary tensors by dimension. It belongs to the caller, not to
// a Pool: tensors borrowed from a Scratch and registered with AddTemporary must only
// be returned after the Pool's temporaries are cleared.
type Scratch struct {
	mu    sync.Mutex
	pools map[int]map[int]*sync.Pool
}

func NewScratch() *Scratch {
	return &Scratch{pools: make(map[int]map[int]*sync.Pool)}
}

func (s *Scratch) pool(width, height int) *sync.Pool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.pools[width]
	if !ok {
		d = make(map[int]*sync.Pool)
		s.pools[width] = d
	}
	p, ok := d[height]
	if !ok {
		p = &sync.Pool{
			New: func() interface{} {
				m, err := mat.NewConst(width, height, 0)
				if err != nil {
					panic(err)
				}
				return m
			},
		}
		d[height] = p
	}
	return p
}

// Borrow returns a width x height tensor with zero weights and gradients. It panics
// if the dimensions are not positive.
func (s *Scratch) Borrow(width, height int) *mat.Mat {
	m := s.pool(width, height).Get().(*mat.Mat)
	m.SetConst(0)
	m.ZeroGradients()
	return m
}

// Return hands m back for reuse.
func (s *Scratch) Return(m *mat.Mat) {
	if m == nil || m.Len() == 0 {
		return
	}
	s.pool(m.Width(), m.Height()).Put(m)
}
