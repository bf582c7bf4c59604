package mat

import (
	"math"
	"math/rand"
	"sync"

	"github.com/pkg/errors"
	rng "github.com/leesper/go_rng"
	"k8s.io/klog/v2"
)

// maxSeed bounds the seeds handed to newly created samplers.
const maxSeed = 1000000000

// sampler draws from N(0, 1/length).
type sampler struct {
	gen *rng.GaussianGenerator
	std float64
}

// Gaussians is a registry of variance scaled Gaussian samplers, one per tensor
// length. A sampler for length n draws from a normal distribution with mean 0 and
// variance 1/n, so that units with many incoming weights do not produce outputs of
// larger variance.
//
// Samplers are created on first use, seeded from the registry's own seed stream, and
// reused thereafter: all tensors of the same length share one stream. A registry
// built from the same seed and asked for lengths in the same order reproduces the
// same values.
//
// A *Gaussians is safe for concurrent use. Lookups and draws are serialized on a
// single lock; initialization is not a hot path.
type Gaussians struct {
	mu       sync.Mutex
	seeds    *rand.Rand
	samplers map[int]*sampler
}

// NewGaussians creates an empty registry whose samplers are seeded from seed.
func NewGaussians(seed int64) *Gaussians {
	return &Gaussians{
		seeds:    rand.New(rand.NewSource(seed)),
		samplers: make(map[int]*sampler),
	}
}

// get must be called with g.mu held.
func (g *Gaussians) get(length int) *sampler {
	if length <= 0 {
		panic(errors.Wrapf(ErrShape, "variance scaled sampler for length %d", length))
	}
	s, ok := g.samplers[length]
	if !ok {
		seed := g.seeds.Int63n(maxSeed)
		s = &sampler{
			gen: rng.NewGaussianGenerator(seed),
			std: math.Sqrt(1 / float64(length)),
		}
		g.samplers[length] = s
		klog.V(3).Infof("mat: new variance scaled sampler for length %d (seed %d)", length, seed)
	}
	return s
}

// Sample returns one draw from N(0, 1/length).
func (g *Gaussians) Sample(length int) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.get(length)
	return s.gen.Gaussian(0, s.std)
}

// Fill fills dst with draws from the sampler for len(dst).
func (g *Gaussians) Fill(dst []float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.get(len(dst))
	for i := range dst {
		dst[i] = s.gen.Gaussian(0, s.std)
	}
}

// Len returns the number of cached samplers.
func (g *Gaussians) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.samplers)
}
