package matpool

import "github.com/gorgonia/matpool/mat"

// Config configures a Pool.
type Config struct {
	Name string
	Seed int64 // seeds the variance scaled initializer when Random is nil

	Capacity     int // expected number of persistent tensors
	TempCapacity int // expected number of temporaries per step

	// Random is the variance scaled initializer used by NewVarianceScaled. Pools may
	// share one. If nil, one is created from Seed.
	Random *mat.Gaussians
}

// DefaultConfig returns a Config suitable for small graphs.
func DefaultConfig() Config {
	return Config{
		Name:         "matpool",
		Seed:         1337,
		Capacity:     64,
		TempCapacity: 256,
	}
}

// IsValid reports whether the capacities are non-negative.
func (c Config) IsValid() bool {
	return c.Capacity >= 0 &&
		c.TempCapacity >= 0
}
