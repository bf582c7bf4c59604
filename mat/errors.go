package mat

import (
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrShape is returned (or panicked with) when dimensions are non-positive or lengths disagree.
	ErrShape = errors.New("mat: bad shape")

	// ErrIndex is panicked with on out of range access.
	ErrIndex = errors.New("mat: index out of range")

	// ErrNilSampler is returned when a Gaussian initialized Mat is requested without a registry.
	ErrNilSampler = errors.New("mat: nil *Gaussians")

	// ErrMissingField is returned when a Record lacks a required field.
	ErrMissingField = errors.New("mat: missing field")

	// ErrField is returned when a Record field has the wrong type or size.
	ErrField = errors.New("mat: malformed field")
)

// MaxLen is the largest number of elements a Mat may hold.
const MaxLen = math.MaxInt32

// checkedLen returns width*height. It fails if either is negative or if the product
// overflows or exceeds MaxLen.
func checkedLen(width, height int) (int, error) {
	if width < 0 || height < 0 {
		return 0, errors.Wrapf(ErrShape, "negative dimensions %dx%d", width, height)
	}
	if width != 0 && height > MaxLen/width {
		return 0, errors.Wrapf(ErrShape, "%dx%d exceeds %d elements", width, height, MaxLen)
	}
	return width * height, nil
}

func checkDims(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.Wrapf(ErrShape, "dimensions must be positive, got %dx%d", width, height)
	}
	_, err := checkedLen(width, height)
	return err
}

func checkLen(op string, a, b int) {
	if a != b {
		panic(errors.Wrapf(ErrShape, "%s: length %d vs %d", op, a, b))
	}
}
