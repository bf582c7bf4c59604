package matpool

import (
	"github.com/gorgonia/matpool/mat"
	"github.com/pkg/errors"
)

// OutputEncoder encodes snapshots of tensors, e.g. to watch weights evolve over a
// training run.
//
// An example OutputEncoder is the GIF encoder in encoding/gif.
type OutputEncoder interface {
	Encode(caption string, m *mat.Mat) error
	Flush() error
}

// Record encodes the tensors behind handles, in order, with enc. Each caption is
// suffixed with the handle.
func (p *Pool) Record(enc OutputEncoder, caption string, handles ...Handle) error {
	for _, h := range handles {
		m, err := p.Lookup(h)
		if err != nil {
			return err
		}
		if err = enc.Encode(caption+" "+nodeName(h), m); err != nil {
			return errors.WithMessagef(err, "encoding %v", h)
		}
	}
	return nil
}
