package matpool

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/gorgonia/matpool/mat"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// checkpoint is the gob form of a Pool. Temporaries are never saved.
type checkpoint struct {
	Name   string
	Mats   []*mat.Mat
	Inputs []int
}

// Save writes every persistent tensor and the input index to w.
func (p *Pool) Save(w io.Writer) error {
	persistent, _, inputs, _ := p.snapshot()
	c := checkpoint{
		Name:   p.Name,
		Mats:   persistent,
		Inputs: make([]int, len(inputs)),
	}
	for i, h := range inputs {
		c.Inputs[i] = h.Int()
	}
	return errors.WithStack(gob.NewEncoder(w).Encode(c))
}

// Load replaces the persistent tensors and the input index with the ones read from
// r, and clears the temporaries. On error the pool is unchanged.
func (p *Pool) Load(r io.Reader) error {
	var c checkpoint
	if err := gob.NewDecoder(r).Decode(&c); err != nil {
		return errors.WithStack(err)
	}
	inputs := make([]Handle, len(c.Inputs))
	for i, v := range c.Inputs {
		h, err := ParseHandle(v)
		if err != nil {
			return errors.WithMessagef(err, "input slot %d", i)
		}
		if !h.IsPersistent() || h.index >= len(c.Mats) {
			return errors.Wrapf(ErrInvalidHandle, "input slot %d refers to %v, checkpoint holds %d tensors", i, h, len(c.Mats))
		}
		inputs[i] = h
	}
	for i, m := range c.Mats {
		if m == nil {
			return errors.Errorf("checkpoint tensor %d is missing", i)
		}
	}
	if c.Name != p.Name {
		klog.Warningf("%s: loading a checkpoint saved by %q", p.Name, c.Name)
	}

	p.mu.Lock()
	p.persistent = c.Mats
	p.inputs = inputs
	for i := range p.temporary {
		p.temporary[i] = nil
	}
	p.temporary = p.temporary[:0]
	p.epoch++
	p.mu.Unlock()
	klog.V(1).Infof("%s: loaded %d persistent tensors and %d inputs", p.Name, len(c.Mats), len(inputs))
	return nil
}

// SaveFile saves the pool into filename.
func (p *Pool) SaveFile(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	if err = p.Save(f); err != nil {
		f.Close()
		return err
	}
	return errors.WithStack(f.Close())
}

// LoadFile loads the pool from filename.
func (p *Pool) LoadFile(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	return p.Load(f)
}
