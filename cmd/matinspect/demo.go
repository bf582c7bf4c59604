package main

import (
	"github.com/gorgonia/matpool"
	"github.com/gorgonia/matpool/mat"
)

// demo is a single linear layer, out = w·x + b, fitted to a constant target by
// gradient descent on the squared error. Its intermediates are pool temporaries.
type demo struct {
	p       *matpool.Pool
	scratch *matpool.Scratch

	w, b, target matpool.Handle
}

func newDemo(p *matpool.Pool) (*demo, error) {
	const in, out = 4, 3
	d := &demo{p: p, scratch: matpool.NewScratch()}
	var err error
	if d.w, err = p.NewVarianceScaled(in, out); err != nil {
		return nil, err
	}
	if d.b, err = p.NewConst(1, out, 0); err != nil {
		return nil, err
	}
	if d.target, err = p.NewConst(1, out, 0.5); err != nil {
		return nil, err
	}
	x, err := p.NewRandom(1, in, 0, 1)
	if err != nil {
		return nil, err
	}
	if err = p.SetInputs(x); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *demo) step(lr float64) (loss float64, err error) {
	w, b, target := d.p.Get(d.w), d.p.Get(d.b), d.p.Get(d.target)
	out := d.scratch.Borrow(1, w.Height())
	defer d.scratch.Return(out)

	err = d.p.Step(func() error {
		y := d.p.Get(d.p.AddTemporary(out))
		x := d.p.Get(d.p.Input(0))

		// forward
		y.AddFrom(b)
		for r := 0; r < w.Height(); r++ {
			for c := 0; c < w.Width(); c++ {
				y.AddAt(r, w.Get(c, r)*x.At(c))
			}
		}

		// backward
		for r := 0; r < y.Len(); r++ {
			diff := y.At(r) - target.At(r)
			loss += 0.5 * diff * diff
			y.SetGradientAt(r, diff)
		}
		b.AddGradientFrom(y)
		for r := 0; r < w.Height(); r++ {
			for c := 0; c < w.Width(); c++ {
				w.AddGradient(c, r, y.GradientAt(r)*x.At(c))
			}
		}

		// update
		for _, m := range []*mat.Mat{w, b} {
			for i := 0; i < m.Len(); i++ {
				m.AddAt(i, -lr*m.GradientAt(i))
			}
		}
		d.p.ZeroGradients()
		return nil
	})
	return loss, err
}
