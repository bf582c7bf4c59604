package matpool

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// Stats summarizes the storage held by a Pool.
type Stats struct {
	Persistent int
	Temporary  int
	Inputs     int
	Elements   int    // persistent elements
	Bytes      uint64 // persistent weights and gradients
}

func (s Stats) String() string {
	return fmt.Sprintf("%d persistent tensors (%s elements, %s), %d temporaries, %d inputs",
		s.Persistent, humanize.Comma(int64(s.Elements)), humanize.Bytes(s.Bytes), s.Temporary, s.Inputs)
}

// Stats returns a summary of the pool.
func (p *Pool) Stats() Stats {
	persistent, temporary, inputs, _ := p.snapshot()
	s := Stats{
		Persistent: len(persistent),
		Temporary:  len(temporary),
		Inputs:     len(inputs),
	}
	for _, m := range persistent {
		s.Elements += m.Len()
	}
	s.Bytes = uint64(s.Elements) * 2 * 8
	return s
}

// Dump writes one CSV record per persistent tensor into filename: its handle,
// dimensions and the L2 norms of its weights and gradients.
func (p *Pool) Dump(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	persistent, _, _, _ := p.snapshot()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"handle", "width", "height", "weights", "gradients"}); err != nil {
		return errors.WithStack(err)
	}
	records := make([][]string, 0, len(persistent))
	for i, m := range persistent {
		records = append(records, []string{
			strconv.Itoa(i),
			strconv.Itoa(m.Width()),
			strconv.Itoa(m.Height()),
			strconv.FormatFloat(norm(m.Weights()), 'g', -1, 64),
			strconv.FormatFloat(norm(m.Gradients()), 'g', -1, 64),
		})
	}
	// WriteAll flushes
	if err := w.WriteAll(records); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(f.Close())
}

func norm(a []float64) float64 {
	var sum float64
	for _, v := range a {
		sum += v * v
	}
	return math.Sqrt(sum)
}
