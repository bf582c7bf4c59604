// Package gif renders snapshots of tensors as the frames of an animated GIF. Each
// weight becomes a square of grey, darker for smaller values, with a caption below.
package gif

import (
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"math"

	"github.com/golang/freetype/truetype"
	"github.com/gorgonia/matpool/mat"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
	"gorgonia.org/vecf32"
)

var regular *truetype.Font

const (
	dpi        = 72.0
	fontsize   = 12.0
	lineheight = 1.2
)

func init() {
	var err error
	if regular, err = truetype.Parse(gomono.TTF); err != nil {
		panic(err)
	}
}

// greys is the palette of every frame: index 0 is black, 255 is white.
var greys = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.Gray{uint8(i)}
	}
	return p
}()

// Encoder is a structure that encodes tensors according to the matpool.OutputEncoder interface
type Encoder struct {
	Scale int // pixels per element
	Delay int // per frame, in 100ths of a second
	font.Drawer

	out *gif.GIF
	io.Writer
	face font.Face
	pad  int
}

// NewEncoder creates an Encoder writing into w on Flush.
func NewEncoder(w io.Writer, scale int) *Encoder {
	if scale < 1 {
		scale = 1
	}
	face := truetype.NewFace(regular, &truetype.Options{
		Size:    fontsize,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	return &Encoder{
		Scale:  scale,
		Delay:  50,
		Writer: w,
		Drawer: font.Drawer{
			Src:  image.Black,
			Face: face,
		},
		out:  &gif.GIF{LoopCount: 0},
		face: face,
		pad:  4,
	}
}

// Frames returns the number of frames encoded so far.
func (enc *Encoder) Frames() int { return len(enc.out.Image) }

// Encode adds a frame showing the weights of m.
func (enc *Encoder) Encode(caption string, m *mat.Mat) error {
	if m.Len() == 0 {
		return errors.Errorf("cannot encode an empty Mat")
	}
	dy := int(math.Ceil(fontsize * lineheight * dpi / 72))
	mapW, mapH := m.Width()*enc.Scale, m.Height()*enc.Scale
	w := maxInt(mapW, font.MeasureString(enc.face, caption).Ceil()) + 2*enc.pad
	h := mapH + dy + 2*enc.pad

	im := image.NewPaletted(image.Rect(0, 0, w, h), greys)
	draw.Draw(im, im.Bounds(), image.White, image.Point{}, draw.Src)

	levels := shades(m.Weights())
	for y, row := range m.Rows() {
		for x := range row {
			c := image.NewUniform(greys[levels[y*m.Width()+x]])
			x0, y0 := enc.pad+x*enc.Scale, enc.pad+y*enc.Scale
			draw.Draw(im, image.Rect(x0, y0, x0+enc.Scale, y0+enc.Scale), c, image.Point{}, draw.Src)
		}
	}

	enc.Dst = im
	enc.Dot = fixed.P(enc.pad, enc.pad+mapH+dy)
	enc.DrawString(caption)

	enc.out.Image = append(enc.out.Image, im)
	enc.out.Delay = append(enc.out.Delay, enc.Delay)
	return nil
}

// Flush writes the gif into the writer
func (enc *Encoder) Flush() error {
	if len(enc.out.Image) == 0 {
		return errors.Errorf("no frames to write")
	}
	var w, h int
	for _, im := range enc.out.Image {
		w = maxInt(w, im.Bounds().Dx())
		h = maxInt(h, im.Bounds().Dy())
	}
	enc.out.Config = image.Config{ColorModel: greys, Width: w, Height: h}
	return errors.WithStack(gif.EncodeAll(enc.Writer, enc.out))
}

// shades maps weights linearly onto palette indices, the smallest weight to 0 and
// the largest to 255. Constant or non finite inputs map to the middle grey.
func shades(weights []float64) []uint8 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range weights {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	retVal := make([]uint8, len(weights))
	span := hi - lo
	if !(span > 0) || math.IsInf(span, 0) {
		for i := range retVal {
			retVal[i] = 128
		}
		return retVal
	}

	buf := make([]float32, len(weights))
	for i, v := range weights {
		switch {
		case math.IsNaN(v):
			buf[i] = float32(span / 2)
		case v < lo:
			buf[i] = 0
		case v > hi:
			buf[i] = float32(span)
		default:
			buf[i] = float32(v - lo)
		}
	}
	vecf32.Scale(buf, float32(255/span))
	for i, v := range buf {
		retVal[i] = uint8(math.Min(255, math.Max(0, math.Round(float64(v)))))
	}
	return retVal
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
