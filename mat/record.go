package mat

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"math"

	"github.com/pkg/errors"
)

// Record field names.
const (
	FieldWidth     = "sx"
	FieldHeight    = "sy"
	FieldWeights   = "w"
	FieldGradients = "dw"
)

// Record is the serialized form of a Mat:
//
//	{sx: width, sy: height, w: [weights...], dw: [gradients...]}
//
// with both arrays flat and row major. dw is optional when loading.
type Record map[string]interface{}

// Store returns m's state as a Record. The arrays are copies.
func (m *Mat) Store() Record {
	return Record{
		FieldWidth:     m.width,
		FieldHeight:    m.height,
		FieldWeights:   append(make([]float64, 0, len(m.weights)), m.weights...),
		FieldGradients: append(make([]float64, 0, len(m.gradients)), m.gradients...),
	}
}

// Load replaces m's state with the one held in r. sx, sy and w are required and
// w must hold sx*sy values. sx and sy are either both positive or both zero. If dw is absent the gradients are zero. m is left
// untouched if an error is returned.
func (m *Mat) Load(r Record) error {
	width, err := intField(r, FieldWidth)
	if err != nil {
		return err
	}
	height, err := intField(r, FieldHeight)
	if err != nil {
		return err
	}
	if (width == 0) != (height == 0) {
		return errors.Wrapf(ErrShape, "%dx%d: only an empty 0x0 Mat may have a zero dimension", width, height)
	}
	n, err := checkedLen(width, height)
	if err != nil {
		return err
	}

	wv, ok := r[FieldWeights]
	if !ok {
		return errors.Wrapf(ErrMissingField, "%q", FieldWeights)
	}
	weights, err := floatsField(FieldWeights, wv, n)
	if err != nil {
		return err
	}
	gradients := make([]float64, n)
	if dv, ok := r[FieldGradients]; ok && dv != nil {
		if gradients, err = floatsField(FieldGradients, dv, n); err != nil {
			return err
		}
	}

	m.width = width
	m.height = height
	m.length = n
	m.weights = weights
	m.gradients = gradients
	return nil
}

func intField(r Record, name string) (int, error) {
	v, ok := r[name]
	if !ok {
		return 0, errors.Wrapf(ErrMissingField, "%q", name)
	}
	var retVal int
	switch x := v.(type) {
	case int:
		retVal = x
	case int32:
		retVal = int(x)
	case int64:
		retVal = int(x)
	case float64:
		if x != math.Trunc(x) {
			return 0, errors.Wrapf(ErrField, "%q is not an integer: %v", name, x)
		}
		if math.Abs(x) > MaxLen {
			return 0, errors.Wrapf(ErrShape, "%q is out of range: %v", name, x)
		}
		retVal = int(x)
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, errors.Wrapf(ErrField, "%q: %v", name, err)
		}
		retVal = int(i)
	default:
		return 0, errors.Wrapf(ErrField, "%q has type %T", name, v)
	}
	if retVal < 0 {
		return 0, errors.Wrapf(ErrField, "%q is negative: %d", name, retVal)
	}
	return retVal, nil
}

// floatsField converts v into a fresh []float64 of length n.
func floatsField(name string, v interface{}, n int) ([]float64, error) {
	var retVal []float64
	switch x := v.(type) {
	case []float64:
		retVal = append(make([]float64, 0, len(x)), x...)
	case []float32:
		retVal = make([]float64, len(x))
		for i := range x {
			retVal[i] = float64(x[i])
		}
	case []interface{}:
		retVal = make([]float64, len(x))
		for i, e := range x {
			f, err := toFloat(e)
			if err != nil {
				return nil, errors.Wrapf(ErrField, "%q[%d]: %v", name, i, err)
			}
			retVal[i] = f
		}
	default:
		return nil, errors.Wrapf(ErrField, "%q has type %T", name, v)
	}
	if len(retVal) != n {
		return nil, errors.Wrapf(ErrField, "%q has %d values, expected %d", name, len(retVal), n)
	}
	return retVal, nil
}

func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	}
	return 0, errors.Errorf("unexpected %T", v)
}

// MarshalJSON encodes m's Record.
func (m *Mat) MarshalJSON() ([]byte, error) { return json.Marshal(m.Store()) }

// UnmarshalJSON decodes a Record and loads it. Numbers are decoded exactly.
func (m *Mat) UnmarshalJSON(p []byte) error {
	dec := json.NewDecoder(bytes.NewReader(p))
	dec.UseNumber()
	var r Record
	if err := dec.Decode(&r); err != nil {
		return errors.WithStack(err)
	}
	return m.Load(r)
}

// gobMat is the gob wire form of a Mat.
type gobMat struct {
	SX, SY int
	W, DW  []float64
}

// GobEncode implements gob.GobEncoder.
func (m *Mat) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(gobMat{SX: m.width, SY: m.height, W: m.weights, DW: m.gradients}); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (m *Mat) GobDecode(p []byte) error {
	var g gobMat
	if err := gob.NewDecoder(bytes.NewReader(p)).Decode(&g); err != nil {
		return errors.WithStack(err)
	}
	r := Record{FieldWidth: g.SX, FieldHeight: g.SY, FieldWeights: g.W}
	if g.DW != nil {
		r[FieldGradients] = g.DW
	}
	return m.Load(r)
}
