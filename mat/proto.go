package mat

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Proto returns m's Record as a protobuf Struct. Numbers are carried as doubles,
// which represent every weight exactly.
func (m *Mat) Proto() (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		FieldWidth:     m.width,
		FieldHeight:    m.height,
		FieldWeights:   boxed(m.weights),
		FieldGradients: boxed(m.gradients),
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return s, nil
}

// LoadProto loads a Record carried in a protobuf Struct.
func (m *Mat) LoadProto(s *structpb.Struct) error {
	if s == nil {
		return errors.Wrapf(ErrMissingField, "nil struct")
	}
	return m.Load(Record(s.AsMap()))
}

// MarshalProto returns the wire encoding of m.Proto().
func (m *Mat) MarshalProto() ([]byte, error) {
	s, err := m.Proto()
	if err != nil {
		return nil, err
	}
	p, err := proto.Marshal(s)
	return p, errors.WithStack(err)
}

// UnmarshalProto loads m from the wire encoding of a protobuf Struct.
func (m *Mat) UnmarshalProto(p []byte) error {
	var s structpb.Struct
	if err := proto.Unmarshal(p, &s); err != nil {
		return errors.WithStack(err)
	}
	return m.LoadProto(&s)
}

func boxed(a []float64) []interface{} {
	retVal := make([]interface{}, len(a))
	for i, v := range a {
		retVal[i] = v
	}
	return retVal
}
