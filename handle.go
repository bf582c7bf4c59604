package matpool

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind says which slot space a Handle indexes.
type Kind uint8

const (
	Invalid    Kind = iota // refers to nothing
	Persistent             // owned by the pool for its lifetime
	Temporary              // borrowed until the next ClearTemporaries
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "Invalid"
	case Persistent:
		return "Persistent"
	case Temporary:
		return "Temporary"
	}
	return "UNKNOWN KIND"
}

// Handle identifies a tensor held by a Pool. Handles are small values, meant to be
// copied around; they are only ever created by Pool operations or ParseHandle.
//
// The zero Handle is Invalid. A Persistent handle stays valid for the lifetime of its
// Pool. A Temporary handle is valid until the next ClearTemporaries on the Pool that
// issued it; resolving it afterwards panics with ErrStaleHandle.
type Handle struct {
	kind  Kind
	index int
	epoch uint32 // temporaries only
}

// NilHandle is the invalid handle.
var NilHandle Handle

func (h Handle) Kind() Kind { return h.kind }

// Index is the slot index within the handle's space.
func (h Handle) Index() int { return h.index }

func (h Handle) IsValid() bool { return h.kind != Invalid }

func (h Handle) IsPersistent() bool { return h.kind == Persistent }

func (h Handle) IsTemporary() bool { return h.kind == Temporary }

// Int returns the flat integer encoding of h: the index for persistent handles,
// -1 for the invalid handle and -(index+2) for temporaries.
func (h Handle) Int() int {
	switch h.kind {
	case Persistent:
		return h.index
	case Temporary:
		return -(h.index + 2)
	}
	return -1
}

// ParseHandle decodes the flat integer encoding of a persistent or invalid handle.
// Temporary encodings are rejected as they do not outlive a processing step.
func ParseHandle(v int) (Handle, error) {
	switch {
	case v >= 0:
		return Handle{kind: Persistent, index: v}, nil
	case v == -1:
		return NilHandle, nil
	}
	return NilHandle, errors.Wrapf(ErrInvalidHandle, "%d encodes temporary slot %d, which cannot be parsed", v, -(v + 2))
}

func (h Handle) Format(s fmt.State, c rune) {
	switch h.kind {
	case Persistent:
		fmt.Fprintf(s, "P%d", h.index)
	case Temporary:
		fmt.Fprintf(s, "T%d@%d", h.index, h.epoch)
	default:
		fmt.Fprint(s, "Invalid")
	}
}
