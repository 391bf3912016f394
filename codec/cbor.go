package codec

import (
	"errors"

	"github.com/fxamacker/cbor/v2"
)

var errNoMode = errors.New("codec: cbor codec used without NewCBOR")

// CBOR is a StoreAs/GetAs codec for values that need a self-describing binary
// form, e.g. payloads read back by non-Go consumers of the same store.
// Build it with NewCBOR or MustCBOR; the zero value has no modes.
//
// deterministic=true selects RFC 8949 Core Deterministic encoding, so equal
// values stored under different keys compare byte for byte. Times are always
// RFC3339Nano strings.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

func NewCBOR[V any](deterministic bool) (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano

	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	dm, err := (cbor.DecOptions{}).DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

// MustCBOR is NewCBOR that panics on error. Meant for package-level vars and tests.
func MustCBOR[V any](deterministic bool) CBOR[V] {
	c, err := NewCBOR[V](deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) {
	if c.enc == nil {
		return nil, errNoMode
	}
	return c.enc.Marshal(v)
}

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	if c.dec == nil {
		return v, errNoMode
	}
	err := c.dec.Unmarshal(b, &v)
	return v, err
}
