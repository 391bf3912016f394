// Package codec turns values into the opaque bytes kept in a kv.Store and back.
//
// Scalar codecs (String, Bytes, Int, Float) use the same textual rendering a
// Redis client uses, so a value written by Cache.Store can be read back with
// any of them. Structured codecs (JSON, Msgpack, CBOR, Protobuf) serve
// StoreAs/GetAs.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
