package codec

import (
	"strconv"
	"unicode/utf8"
)

// Bytes is the identity codec.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// String requires valid UTF-8 on decode.
type String struct{}

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

// Int renders integers in base 10, the way INCR stores counters.
type Int struct{}

func (Int) Encode(n int64) ([]byte, error) { return strconv.AppendInt(nil, n, 10), nil }
func (Int) Decode(b []byte) (int64, error) { return strconv.ParseInt(string(b), 10, 64) }

// Float uses the shortest decimal form that round-trips exactly.
type Float struct{}

func (Float) Encode(f float64) ([]byte, error) { return strconv.AppendFloat(nil, f, 'g', -1, 64), nil }
func (Float) Decode(b []byte) (float64, error) { return strconv.ParseFloat(string(b), 64) }
