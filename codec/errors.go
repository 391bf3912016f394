package codec

import "errors"

var ErrInvalidUTF8 = errors.New("codec: invalid UTF-8")
