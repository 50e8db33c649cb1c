package utils

import (
	"encoding/binary"
	"errors"
	"io"
	"math/bits"
)

var errOverflow = errors.New("binary: varint overflows a 64-bit integer")

var ErrNonCanonicalEncoding = errors.New("binary: varint has non canonical encoding")

// ReadCanonicalUvarint reads an encoded unsigned integer from r and returns it as a uint64.
// The error is ErrNonCanonicalEncoding if non-canonical bytes were read.
// The error is [io.EOF] only if no bytes were read.
// If an [io.EOF] happens after reading some but not all the bytes,
// ReadCanonicalUvarint returns [io.ErrUnexpectedEOF].
func ReadCanonicalUvarint(r io.ByteReader) (uint64, error) {
	var x uint64
	var s uint
	for i := 0; i < binary.MaxVarintLen64; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if i > 0 && err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return x, err
		}
		if i > 0 && b == 0 {
			return x, ErrNonCanonicalEncoding
		}
		if b < 0x80 {
			if i == binary.MaxVarintLen64-1 && b > 1 {
				return x, errOverflow
			}
			return x | uint64(b)<<s, nil
		}
		x |= uint64(b&0x7f) << s
		s += 7
	}
	return x, errOverflow
}

// UVarInt64Size number of bytes binary.AppendUvarint writes for v
func UVarInt64Size[T uint64 | int | uint8](v T) int {
	if n := (bits.Len64(uint64(v)) + 6) / 7; n > 0 {
		return n
	}
	return 1
}
