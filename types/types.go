package types

import (
	"errors"
	"fmt"

	fasthex "github.com/tmthrgd/go-hex"
)

const HashSize = 32

// Hash Keccak-256 digest, hex encoded in JSON
//
//nolint:recvcheck
type Hash [HashSize]byte

var ZeroHash Hash

var errHashSize = errors.New("wrong hash size")

func HashFromString(s string) (h Hash, err error) {
	if len(s) != HashSize*2 {
		return h, fmt.Errorf("%w: %d hex characters", errHashSize, len(s))
	}
	if _, err = fasthex.Decode(h[:], []byte(s)); err != nil {
		return ZeroHash, err
	}
	return h, nil
}

func MustHashFromString(s string) Hash {
	h, err := HashFromString(s)
	if err != nil {
		panic(err)
	}
	return h
}

// HashFromBytes ZeroHash unless buf is exactly HashSize long
func HashFromBytes(buf []byte) (h Hash) {
	if len(buf) == HashSize {
		copy(h[:], buf)
	}
	return h
}

func (h Hash) String() string {
	return fasthex.EncodeToString(h[:])
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return quotedHex(h[:]), nil
}

// UnmarshalJSON an empty string leaves h untouched
func (h *Hash) UnmarshalJSON(b []byte) error {
	hexBytes, err := unquote(b)
	if err != nil || len(hexBytes) == 0 {
		return err
	}
	if len(hexBytes) != HashSize*2 {
		return errHashSize
	}
	_, err = fasthex.Decode(h[:], hexBytes)
	return err
}

// Bytes arbitrary binary data, hex encoded in JSON
//
//nolint:recvcheck
type Bytes []byte

func (b Bytes) String() string {
	return fasthex.EncodeToString(b)
}

func (b Bytes) MarshalJSON() ([]byte, error) {
	return quotedHex(b), nil
}

func (b *Bytes) UnmarshalJSON(buf []byte) error {
	if string(buf) == "null" {
		*b = nil
		return nil
	}
	hexBytes, err := unquote(buf)
	if err != nil {
		return err
	}
	if len(hexBytes)%2 != 0 {
		return errors.New("odd hex length")
	}
	*b = make(Bytes, len(hexBytes)/2)
	_, err = fasthex.Decode(*b, hexBytes)
	return err
}

func quotedHex(data []byte) []byte {
	buf := make([]byte, len(data)*2+2)
	buf[0], buf[len(buf)-1] = '"', '"'
	fasthex.Encode(buf[1:], data)
	return buf
}

func unquote(b []byte) ([]byte, error) {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return nil, errors.New("expected hex string")
	}
	return b[1 : len(b)-1], nil
}
