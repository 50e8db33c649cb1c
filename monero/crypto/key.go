package crypto

import (
	fasthex "github.com/tmthrgd/go-hex"
)

const PublicKeySize = 32

// PublicKeyBytes Compressed ed25519 point, kept opaque since nothing here does curve arithmetic
type PublicKeyBytes [PublicKeySize]byte

func (k PublicKeyBytes) String() string {
	return fasthex.EncodeToString(k[:])
}

func (k PublicKeyBytes) MarshalJSON() ([]byte, error) {
	var buf [PublicKeySize*2 + 2]byte
	buf[0] = '"'
	buf[PublicKeySize*2+1] = '"'
	fasthex.Encode(buf[1:], k[:])
	return buf[:], nil
}
