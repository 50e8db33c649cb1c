package crypto

import (
	"hash"
	"io"

	"github.com/sturdilythatch87/tari/types"
	"golang.org/x/crypto/sha3"
)

type HashReader interface {
	hash.Hash
	io.Reader
}

type KeccakHasher struct {
	h HashReader
}

func (k KeccakHasher) Read(p []byte) (n int, err error) {
	return k.h.Read(p)
}

func (k KeccakHasher) Write(p []byte) (n int, err error) {
	return k.h.Write(p)
}

func (k KeccakHasher) Sum(b []byte) []byte {
	return k.h.Sum(b)
}

func (k KeccakHasher) Reset() {
	k.h.Reset()
}

func (k KeccakHasher) Size() int {
	return k.h.Size()
}

func (k KeccakHasher) BlockSize() int {
	return k.h.BlockSize()
}

// Hash Reads the current digest into h. The hasher must be Reset before further writes
func (k KeccakHasher) Hash(h *types.Hash) {
	_, _ = k.h.Read(h[:])
}

func NewKeccak256() KeccakHasher {
	return KeccakHasher{h: newKeccak256()}
}

func newKeccak256() HashReader {
	//nolint:forcetypeassert
	return sha3.NewLegacyKeccak256().(HashReader)
}

func Keccak256Var[T ~string | ~[]byte](data ...T) (result types.Hash) {
	h := newKeccak256()
	for _, b := range data {
		_, _ = h.Write([]byte(b))
	}
	_, _ = h.Read(result[:types.HashSize])

	return
}

func Keccak256[T ~string | ~[]byte](data T) (result types.Hash) {
	h := newKeccak256()
	_, _ = h.Write([]byte(data))
	_, _ = h.Read(result[:types.HashSize])

	return
}
