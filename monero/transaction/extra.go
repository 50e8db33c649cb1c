package transaction

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/sturdilythatch87/tari/types"
	"github.com/sturdilythatch87/tari/utils"
)

const (
	TxExtraTagPadding             = 0x00
	TxExtraTagPubKey              = 0x01
	TxExtraTagNonce               = 0x02
	TxExtraTagMergeMining         = 0x03
	TxExtraTagAdditionalPubKeys   = 0x04
	TxExtraTagMysteriousMinergate = 0xde
)

const (
	TxExtraPaddingMaxCount = 255
	TxExtraNonceMaxCount   = 255

	// TxExtraAdditionalPubKeysMaxCount soft cap, a coinbase cannot carry more outputs than this
	TxExtraAdditionalPubKeysMaxCount = 4096
)

var ErrUnknownExtraTag = errors.New("unknown extra tag")

type ExtraTags []ExtraTag

type ExtraTag struct {
	Tag uint8 `json:"tag"`
	// VarInt size or count prefix, when the tag has one
	VarInt    uint64      `json:"varint,omitempty"`
	HasVarInt bool        `json:"has_varint,omitempty"`
	Data      types.Bytes `json:"data"`
}

// NewMergeMiningTag Builds a merge mining tag committing to hash at the given merkle tree depth
func NewMergeMiningTag(depth uint64, hash types.Hash) ExtraTag {
	data := make([]byte, 0, utils.UVarInt64Size(depth)+types.HashSize)
	data = binary.AppendUvarint(data, depth)
	data = append(data, hash[:]...)
	return ExtraTag{
		Tag:       TxExtraTagMergeMining,
		VarInt:    uint64(len(data)),
		HasVarInt: true,
		Data:      data,
	}
}

// MergeMining Decodes the depth and hash of a merge mining tag
func (t *ExtraTag) MergeMining() (depth uint64, hash types.Hash, err error) {
	if t.Tag != TxExtraTagMergeMining {
		return 0, types.ZeroHash, errors.New("not a merge mining tag")
	}
	reader := bytes.NewReader(t.Data)
	if depth, err = utils.ReadCanonicalUvarint(reader); err != nil {
		return 0, types.ZeroHash, err
	}
	if _, err = utils.ReadFullNoEscape(reader, hash[:]); err != nil {
		return 0, types.ZeroHash, err
	}
	if reader.Len() > 0 {
		return 0, types.ZeroHash, errors.New("leftover bytes in merge mining tag")
	}
	return depth, hash, nil
}

func (t *ExtraTags) UnmarshalBinary(data []byte) (err error) {
	reader := bytes.NewReader(data)
	err = t.FromReader(reader)
	if err != nil {
		return err
	}
	if reader.Len() > 0 {
		return errors.New("leftover bytes in reader")
	}
	return nil
}

func (t *ExtraTags) BufferLength() (n int) {
	for _, tag := range *t {
		n += tag.BufferLength()
	}
	return n
}

func (t *ExtraTags) MarshalBinary() ([]byte, error) {
	return t.AppendBinary(make([]byte, 0, t.BufferLength()))
}

func (t *ExtraTags) AppendBinary(preAllocatedBuf []byte) (buf []byte, err error) {
	buf = preAllocatedBuf
	for _, tag := range *t {
		if buf, err = tag.AppendBinary(buf); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// FromReader Reads tags until the reader is exhausted. Callers bound it with utils.LimitByteReader
func (t *ExtraTags) FromReader(reader utils.ReaderAndByteReader) (err error) {
	*t = (*t)[:0]
	var tag ExtraTag
	for {
		if err = tag.FromReader(reader); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		*t = append(*t, tag)
	}
}

// GetTag Returns the first tag of the given type, or nil
func (t ExtraTags) GetTag(tag uint8) *ExtraTag {
	for i := range t {
		if t[i].Tag == tag {
			return &t[i]
		}
	}
	return nil
}

// SetTag Replaces the first tag of the same type or adds it.
// Added tags go before a trailing padding tag, as padding extends to the end of extra
func (t *ExtraTags) SetTag(tag ExtraTag) {
	if existing := t.GetTag(tag.Tag); existing != nil {
		*existing = tag
		return
	}
	if n := len(*t); n > 0 && (*t)[n-1].Tag == TxExtraTagPadding {
		*t = append(*t, (*t)[n-1])
		(*t)[n-1] = tag
		return
	}
	*t = append(*t, tag)
}

func (t *ExtraTag) UnmarshalBinary(data []byte) error {
	reader := bytes.NewReader(data)
	err := t.FromReader(reader)
	if err != nil {
		return err
	}
	if reader.Len() > 0 {
		return errors.New("leftover bytes in reader")
	}
	return nil
}

func (t *ExtraTag) BufferLength() int {
	if t.HasVarInt {
		return 1 + utils.UVarInt64Size(t.VarInt) + len(t.Data)
	}
	return 1 + len(t.Data)
}

func (t *ExtraTag) MarshalBinary() ([]byte, error) {
	return t.AppendBinary(make([]byte, 0, t.BufferLength()))
}

func (t *ExtraTag) AppendBinary(preAllocatedBuf []byte) ([]byte, error) {
	buf := preAllocatedBuf
	buf = append(buf, t.Tag)
	if t.HasVarInt {
		buf = binary.AppendUvarint(buf, t.VarInt)
	}
	buf = append(buf, t.Data...)
	return buf, nil
}

// FromReader Reads a single tag. Returns io.EOF only when no byte was available
func (t *ExtraTag) FromReader(reader utils.ReaderAndByteReader) (err error) {
	if t.Tag, err = utils.ReadByteNoEscape(reader); err != nil {
		return err
	}

	t.VarInt = 0
	t.HasVarInt = false
	t.Data = nil

	switch t.Tag {
	case TxExtraTagPadding:
		var b byte
		for size := 1; ; size++ {
			if b, err = utils.ReadByteNoEscape(reader); err != nil {
				if err == io.EOF {
					break
				}
				return err
			}
			if size >= TxExtraPaddingMaxCount {
				return errors.New("padding is too big")
			}
			if b != 0 {
				return errors.New("padding is not zero")
			}
			t.Data = append(t.Data, b)
		}
	case TxExtraTagPubKey:
		t.Data = make(types.Bytes, types.HashSize)
		if _, err = utils.ReadFullNoEscape(reader, t.Data); err != nil {
			return noEOF(err)
		}
	case TxExtraTagNonce:
		t.HasVarInt = true
		if t.VarInt, err = utils.ReadCanonicalUvarint(reader); err != nil {
			return noEOF(err)
		}
		if t.VarInt > TxExtraNonceMaxCount {
			return utils.ErrorfNoEscape("nonce is too big: %d > %d", t.VarInt, TxExtraNonceMaxCount)
		}
		t.Data = make(types.Bytes, t.VarInt)
		if _, err = utils.ReadFullNoEscape(reader, t.Data); err != nil {
			return noEOF(err)
		}
	case TxExtraTagMergeMining, TxExtraTagMysteriousMinergate:
		t.HasVarInt = true
		if t.VarInt, err = utils.ReadCanonicalUvarint(reader); err != nil {
			return noEOF(err)
		}
		// the size is bounded by the caller's limited reader, read progressively instead of trusting it
		var n int
		if n, err = readBounded(reader, &t.Data, t.VarInt); err != nil {
			return noEOF(err)
		} else if uint64(n) != t.VarInt {
			return io.ErrUnexpectedEOF
		}
	case TxExtraTagAdditionalPubKeys:
		t.HasVarInt = true
		if t.VarInt, err = utils.ReadCanonicalUvarint(reader); err != nil {
			return noEOF(err)
		}
		if t.VarInt > TxExtraAdditionalPubKeysMaxCount {
			return utils.ErrorfNoEscape("too many additional public keys: %d > %d", t.VarInt, TxExtraAdditionalPubKeysMaxCount)
		}
		t.Data = make(types.Bytes, t.VarInt*types.HashSize)
		if _, err = utils.ReadFullNoEscape(reader, t.Data); err != nil {
			return noEOF(err)
		}
	default:
		return errors.Join(ErrUnknownExtraTag, utils.ErrorfNoEscape("tag 0x%02x", t.Tag))
	}

	return nil
}

func readBounded(reader io.Reader, dst *types.Bytes, size uint64) (int, error) {
	const chunk = 4096
	var buf [chunk]byte
	var total int
	for left := size; left > 0; {
		n, err := utils.ReadFullNoEscape(reader, buf[:min(left, chunk)])
		*dst = append(*dst, buf[:n]...)
		total += n
		if err != nil {
			return total, err
		}
		left -= uint64(n)
	}
	if *dst == nil {
		*dst = types.Bytes{}
	}
	return total, nil
}

// noEOF a tag that started but could not be completed is truncated, not finished
func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
