package transaction

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/sturdilythatch87/tari/monero"
	"github.com/sturdilythatch87/tari/monero/crypto"
	"github.com/sturdilythatch87/tari/types"
	"github.com/sturdilythatch87/tari/utils"
)

// CoinbaseV2 Miner transaction as found in blocks from the RingCT era onwards
type CoinbaseV2 struct {
	// UnlockTime would be here
	InputCount uint8 `json:"input_count"`
	InputType  uint8 `json:"input_type"`
	// UnlockTime re-arranged here to improve memory layout space
	UnlockTime   uint64  `json:"unlock_time"`
	GenHeight    uint64  `json:"gen_height"`
	MinerOutputs Outputs `json:"outputs"`

	Extra ExtraTags `json:"extra"`

	ExtraBaseRCT uint8 `json:"extra_base_rct"`
}

func (c *CoinbaseV2) UnmarshalBinary(data []byte) error {
	reader := bytes.NewReader(data)
	err := c.FromReader(reader)
	if err != nil {
		return err
	}
	if reader.Len() > 0 {
		return errors.New("leftover bytes in reader")
	}
	return nil
}

var ErrInvalidTransactionExtra = errors.New("invalid transaction extra")

func (c *CoinbaseV2) Version() uint8 {
	return 2
}

func (c *CoinbaseV2) TotalReward() (reward uint64) {
	for _, o := range c.MinerOutputs {
		reward += o.Reward
	}
	return reward
}

func (c *CoinbaseV2) PrefixHash() types.Hash {
	prefixBytes, _ := c.AppendBinary(make([]byte, 0, c.BufferLength()))
	return crypto.Keccak256(prefixBytes[:len(prefixBytes)-1])
}

func (c *CoinbaseV2) FromReader(reader utils.ReaderAndByteReader) (err error) {
	var (
		version     uint8
		txExtraSize uint64
	)

	if version, err = utils.ReadByteNoEscape(reader); err != nil {
		return err
	}

	if version != 2 {
		return errors.New("version not supported")
	}

	if c.UnlockTime, err = utils.ReadCanonicalUvarint(reader); err != nil {
		return err
	}

	if c.InputCount, err = utils.ReadByteNoEscape(reader); err != nil {
		return err
	}

	if c.InputCount != 1 {
		return errors.New("invalid input count")
	}

	if c.InputType, err = utils.ReadByteNoEscape(reader); err != nil {
		return err
	}

	if c.InputType != TxInGen {
		return errors.New("invalid coinbase input type")
	}

	if c.GenHeight, err = utils.ReadCanonicalUvarint(reader); err != nil {
		return err
	}

	if c.UnlockTime != (c.GenHeight + monero.MinerRewardUnlockTime) {
		return errors.New("invalid unlock time")
	}

	if err = c.MinerOutputs.FromReader(reader); err != nil {
		return err
	}

	if txExtraSize, err = utils.ReadCanonicalUvarint(reader); err != nil {
		return err
	}

	limitReader := utils.LimitByteReader(reader, int64(txExtraSize))
	if err = c.Extra.FromReader(limitReader); err != nil {
		return errors.Join(ErrInvalidTransactionExtra, err)
	}
	if limitReader.Left() > 0 {
		return errors.New("bytes leftover in extra data")
	}

	if c.ExtraBaseRCT, err = utils.ReadByteNoEscape(reader); err != nil {
		return err
	}

	if c.ExtraBaseRCT != 0 {
		return errors.New("invalid extra base RCT")
	}

	return nil
}

func (c *CoinbaseV2) BufferLength() int {
	return 1 +
		utils.UVarInt64Size(c.UnlockTime) +
		1 + 1 +
		utils.UVarInt64Size(c.GenHeight) +
		c.MinerOutputs.BufferLength() +
		utils.UVarInt64Size(c.Extra.BufferLength()) + c.Extra.BufferLength() + 1
}

func (c *CoinbaseV2) MarshalBinary() ([]byte, error) {
	return c.AppendBinary(make([]byte, 0, c.BufferLength()))
}

func (c *CoinbaseV2) AppendBinary(preAllocatedBuf []byte) (buf []byte, err error) {
	buf = preAllocatedBuf

	buf = append(buf, c.Version())
	buf = binary.AppendUvarint(buf, c.UnlockTime)
	buf = append(buf, c.InputCount, c.InputType)
	buf = binary.AppendUvarint(buf, c.GenHeight)

	if buf, err = c.MinerOutputs.AppendBinary(buf); err != nil {
		return nil, err
	}

	buf = binary.AppendUvarint(buf, uint64(c.Extra.BufferLength()))
	if buf, err = c.Extra.AppendBinary(buf); err != nil {
		return nil, err
	}
	buf = append(buf, c.ExtraBaseRCT)

	return buf, nil
}

var baseRCTZeroHash = crypto.Keccak256([]byte{0})

// Hash Transaction id. Prefix hash, base RCT hash and an empty prunable hash, hashed together
func (c *CoinbaseV2) Hash() (hash types.Hash) {
	txBytes, _ := c.AppendBinary(make([]byte, 0, c.BufferLength()))

	hasher := crypto.NewKeccak256()

	// coinbase id, base RCT hash, prunable RCT hash
	var txHashingBlob [3 * types.HashSize]byte

	// remove base RCT
	_, _ = hasher.Write(txBytes[:len(txBytes)-1])
	_, _ = hasher.Read(txHashingBlob[:types.HashSize])

	if c.ExtraBaseRCT == 0 {
		// Base RCT, single 0 byte in miner tx
		copy(txHashingBlob[1*types.HashSize:], baseRCTZeroHash[:])
	} else {
		// fallback, but should never be hit
		hasher.Reset()
		_, _ = hasher.Write([]byte{c.ExtraBaseRCT})
		_, _ = hasher.Read(txHashingBlob[1*types.HashSize : 2*types.HashSize])
	}

	// Prunable RCT, empty in miner tx

	hasher.Reset()
	_, _ = hasher.Write(txHashingBlob[:])
	hasher.Hash(&hash)

	return hash
}
