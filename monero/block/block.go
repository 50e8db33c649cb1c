package block

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/sturdilythatch87/tari/monero"
	"github.com/sturdilythatch87/tari/monero/crypto"
	"github.com/sturdilythatch87/tari/monero/transaction"
	"github.com/sturdilythatch87/tari/types"
	"github.com/sturdilythatch87/tari/utils"
)

// MaxTransactionCount CRYPTONOTE_MAX_TX_PER_BLOCK
const MaxTransactionCount = 0x10000000

type Block struct {
	MajorVersion uint8 `json:"major_version"`
	MinorVersion uint8 `json:"minor_version"`
	// Nonce re-arranged here to improve memory layout space
	Nonce uint32 `json:"nonce"`

	Timestamp  uint64     `json:"timestamp"`
	PreviousId types.Hash `json:"previous_id"`
	//Nonce would be here

	Coinbase transaction.CoinbaseV2 `json:"coinbase"`

	Transactions []types.Hash `json:"transactions,omitempty"`
}

func (b *Block) MarshalBinary() (buf []byte, err error) {
	return b.AppendBinary(make([]byte, 0, b.BufferLength()))
}

func (b *Block) BufferLength() int {
	return utils.UVarInt64Size(b.MajorVersion) +
		utils.UVarInt64Size(b.MinorVersion) +
		utils.UVarInt64Size(b.Timestamp) +
		types.HashSize +
		4 +
		b.Coinbase.BufferLength() +
		utils.UVarInt64Size(len(b.Transactions)) + types.HashSize*len(b.Transactions)
}

func (b *Block) AppendBinary(preAllocatedBuf []byte) (buf []byte, err error) {
	buf = preAllocatedBuf

	if b.MajorVersion < monero.HardForkMinimumSupportedVersion || b.MajorVersion > monero.HardForkSupportedVersion {
		return nil, utils.ErrorfNoEscape("unsupported version %d", b.MajorVersion)
	}

	if b.MinorVersion < b.MajorVersion {
		return nil, utils.ErrorfNoEscape("minor version %d smaller than major %d", b.MinorVersion, b.MajorVersion)
	}

	if b.MinorVersion > 127 {
		return nil, utils.ErrorfNoEscape("minor version %d larger than maximum byte varint size", b.MinorVersion)
	}

	buf = binary.AppendUvarint(buf, uint64(b.MajorVersion))
	buf = binary.AppendUvarint(buf, uint64(b.MinorVersion))

	buf = binary.AppendUvarint(buf, b.Timestamp)
	buf = append(buf, b.PreviousId[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, b.Nonce)

	if buf, err = b.Coinbase.AppendBinary(buf); err != nil {
		return nil, err
	}

	buf = binary.AppendUvarint(buf, uint64(len(b.Transactions)))
	for _, txId := range b.Transactions {
		buf = append(buf, txId[:]...)
	}

	return buf, nil
}

func (b *Block) UnmarshalBinary(data []byte) error {
	reader := bytes.NewReader(data)
	err := b.FromReader(reader)
	if err != nil {
		return err
	}
	if reader.Len() > 0 {
		return errors.New("leftover bytes in reader")
	}
	return nil
}

func (b *Block) FromReader(reader utils.ReaderAndByteReader) (err error) {
	var (
		txCount         uint64
		transactionHash types.Hash
	)

	if b.MajorVersion, err = utils.ReadByteNoEscape(reader); err != nil {
		return err
	}

	if b.MajorVersion < monero.HardForkMinimumSupportedVersion || b.MajorVersion > monero.HardForkSupportedVersion {
		return utils.ErrorfNoEscape("unsupported version %d", b.MajorVersion)
	}

	if b.MinorVersion, err = utils.ReadByteNoEscape(reader); err != nil {
		return err
	}

	if b.MinorVersion < b.MajorVersion {
		return utils.ErrorfNoEscape("minor version %d smaller than major version %d", b.MinorVersion, b.MajorVersion)
	}

	if b.MinorVersion > 127 {
		return utils.ErrorfNoEscape("minor version %d larger than maximum byte varint size", b.MinorVersion)
	}

	if b.Timestamp, err = utils.ReadCanonicalUvarint(reader); err != nil {
		return err
	}

	if _, err = utils.ReadFullNoEscape(reader, b.PreviousId[:]); err != nil {
		return err
	}

	if err = utils.ReadLittleEndianInteger(reader, &b.Nonce); err != nil {
		return err
	}

	if err = b.Coinbase.FromReader(reader); err != nil {
		return err
	}

	b.Transactions = nil

	if txCount, err = utils.ReadCanonicalUvarint(reader); err != nil {
		return err
	} else if txCount > MaxTransactionCount {
		return utils.ErrorfNoEscape("transaction count too large: %d > %d", txCount, MaxTransactionCount)
	} else if txCount > 0 {
		// preallocate with soft cap
		b.Transactions = make([]types.Hash, 0, min(8192, txCount))

		for range txCount {
			if _, err = utils.ReadFullNoEscape(reader, transactionHash[:]); err != nil {
				return err
			}
			b.Transactions = append(b.Transactions, transactionHash)
		}
	}

	return nil
}

func (b *Block) HeaderBlobBufferLength() int {
	return 1 + 1 +
		utils.UVarInt64Size(b.Timestamp) +
		types.HashSize +
		4
}

// HeaderBlob major and minor version, timestamp, previous id and nonce
func (b *Block) HeaderBlob(preAllocatedBuf []byte) []byte {
	buf := preAllocatedBuf
	buf = append(buf, b.MajorVersion)
	buf = append(buf, b.MinorVersion)
	buf = binary.AppendUvarint(buf, b.Timestamp)
	buf = append(buf, b.PreviousId[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, b.Nonce)

	return buf
}

// TransactionTree Coinbase id followed by all other transaction ids
func (b *Block) TransactionTree() crypto.MerkleTree {
	merkleTree := make(crypto.MerkleTree, len(b.Transactions)+1)
	merkleTree[0] = b.Coinbase.Hash()
	copy(merkleTree[1:], b.Transactions)
	return merkleTree
}

// TransactionCount includes the coinbase
func (b *Block) TransactionCount() int {
	return len(b.Transactions) + 1
}

func (b *Block) HashingBlobBufferLength() int {
	return b.HeaderBlobBufferLength() +
		types.HashSize + utils.UVarInt64Size(len(b.Transactions)+1)
}

// HashingBlob Proof of work input: header blob, transaction merkle root and transaction count
func (b *Block) HashingBlob(preAllocatedBuf []byte) []byte {
	buf := b.HeaderBlob(preAllocatedBuf)

	txTreeHash := b.TransactionTree().RootHash()
	buf = append(buf, txTreeHash[:]...)

	buf = binary.AppendUvarint(buf, uint64(b.TransactionCount()))

	return buf
}

func (b *Block) Id() types.Hash {
	var varIntBuf [binary.MaxVarintLen64]byte
	buf := b.HashingBlob(make([]byte, 0, b.HashingBlobBufferLength()))
	return crypto.Keccak256Var(varIntBuf[:binary.PutUvarint(varIntBuf[:], uint64(len(buf)))], buf)
}
