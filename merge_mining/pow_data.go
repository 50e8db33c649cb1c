package merge_mining

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"

	"github.com/sturdilythatch87/tari/monero"
	"github.com/sturdilythatch87/tari/monero/block"
	"github.com/sturdilythatch87/tari/monero/crypto"
	"github.com/sturdilythatch87/tari/monero/transaction"
	"github.com/sturdilythatch87/tari/types"
	"github.com/sturdilythatch87/tari/utils"
)

// MaxMerkleProofLength a proof for the largest allowed transaction count
const MaxMerkleProofLength = 16

var ErrTooManyTransactions = errors.New("too many transactions for proof of work data")
var ErrNoMergeMiningTag = errors.New("coinbase has no merge mining tag")

// PowData Monero proof of work carried in the auxiliary block header.
// Enough to rebuild the hashing blob and to prove the coinbase commits the auxiliary block
type PowData struct {
	MajorVersion uint8      `json:"major_version"`
	MinorVersion uint8      `json:"minor_version"`
	Nonce        uint32     `json:"nonce"`
	Timestamp    uint64     `json:"timestamp"`
	PreviousId   types.Hash `json:"previous_id"`

	RandomXKey       types.Hash `json:"randomx_key"`
	TransactionCount uint16     `json:"transaction_count"`
	MerkleRoot       types.Hash `json:"merkle_root"`

	CoinbaseMerkleProof crypto.MerkleProof     `json:"coinbase_merkle_proof"`
	Coinbase            transaction.CoinbaseV2 `json:"coinbase"`
}

// NewPowData Builds the proof of work data for a mined block and its RandomX seed
func NewPowData(b *block.Block, seed types.Hash) (*PowData, error) {
	if b.TransactionCount() > math.MaxUint16 {
		return nil, utils.ErrorfNoEscape("%w: %d", ErrTooManyTransactions, b.TransactionCount())
	}

	tree := b.TransactionTree()

	return &PowData{
		MajorVersion:        b.MajorVersion,
		MinorVersion:        b.MinorVersion,
		Nonce:               b.Nonce,
		Timestamp:           b.Timestamp,
		PreviousId:          b.PreviousId,
		RandomXKey:          seed,
		TransactionCount:    uint16(b.TransactionCount()),
		MerkleRoot:          tree.RootHash(),
		CoinbaseMerkleProof: tree.MainBranch(),
		Coinbase:            b.Coinbase,
	}, nil
}

func (d *PowData) headerBlob(preAllocatedBuf []byte) []byte {
	buf := preAllocatedBuf
	buf = append(buf, d.MajorVersion)
	buf = append(buf, d.MinorVersion)
	buf = binary.AppendUvarint(buf, d.Timestamp)
	buf = append(buf, d.PreviousId[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, d.Nonce)
	return buf
}

// HashingBlob Rebuilds the upstream proof of work input
func (d *PowData) HashingBlob(preAllocatedBuf []byte) []byte {
	buf := d.headerBlob(preAllocatedBuf)
	buf = append(buf, d.MerkleRoot[:]...)
	buf = binary.AppendUvarint(buf, uint64(d.TransactionCount))
	return buf
}

// MergeMiningHash Hash committed by the coinbase
func (d *PowData) MergeMiningHash() (types.Hash, error) {
	tag := d.Coinbase.Extra.GetTag(transaction.TxExtraTagMergeMining)
	if tag == nil {
		return types.ZeroHash, ErrNoMergeMiningTag
	}
	_, hash, err := tag.MergeMining()
	return hash, err
}

// Verify Checks the coinbase proof against the merkle root and that the coinbase commits to hash
func (d *PowData) Verify(hash types.Hash) error {
	if !d.CoinbaseMerkleProof.Verify(d.Coinbase.Hash(), 0, int(d.TransactionCount), d.MerkleRoot) {
		return errors.New("coinbase merkle proof does not match root")
	}
	if committed, err := d.MergeMiningHash(); err != nil {
		return err
	} else if committed != hash {
		return utils.ErrorfNoEscape("merge mining hash mismatch: %s != %s", committed, hash)
	}
	return nil
}

func (d *PowData) BufferLength() int {
	return 1 + 1 +
		utils.UVarInt64Size(d.Timestamp) +
		types.HashSize +
		4 +
		types.HashSize +
		2 +
		types.HashSize +
		utils.UVarInt64Size(len(d.CoinbaseMerkleProof)) + types.HashSize*len(d.CoinbaseMerkleProof) +
		d.Coinbase.BufferLength()
}

func (d *PowData) MarshalBinary() ([]byte, error) {
	return d.AppendBinary(make([]byte, 0, d.BufferLength()))
}

func (d *PowData) AppendBinary(preAllocatedBuf []byte) (buf []byte, err error) {
	if d.MajorVersion < monero.HardForkMinimumSupportedVersion || d.MajorVersion > monero.HardForkSupportedVersion {
		return nil, utils.ErrorfNoEscape("unsupported version %d", d.MajorVersion)
	}
	if len(d.CoinbaseMerkleProof) > MaxMerkleProofLength {
		return nil, utils.ErrorfNoEscape("merkle proof too long: %d > %d", len(d.CoinbaseMerkleProof), MaxMerkleProofLength)
	}

	buf = d.headerBlob(preAllocatedBuf)
	buf = append(buf, d.RandomXKey[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, d.TransactionCount)
	buf = append(buf, d.MerkleRoot[:]...)

	buf = binary.AppendUvarint(buf, uint64(len(d.CoinbaseMerkleProof)))
	for _, h := range d.CoinbaseMerkleProof {
		buf = append(buf, h[:]...)
	}

	if buf, err = d.Coinbase.AppendBinary(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *PowData) UnmarshalBinary(data []byte) error {
	reader := bytes.NewReader(data)
	err := d.FromReader(reader)
	if err != nil {
		return err
	}
	if reader.Len() > 0 {
		return errors.New("leftover bytes in reader")
	}
	return nil
}

func (d *PowData) FromReader(reader utils.ReaderAndByteReader) (err error) {
	var proofLength uint64

	if d.MajorVersion, err = utils.ReadByteNoEscape(reader); err != nil {
		return err
	}
	if d.MajorVersion < monero.HardForkMinimumSupportedVersion || d.MajorVersion > monero.HardForkSupportedVersion {
		return utils.ErrorfNoEscape("unsupported version %d", d.MajorVersion)
	}
	if d.MinorVersion, err = utils.ReadByteNoEscape(reader); err != nil {
		return err
	}
	if d.Timestamp, err = utils.ReadCanonicalUvarint(reader); err != nil {
		return err
	}
	if _, err = utils.ReadFullNoEscape(reader, d.PreviousId[:]); err != nil {
		return err
	}
	if err = utils.ReadLittleEndianInteger(reader, &d.Nonce); err != nil {
		return err
	}
	if _, err = utils.ReadFullNoEscape(reader, d.RandomXKey[:]); err != nil {
		return err
	}
	if err = utils.ReadLittleEndianInteger(reader, &d.TransactionCount); err != nil {
		return err
	}
	if _, err = utils.ReadFullNoEscape(reader, d.MerkleRoot[:]); err != nil {
		return err
	}

	if proofLength, err = utils.ReadCanonicalUvarint(reader); err != nil {
		return err
	} else if proofLength > MaxMerkleProofLength {
		return utils.ErrorfNoEscape("merkle proof too long: %d > %d", proofLength, MaxMerkleProofLength)
	}
	d.CoinbaseMerkleProof = make(crypto.MerkleProof, proofLength)
	for i := range d.CoinbaseMerkleProof {
		if _, err = utils.ReadFullNoEscape(reader, d.CoinbaseMerkleProof[i][:]); err != nil {
			return err
		}
	}

	return d.Coinbase.FromReader(reader)
}
