package block

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/sturdilythatch87/tari/monero/crypto"
	"github.com/sturdilythatch87/tari/monero/transaction"
	"github.com/sturdilythatch87/tari/types"
)

func FuzzMainBlockRoundTrip(f *testing.F) {
	if buf, err := testBlock(3).MarshalBinary(); err == nil {
		f.Add(buf)
	}
	f.Fuzz(func(t *testing.T, buf []byte) {
		b := &Block{}
		if err := b.UnmarshalBinary(buf); err != nil {
			t.Skipf("leftover error: %s", err)
			return
		}
		data, err := b.MarshalBinary()
		if err != nil {
			t.Fatalf("failed to marshal decoded block: %s", err)
			return
		}
		if !bytes.Equal(data, buf) {
			t.Logf("EXPECTED (len %d):\n%s", len(buf), hex.Dump(buf))
			t.Logf("ACTUAL (len %d):\n%s", len(data), hex.Dump(data))
			t.Fatalf("mismatched roundtrip")
		}
	})
}

func testBlock(txCount int) *Block {
	b := &Block{
		MajorVersion: 16,
		MinorVersion: 16,
		Timestamp:    1700000000,
		PreviousId:   types.MustHashFromString("cbd3b4fc1ea3bc4d1de2fa0b1a5f87c1cd3bce0af5e69d0d3b6dad6fbbc5b3a1"),
		Nonce:        0,
		Coinbase: transaction.CoinbaseV2{
			InputCount: 1,
			InputType:  transaction.TxInGen,
			UnlockTime: 3000060,
			GenHeight:  3000000,
			MinerOutputs: transaction.Outputs{
				{
					Reward:             600000000000,
					EphemeralPublicKey: crypto.PublicKeyBytes(types.MustHashFromString("d0a9da1d2b2ad2e2f2e3b1eab4fb8d0c0bc2d0d2c1d6cd60ce6b2e6f9e3e1b01")),
					Type:               transaction.TxOutToTaggedKey,
					ViewTag:            0x11,
				},
			},
			Extra: transaction.ExtraTags{
				{Tag: transaction.TxExtraTagPubKey, Data: bytes.Repeat([]byte{0xab}, types.HashSize)},
				{Tag: transaction.TxExtraTagNonce, VarInt: 8, HasVarInt: true, Data: make(types.Bytes, 8)},
			},
		},
	}
	for i := range txCount {
		b.Transactions = append(b.Transactions, crypto.Keccak256([]byte{byte(i)}))
	}
	return b
}

func TestBlock_RoundTrip(t *testing.T) {
	for _, txCount := range []int{0, 1, 2, 5} {
		b := testBlock(txCount)
		buf, err := b.MarshalBinary()
		if err != nil {
			t.Fatal(err)
		}
		if len(buf) != b.BufferLength() {
			t.Fatalf("buffer length %d != encoded length %d", b.BufferLength(), len(buf))
		}

		var decoded Block
		if err = decoded.UnmarshalBinary(buf); err != nil {
			t.Fatal(err)
		}
		if len(decoded.Transactions) != txCount {
			t.Fatalf("expected %d transactions, got %d", txCount, len(decoded.Transactions))
		}
		if decoded.Id() != b.Id() {
			t.Fatal("id changed after roundtrip")
		}
	}
}

func TestBlock_HashingBlob(t *testing.T) {
	b := testBlock(2)

	blob := b.HashingBlob(nil)
	if len(blob) != b.HashingBlobBufferLength() {
		t.Fatalf("buffer length %d != blob length %d", b.HashingBlobBufferLength(), len(blob))
	}

	header := b.HeaderBlob(nil)
	if !bytes.HasPrefix(blob, header) {
		t.Fatal("hashing blob does not start with the header blob")
	}

	root := crypto.MerkleTree{b.Coinbase.Hash(), b.Transactions[0], b.Transactions[1]}.RootHash()
	if !bytes.Equal(blob[len(header):len(header)+types.HashSize], root[:]) {
		t.Fatal("hashing blob does not contain the transaction merkle root")
	}
	if blob[len(blob)-1] != 3 {
		t.Fatalf("expected transaction count 3, got %d", blob[len(blob)-1])
	}

	var varIntBuf [binary.MaxVarintLen64]byte
	expectedId := crypto.Keccak256Var(varIntBuf[:binary.PutUvarint(varIntBuf[:], uint64(len(blob)))], blob)
	if b.Id() != expectedId {
		t.Fatal("id mismatch")
	}

	b.Coinbase.Extra.SetTag(transaction.NewMergeMiningTag(0, types.MustHashFromString("0101010101010101010101010101010101010101010101010101010101010101")))
	if bytes.Equal(b.HashingBlob(nil), blob) {
		t.Fatal("hashing blob did not change with the coinbase")
	}
}

func TestBlock_Errors(t *testing.T) {
	t.Run("Version", func(t *testing.T) {
		b := testBlock(0)
		b.MajorVersion = 17
		b.MinorVersion = 17
		if _, err := b.MarshalBinary(); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("Truncated", func(t *testing.T) {
		buf, _ := testBlock(1).MarshalBinary()
		var decoded Block
		if err := decoded.UnmarshalBinary(buf[:len(buf)-1]); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("Leftover", func(t *testing.T) {
		buf, _ := testBlock(1).MarshalBinary()
		var decoded Block
		if err := decoded.UnmarshalBinary(append(buf, 0)); err == nil {
			t.Fatal("expected error")
		}
	})
}
