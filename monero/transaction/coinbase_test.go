package transaction

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sturdilythatch87/tari/monero/crypto"
	"github.com/sturdilythatch87/tari/types"
)

func testCoinbase(height uint64) *CoinbaseV2 {
	c := &CoinbaseV2{
		InputCount: 1,
		InputType:  TxInGen,
		UnlockTime: height + 60,
		GenHeight:  height,
		MinerOutputs: Outputs{
			{
				Index:              0,
				Reward:             600000000000,
				EphemeralPublicKey: crypto.PublicKeyBytes(types.MustHashFromString("d0a9da1d2b2ad2e2f2e3b1eab4fb8d0c0bc2d0d2c1d6cd60ce6b2e6f9e3e1b01")),
				Type:               TxOutToTaggedKey,
				ViewTag:            0x5a,
			},
		},
	}
	_ = c.Extra.UnmarshalBinary(testExtra())
	return c
}

func TestCoinbaseV2_RoundTrip(t *testing.T) {
	c := testCoinbase(3000000)

	buf, err := c.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if len(buf) != c.BufferLength() {
		t.Fatalf("buffer length %d != encoded length %d", c.BufferLength(), len(buf))
	}

	var decoded CoinbaseV2
	if err = decoded.UnmarshalBinary(buf); err != nil {
		t.Fatal(err)
	}

	reencoded, err := decoded.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, reencoded) {
		t.Fatalf("mismatched roundtrip: %x != %x", buf, reencoded)
	}

	if decoded.GenHeight != c.GenHeight || decoded.TotalReward() != c.TotalReward() {
		t.Fatalf("unexpected decoded coinbase %+v", decoded)
	}

	if decoded.Hash() != c.Hash() {
		t.Fatal("hash changed after roundtrip")
	}
}

func TestCoinbaseV2_Hash(t *testing.T) {
	c := testCoinbase(100)

	buf, _ := c.MarshalBinary()
	prefixHash := crypto.Keccak256(buf[:len(buf)-1])
	expected := crypto.Keccak256Var(prefixHash[:], baseRCTZeroHash[:], types.ZeroHash[:])

	if h := c.Hash(); h != expected {
		t.Fatalf("expected %s, got %s", expected, h)
	}
	if c.PrefixHash() != prefixHash {
		t.Fatal("prefix hash mismatch")
	}

	c.Extra.SetTag(NewMergeMiningTag(0, types.MustHashFromString("0101010101010101010101010101010101010101010101010101010101010101")))
	if c.Hash() == expected {
		t.Fatal("hash did not change with a new extra tag")
	}
}

func TestCoinbaseV2_Errors(t *testing.T) {
	t.Run("UnlockTime", func(t *testing.T) {
		c := testCoinbase(100)
		c.UnlockTime = 100
		buf, _ := c.MarshalBinary()
		var decoded CoinbaseV2
		if err := decoded.UnmarshalBinary(buf); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("Extra", func(t *testing.T) {
		c := testCoinbase(100)
		c.Extra = append(c.Extra, ExtraTag{Tag: 0x7f})
		buf, _ := c.MarshalBinary()
		var decoded CoinbaseV2
		if err := decoded.UnmarshalBinary(buf); !errors.Is(err, ErrInvalidTransactionExtra) {
			t.Fatalf("expected invalid extra error, got %v", err)
		}
	})

	t.Run("Leftover", func(t *testing.T) {
		buf, _ := testCoinbase(100).MarshalBinary()
		var decoded CoinbaseV2
		if err := decoded.UnmarshalBinary(append(buf, 0)); err == nil {
			t.Fatal("expected error")
		}
	})
}
