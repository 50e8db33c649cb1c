package transaction

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"testing"

	"github.com/sturdilythatch87/tari/types"
)

func FuzzCoinbaseTransactionExtraTagRoundTrip(f *testing.F) {
	f.Add([]byte{TxExtraTagPubKey, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32})
	f.Add([]byte{TxExtraTagNonce, 4, 0, 0, 0, 0})
	f.Add([]byte{TxExtraTagPadding, 0, 0, 0})
	f.Fuzz(func(t *testing.T, buf []byte) {
		tag := &ExtraTag{}
		if err := tag.UnmarshalBinary(buf); err != nil {
			t.Skipf("leftover error: %s", err)
			return
		}
		data, err := tag.MarshalBinary()
		if err != nil {
			t.Fatalf("failed to marshal decoded tag: %s", err)
			return
		}
		if !bytes.Equal(data, buf) {
			t.Logf("EXPECTED (len %d):\n%s", len(buf), hex.Dump(buf))
			t.Logf("ACTUAL (len %d):\n%s", len(data), hex.Dump(data))
			t.Fatalf("mismatched roundtrip")
		}
	})
}

func FuzzCoinbaseTransactionExtraTagsRoundTrip(f *testing.F) {
	f.Add(testExtra())
	f.Fuzz(func(t *testing.T, buf []byte) {
		var tags ExtraTags
		if err := tags.UnmarshalBinary(buf); err != nil {
			t.Skipf("leftover error: %s", err)
			return
		}
		data, err := tags.MarshalBinary()
		if err != nil {
			t.Fatalf("failed to marshal decoded tags: %s", err)
			return
		}
		if !bytes.Equal(data, buf) {
			t.Fatalf("mismatched roundtrip: %x != %x", data, buf)
		}
	})
}

// testExtra pub key followed by an 8 byte extra nonce, as a monerod template carries
func testExtra() []byte {
	buf := []byte{TxExtraTagPubKey}
	for i := range types.HashSize {
		buf = append(buf, byte(i+1))
	}
	buf = append(buf, TxExtraTagNonce, 8, 0, 0, 0, 0, 0, 0, 0, 0)
	return buf
}

func TestExtraTags_UnmarshalBinary(t *testing.T) {
	var tags ExtraTags
	if err := tags.UnmarshalBinary(testExtra()); err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(tags))
	}
	if pubKey := tags.GetTag(TxExtraTagPubKey); pubKey == nil || len(pubKey.Data) != types.HashSize || pubKey.HasVarInt {
		t.Fatalf("unexpected pub key tag %+v", pubKey)
	}
	if nonce := tags.GetTag(TxExtraTagNonce); nonce == nil || nonce.VarInt != 8 || len(nonce.Data) != 8 {
		t.Fatalf("unexpected nonce tag %+v", nonce)
	}
	if tags.GetTag(TxExtraTagMergeMining) != nil {
		t.Fatal("unexpected merge mining tag")
	}
	if tags.BufferLength() != len(testExtra()) {
		t.Fatalf("buffer length %d != %d", tags.BufferLength(), len(testExtra()))
	}
}

func TestExtraTag_Errors(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		err  error
	}{
		{"TruncatedPubKey", []byte{TxExtraTagPubKey, 1, 2, 3}, io.ErrUnexpectedEOF},
		{"TruncatedNonce", []byte{TxExtraTagNonce, 4, 0}, io.ErrUnexpectedEOF},
		{"UnknownTag", []byte{0x7f, 0}, ErrUnknownExtraTag},
		{"TruncatedMergeMining", []byte{TxExtraTagMergeMining, 33, 0}, io.ErrUnexpectedEOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tag ExtraTag
			err := tag.UnmarshalBinary(tt.buf)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
		})
	}

	t.Run("NonZeroPadding", func(t *testing.T) {
		var tag ExtraTag
		if err := tag.UnmarshalBinary([]byte{TxExtraTagPadding, 0, 1}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("NonceTooBig", func(t *testing.T) {
		buf := []byte{TxExtraTagNonce, 0x80, 0x02}
		buf = append(buf, make([]byte, 256)...)
		var tag ExtraTag
		if err := tag.UnmarshalBinary(buf); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("PaddingTooBig", func(t *testing.T) {
		var tag ExtraTag
		if err := tag.UnmarshalBinary(make([]byte, TxExtraPaddingMaxCount)); err != nil {
			t.Fatalf("maximum padding rejected: %s", err)
		}
		if err := tag.UnmarshalBinary(make([]byte, TxExtraPaddingMaxCount+1)); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestMergeMiningTag(t *testing.T) {
	hash := types.MustHashFromString("0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20")
	tag := NewMergeMiningTag(0, hash)

	buf, err := tag.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	expected := append([]byte{TxExtraTagMergeMining, 33, 0}, hash[:]...)
	if !bytes.Equal(buf, expected) {
		t.Fatalf("expected %x, got %x", expected, buf)
	}

	var decoded ExtraTag
	if err = decoded.UnmarshalBinary(buf); err != nil {
		t.Fatal(err)
	}
	depth, decodedHash, err := decoded.MergeMining()
	if err != nil {
		t.Fatal(err)
	}
	if depth != 0 || decodedHash != hash {
		t.Fatalf("unexpected depth %d hash %s", depth, decodedHash)
	}
}

func TestExtraTags_SetTag(t *testing.T) {
	first := types.MustHashFromString("0101010101010101010101010101010101010101010101010101010101010101")
	second := types.MustHashFromString("0202020202020202020202020202020202020202020202020202020202020202")

	t.Run("Append", func(t *testing.T) {
		var tags ExtraTags
		_ = tags.UnmarshalBinary(testExtra())
		tags.SetTag(NewMergeMiningTag(0, first))
		if len(tags) != 3 || tags[2].Tag != TxExtraTagMergeMining {
			t.Fatalf("unexpected tags %+v", tags)
		}
	})

	t.Run("Replace", func(t *testing.T) {
		var tags ExtraTags
		_ = tags.UnmarshalBinary(testExtra())
		tags.SetTag(NewMergeMiningTag(0, first))
		tags.SetTag(NewMergeMiningTag(0, second))
		if len(tags) != 3 {
			t.Fatalf("expected 3 tags, got %d", len(tags))
		}
		if _, h, _ := tags[2].MergeMining(); h != second {
			t.Fatalf("expected %s, got %s", second, h)
		}
	})

	t.Run("BeforePadding", func(t *testing.T) {
		var tags ExtraTags
		_ = tags.UnmarshalBinary(append(testExtra(), TxExtraTagPadding, 0, 0))
		tags.SetTag(NewMergeMiningTag(0, first))
		if tags[len(tags)-1].Tag != TxExtraTagPadding || tags[len(tags)-2].Tag != TxExtraTagMergeMining {
			t.Fatalf("unexpected tag order %+v", tags)
		}

		buf, err := tags.MarshalBinary()
		if err != nil {
			t.Fatal(err)
		}
		var decoded ExtraTags
		if err = decoded.UnmarshalBinary(buf); err != nil {
			t.Fatal(err)
		}
		if decoded.GetTag(TxExtraTagMergeMining) == nil {
			t.Fatal("merge mining tag lost after padding")
		}
	})
}
