package utils

import (
	"bytes"
	"io"
	"testing"
)

func TestLimitByteReader(t *testing.T) {
	r := LimitByteReader(bytes.NewReader([]byte{1, 2, 3, 4, 5}), 3)

	b, err := r.ReadByte()
	if err != nil || b != 1 {
		t.Fatalf("unexpected byte %d: %v", b, err)
	}

	var buf [4]byte
	n, err := r.Read(buf[:])
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || !bytes.Equal(buf[:n], []byte{2, 3}) {
		t.Fatalf("unexpected read %x", buf[:n])
	}

	if r.Left() != 0 {
		t.Fatalf("expected nothing left, got %d", r.Left())
	}

	if _, err = r.ReadByte(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestReadLittleEndianInteger(t *testing.T) {
	var x uint32
	if err := ReadLittleEndianInteger(bytes.NewReader([]byte{0x78, 0x56, 0x34, 0x12}), &x); err != nil {
		t.Fatal(err)
	}
	if x != 0x12345678 {
		t.Fatalf("expected 0x12345678, got %#x", x)
	}
}
