package utils

import (
	"io"
	"runtime"
	"unsafe"
)

type ReaderAndByteReader interface {
	io.Reader
	io.ByteReader
}

type Serializable interface {
	AppendBinary(preAllocatedBuf []byte) (data []byte, err error)
	FromReader(reader ReaderAndByteReader) (err error)
	BufferLength() (n int)
}

func ReadByteNoEscape(r io.ByteReader) (byte, error) {
	return r.ReadByte()
}

func ReadFullNoEscape(r io.Reader, buf []byte) (n int, err error) {
	return io.ReadFull(r, buf)
}

// ReadLittleEndianInteger Reads a defined Integer type that has a defined size. Does not support reading int/uint types.
func ReadLittleEndianInteger[T ~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 | ~uint64 | ~int64](r io.Reader, x *T) (err error) {
	var zero T
	// #nosec G103 -- verified using unsafe.Sizeof
	buf := unsafe.Slice((*byte)(unsafe.Pointer(x)), unsafe.Sizeof(zero))
	_, err = ReadFullNoEscape(r, buf)
	runtime.KeepAlive(x)
	return err
}

// LimitedByteReader reads at most N bytes from the underlying reader, including single byte reads.
type LimitedByteReader struct {
	R ReaderAndByteReader
	N int64
}

func LimitByteReader(r ReaderAndByteReader, n int64) *LimitedByteReader {
	return &LimitedByteReader{R: r, N: n}
}

func (l *LimitedByteReader) Read(p []byte) (n int, err error) {
	if l.N <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > l.N {
		p = p[0:l.N]
	}
	n, err = l.R.Read(p)
	l.N -= int64(n)
	return n, err
}

func (l *LimitedByteReader) ReadByte() (byte, error) {
	if l.N <= 0 {
		return 0, io.EOF
	}
	b, err := l.R.ReadByte()
	if err != nil {
		return 0, err
	}
	l.N--
	return b, nil
}

// Left Amount of bytes not yet consumed
func (l *LimitedByteReader) Left() int64 {
	return l.N
}
