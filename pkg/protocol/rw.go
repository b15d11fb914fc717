package protocol

import (
	"encoding/binary"
	"math"
)

// Reader decodes packet body fields from a fully-read frame. All
// multi-byte numbers are big-endian per the game protocol. Methods
// return ErrBufferUnderrun once the body is exhausted; packets are
// expected to stop at the first error.
type Reader struct {
	buf []byte
	off int
}

// NewReader creates a Reader over a packet body.
func NewReader(body []byte) *Reader {
	return &Reader{buf: body}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// take consumes n bytes from the body.
func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeLength
	}
	if r.Remaining() < n {
		return nil, ErrBufferUnderrun
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// VarInt reads a VarInt field.
func (r *Reader) VarInt() (int32, error) {
	v, n, err := decodeVarInt(r.buf[r.off:])
	if err != nil {
		return 0, err
	}
	r.off += n
	return v, nil
}

// VarLong reads a VarLong field.
func (r *Reader) VarLong() (int64, error) {
	v, n, err := decodeVarLong(r.buf[r.off:])
	if err != nil {
		return 0, err
	}
	r.off += n
	return v, nil
}

// Uint8 reads a single unsigned byte.
func (r *Reader) Uint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Int8 reads a single signed byte.
func (r *Reader) Int8() (int8, error) {
	b, err := r.Uint8()
	return int8(b), err
}

// Bool reads a single-byte boolean.
func (r *Reader) Bool() (bool, error) {
	b, err := r.Uint8()
	return b != 0, err
}

// Uint16 reads a big-endian 16-bit field.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// Int32 reads a big-endian 32-bit field.
func (r *Reader) Int32() (int32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// Int64 reads a big-endian 64-bit field.
func (r *Reader) Int64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// Float32 reads a big-endian IEEE 754 single.
func (r *Reader) Float32() (float32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

// Float64 reads a big-endian IEEE 754 double.
func (r *Reader) Float64() (float64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// String reads a VarInt-prefixed UTF-8 string of at most max bytes.
func (r *Reader) String(max int) (string, error) {
	n, err := r.VarInt()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", ErrNegativeLength
	}
	if int(n) > max {
		return "", ErrStringTooLong
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Bytes reads exactly n raw bytes. The returned slice aliases the
// frame buffer and is only valid until the next frame is read on the
// same connection.
func (r *Reader) Bytes(n int) ([]byte, error) {
	return r.take(n)
}

// Rest returns all unread bytes without copying. The returned slice
// aliases the frame buffer and is only valid until the next frame is
// read on the same connection.
func (r *Reader) Rest() []byte {
	b := r.buf[r.off:]
	r.off = len(r.buf)
	return b
}

// Writer builds a packet body. The zero value is ready to use; writes
// never fail. Big-endian, like Reader.
type Writer struct {
	buf []byte
}

// Bytes returns the body built so far.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// VarInt appends a VarInt field.
func (w *Writer) VarInt(v int32) {
	w.buf = AppendVarInt(w.buf, v)
}

// VarLong appends a VarLong field.
func (w *Writer) VarLong(v int64) {
	w.buf = AppendVarLong(w.buf, v)
}

// Uint8 appends a single unsigned byte.
func (w *Writer) Uint8(v uint8) {
	w.buf = append(w.buf, v)
}

// Int8 appends a single signed byte.
func (w *Writer) Int8(v int8) {
	w.buf = append(w.buf, byte(v))
}

// Bool appends a single-byte boolean.
func (w *Writer) Bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// Uint16 appends a big-endian 16-bit field.
func (w *Writer) Uint16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

// Int32 appends a big-endian 32-bit field.
func (w *Writer) Int32(v int32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v))
}

// Int64 appends a big-endian 64-bit field.
func (w *Writer) Int64(v int64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v))
}

// Float32 appends a big-endian IEEE 754 single.
func (w *Writer) Float32(v float32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, math.Float32bits(v))
}

// Float64 appends a big-endian IEEE 754 double.
func (w *Writer) Float64(v float64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, math.Float64bits(v))
}

// String appends a VarInt-prefixed UTF-8 string.
func (w *Writer) String(s string) {
	w.VarInt(int32(len(s)))
	w.buf = append(w.buf, s...)
}

// Raw appends bytes verbatim, with no length prefix.
func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}
