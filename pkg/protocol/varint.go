package protocol

import "io"

// VarInts encode 32-bit integers seven bits at a time, least
// significant group first, with the high bit of each byte flagging a
// continuation. VarLongs do the same for 64-bit values. Negative
// numbers always occupy the maximum length.

// VarIntLen returns the encoded size of v in bytes (1..5).
func VarIntLen(v int32) int {
	n := 1
	for u := uint32(v); u >= 0x80; u >>= 7 {
		n++
	}
	return n
}

// AppendVarInt appends the VarInt encoding of v to dst.
func AppendVarInt(dst []byte, v int32) []byte {
	u := uint32(v)
	for u >= 0x80 {
		dst = append(dst, byte(u)|0x80)
		u >>= 7
	}
	return append(dst, byte(u))
}

// AppendVarLong appends the VarLong encoding of v to dst.
func AppendVarLong(dst []byte, v int64) []byte {
	u := uint64(v)
	for u >= 0x80 {
		dst = append(dst, byte(u)|0x80)
		u >>= 7
	}
	return append(dst, byte(u))
}

// decodeVarInt decodes a VarInt from the front of buf. It returns the
// value and the number of bytes consumed, or an error if buf is short
// or the encoding overruns 5 bytes.
func decodeVarInt(buf []byte) (int32, int, error) {
	var v uint32
	for i := 0; i < MaxVarIntBytes; i++ {
		if i >= len(buf) {
			return 0, 0, ErrBufferUnderrun
		}
		b := buf[i]
		v |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int32(v), i + 1, nil
		}
	}
	return 0, 0, ErrVarIntTooBig
}

// decodeVarLong decodes a VarLong from the front of buf.
func decodeVarLong(buf []byte) (int64, int, error) {
	var v uint64
	for i := 0; i < MaxVarLongBytes; i++ {
		if i >= len(buf) {
			return 0, 0, ErrBufferUnderrun
		}
		b := buf[i]
		v |= uint64(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int64(v), i + 1, nil
		}
	}
	return 0, 0, ErrVarLongTooBig
}

// readVarInt reads a VarInt from r one byte at a time. Used for the
// stream-level length prefix where the frame size is not yet known.
func readVarInt(r io.Reader) (int32, error) {
	var v uint32
	var one [1]byte
	for i := 0; i < MaxVarIntBytes; i++ {
		if _, err := io.ReadFull(r, one[:]); err != nil {
			return 0, err
		}
		b := one[0]
		v |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int32(v), nil
		}
	}
	return 0, ErrVarIntTooBig
}
