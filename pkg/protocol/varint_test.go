package protocol

import (
	"bytes"
	"testing"
)

func TestVarIntRoundtrip(t *testing.T) {
	tests := []struct {
		value int32
		size  int
	}{
		{0, 1},
		{1, 1},
		{127, 1},
		{128, 2},
		{255, 2},
		{16383, 2},
		{16384, 3},
		{2097151, 3},
		{2097152, 4},
		{268435455, 4},
		{268435456, 5},
		{2147483647, 5},
		{-1, 5},
		{-2147483648, 5},
	}

	for _, tc := range tests {
		encoded := AppendVarInt(nil, tc.value)
		if len(encoded) != tc.size {
			t.Errorf("AppendVarInt(%d) length = %d, want %d", tc.value, len(encoded), tc.size)
		}
		if got := VarIntLen(tc.value); got != tc.size {
			t.Errorf("VarIntLen(%d) = %d, want %d", tc.value, got, tc.size)
		}

		decoded, n, err := decodeVarInt(encoded)
		if err != nil {
			t.Fatalf("decodeVarInt(%d) error: %v", tc.value, err)
		}
		if decoded != tc.value {
			t.Errorf("decodeVarInt = %d, want %d", decoded, tc.value)
		}
		if n != tc.size {
			t.Errorf("decodeVarInt consumed %d bytes, want %d", n, tc.size)
		}
	}
}

func TestVarIntErrors(t *testing.T) {
	t.Run("overlong encoding", func(t *testing.T) {
		// Six continuation bytes can never be a legal VarInt.
		_, _, err := decodeVarInt([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00})
		if err != ErrVarIntTooBig {
			t.Errorf("decodeVarInt error = %v, want %v", err, ErrVarIntTooBig)
		}
	})

	t.Run("truncated input", func(t *testing.T) {
		_, _, err := decodeVarInt([]byte{0x80})
		if err != ErrBufferUnderrun {
			t.Errorf("decodeVarInt error = %v, want %v", err, ErrBufferUnderrun)
		}
	})

	t.Run("stream reader rejects overlong", func(t *testing.T) {
		_, err := readVarInt(bytes.NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00}))
		if err != ErrVarIntTooBig {
			t.Errorf("readVarInt error = %v, want %v", err, ErrVarIntTooBig)
		}
	})
}

func TestVarLongRoundtrip(t *testing.T) {
	values := []int64{0, 1, 127, 128, 2147483647, 2147483648, 9223372036854775807, -1, -9223372036854775808}

	for _, v := range values {
		encoded := AppendVarLong(nil, v)
		decoded, n, err := decodeVarLong(encoded)
		if err != nil {
			t.Fatalf("decodeVarLong(%d) error: %v", v, err)
		}
		if decoded != v {
			t.Errorf("decodeVarLong = %d, want %d", decoded, v)
		}
		if n != len(encoded) {
			t.Errorf("decodeVarLong consumed %d bytes, want %d", n, len(encoded))
		}
	}
}

func TestReaderFields(t *testing.T) {
	var w Writer
	w.VarInt(300)
	w.Uint8(0xAB)
	w.Bool(true)
	w.Uint16(0x1234)
	w.Int32(-5)
	w.Int64(1 << 40)
	w.Float32(1.5)
	w.Float64(-64.0625)
	w.String("en_US")

	r := NewReader(w.Bytes())

	if v, err := r.VarInt(); err != nil || v != 300 {
		t.Errorf("VarInt() = %d, %v, want 300, nil", v, err)
	}
	if v, err := r.Uint8(); err != nil || v != 0xAB {
		t.Errorf("Uint8() = %#x, %v, want 0xab, nil", v, err)
	}
	if v, err := r.Bool(); err != nil || !v {
		t.Errorf("Bool() = %v, %v, want true, nil", v, err)
	}
	if v, err := r.Uint16(); err != nil || v != 0x1234 {
		t.Errorf("Uint16() = %#x, %v, want 0x1234, nil", v, err)
	}
	if v, err := r.Int32(); err != nil || v != -5 {
		t.Errorf("Int32() = %d, %v, want -5, nil", v, err)
	}
	if v, err := r.Int64(); err != nil || v != 1<<40 {
		t.Errorf("Int64() = %d, %v, want %d, nil", v, err, int64(1)<<40)
	}
	if v, err := r.Float32(); err != nil || v != 1.5 {
		t.Errorf("Float32() = %v, %v, want 1.5, nil", v, err)
	}
	if v, err := r.Float64(); err != nil || v != -64.0625 {
		t.Errorf("Float64() = %v, %v, want -64.0625, nil", v, err)
	}
	if v, err := r.String(16); err != nil || v != "en_US" {
		t.Errorf("String() = %q, %v, want \"en_US\", nil", v, err)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", r.Remaining())
	}

	// Reads past the end fail.
	if _, err := r.Uint8(); err != ErrBufferUnderrun {
		t.Errorf("Uint8() past end error = %v, want %v", err, ErrBufferUnderrun)
	}
}

func TestReaderStringLimits(t *testing.T) {
	t.Run("over declared maximum", func(t *testing.T) {
		var w Writer
		w.String("abcdef")
		r := NewReader(w.Bytes())
		if _, err := r.String(3); err != ErrStringTooLong {
			t.Errorf("String(3) error = %v, want %v", err, ErrStringTooLong)
		}
	})

	t.Run("negative length", func(t *testing.T) {
		r := NewReader(AppendVarInt(nil, -1))
		if _, err := r.String(16); err != ErrNegativeLength {
			t.Errorf("String() error = %v, want %v", err, ErrNegativeLength)
		}
	})

	t.Run("length past body end", func(t *testing.T) {
		r := NewReader(AppendVarInt(nil, 10))
		if _, err := r.String(16); err != ErrBufferUnderrun {
			t.Errorf("String() error = %v, want %v", err, ErrBufferUnderrun)
		}
	})
}
