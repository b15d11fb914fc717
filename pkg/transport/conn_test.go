package transport

import (
	"testing"
	"time"

	"github.com/bastionmc/bastion/pkg/protocol"
)

// readWireFrame reads one frame from fr with a timeout so a lost frame
// fails the test instead of hanging it.
func readWireFrame(t *testing.T, fr *protocol.FrameReader) *protocol.Frame {
	t.Helper()

	type result struct {
		f   *protocol.Frame
		err error
	}
	ch := make(chan result, 1)
	go func() {
		f, err := fr.ReadFrame()
		ch <- result{f, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			t.Fatalf("ReadFrame() error = %v", res.err)
		}
		return res.f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
	return nil
}

func TestConnReadFrame(t *testing.T) {
	pipe := NewPipe("", "")
	defer pipe.Close()

	conn := NewConn(pipe.Server(), 0)
	defer conn.Close()

	wire := protocol.AppendFrame(nil, 0x00, []byte{0x01, 0x02, 0x03})
	if _, err := pipe.Client().Write(wire); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	type result struct {
		f   *protocol.Frame
		err error
	}
	ch := make(chan result, 1)
	go func() {
		f, err := conn.ReadFrame()
		ch <- result{f, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			t.Fatalf("ReadFrame() error = %v", res.err)
		}
		if res.f.ID != 0x00 {
			t.Errorf("frame ID = %#x, want 0x00", res.f.ID)
		}
		if len(res.f.Body) != 3 {
			t.Errorf("body length = %d, want 3", len(res.f.Body))
		}
		if got, want := conn.BytesRead(), uint64(len(wire)); got != want {
			t.Errorf("BytesRead() = %d, want %d", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
}

func TestConnWriteFrameBatching(t *testing.T) {
	pipe := NewPipe("", "")
	defer pipe.Close()

	conn := NewConn(pipe.Server(), 0)
	defer conn.Close()

	if err := conn.WriteFrame(0x02, []byte{0xAA}); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}
	if err := conn.WriteFrame(0x03, []byte{0xBB}); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}

	// Nothing reaches the wire until Flush.
	if got := conn.BytesWritten(); got != 0 {
		t.Fatalf("BytesWritten() before flush = %d, want 0", got)
	}

	if err := conn.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := conn.BytesWritten(); got == 0 {
		t.Fatal("BytesWritten() after flush = 0, want > 0")
	}

	fr := protocol.NewFrameReader(pipe.Client(), 0)

	first := readWireFrame(t, fr)
	if first.ID != 0x02 {
		t.Errorf("first frame ID = %#x, want 0x02", first.ID)
	}
	second := readWireFrame(t, fr)
	if second.ID != 0x03 {
		t.Errorf("second frame ID = %#x, want 0x03", second.ID)
	}
}

func TestConnWriteRaw(t *testing.T) {
	pipe := NewPipe("", "")
	defer pipe.Close()

	conn := NewConn(pipe.Server(), 0)
	defer conn.Close()

	wire := protocol.AppendFrame(nil, 0x07, []byte("raw"))
	if err := conn.WriteRaw(wire); err != nil {
		t.Fatalf("WriteRaw() error = %v", err)
	}
	if err := conn.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	fr := protocol.NewFrameReader(pipe.Client(), 0)
	f := readWireFrame(t, fr)
	if f.ID != 0x07 {
		t.Errorf("frame ID = %#x, want 0x07", f.ID)
	}
	if string(f.Body) != "raw" {
		t.Errorf("body = %q, want %q", f.Body, "raw")
	}
}

func TestConnRemoteHost(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want string
	}{
		{"ipv4 with port", "198.51.100.7:51423", "198.51.100.7"},
		{"ipv6 with port", "[2001:db8::1]:25565", "2001:db8::1"},
		{"no port", "198.51.100.7", "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipe := NewPipe(tt.addr, "")
			defer pipe.Close()

			conn := NewConn(pipe.Server(), 0)
			defer conn.Close()

			if got := conn.RemoteHost(); got != tt.want {
				t.Errorf("RemoteHost() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConnCloseIdempotent(t *testing.T) {
	pipe := NewPipe("", "")
	defer pipe.Close()

	conn := NewConn(pipe.Server(), 0)

	first := conn.Close()
	second := conn.Close()
	if second != first {
		t.Errorf("second Close() = %v, want %v", second, first)
	}
}
