package protocol

import "io"

// Frame is one wire packet: a VarInt length prefix covering a VarInt
// packet ID plus the body.
type Frame struct {
	// ID is the packet ID within the connection's current phase.
	ID int32

	// Body is the packet payload after the ID.
	Body []byte

	// Wire is the complete frame as read from the stream, length
	// prefix included. Kept so verified connections can be replayed
	// to the backend byte-for-byte.
	Wire []byte
}

// FrameReader reads length-prefixed frames from a stream.
type FrameReader struct {
	r      io.Reader
	maxLen int32
}

// NewFrameReader creates a frame reader. Frames longer than maxLen are
// rejected without being read; maxLen <= 0 selects DefaultMaxFrameLen.
func NewFrameReader(r io.Reader, maxLen int32) *FrameReader {
	if maxLen <= 0 {
		maxLen = DefaultMaxFrameLen
	}
	return &FrameReader{r: r, maxLen: maxLen}
}

// ReadFrame reads the next frame. io.EOF is returned untouched when the
// peer closes between frames; a close mid-frame surfaces as
// io.ErrUnexpectedEOF.
func (fr *FrameReader) ReadFrame() (*Frame, error) {
	// Read the length prefix byte-by-byte, keeping the raw bytes so
	// the full frame can be reassembled for replay.
	var prefix [MaxVarIntBytes]byte
	var length uint32
	n := 0
	for {
		if _, err := io.ReadFull(fr.r, prefix[n:n+1]); err != nil {
			if n > 0 && err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		b := prefix[n]
		length |= uint32(b&0x7F) << (7 * n)
		n++
		if b&0x80 == 0 {
			break
		}
		if n == MaxVarIntBytes {
			return nil, ErrVarIntTooBig
		}
	}

	frameLen := int32(length)
	if frameLen == 0 {
		return nil, ErrFrameEmpty
	}
	if frameLen < 0 || frameLen > fr.maxLen {
		return nil, ErrFrameTooLarge
	}

	wire := make([]byte, n+int(frameLen))
	copy(wire, prefix[:n])
	if _, err := io.ReadFull(fr.r, wire[n:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	payload := wire[n:]
	id, idLen, err := decodeVarInt(payload)
	if err != nil {
		return nil, err
	}

	return &Frame{ID: id, Body: payload[idLen:], Wire: wire}, nil
}

// AppendFrame appends a complete frame (length prefix, packet ID, body)
// to dst and returns the extended slice.
func AppendFrame(dst []byte, id int32, body []byte) []byte {
	dst = AppendVarInt(dst, int32(VarIntLen(id)+len(body)))
	dst = AppendVarInt(dst, id)
	return append(dst, body...)
}

// FrameWriter writes length-prefixed frames to a stream. Each frame is
// assembled in one buffer and written with a single Write call so
// frames are never interleaved by concurrent writers at the syscall
// boundary; callers still serialize writes per connection.
type FrameWriter struct {
	w io.Writer
}

// NewFrameWriter creates a frame writer.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame frames and writes one packet.
func (fw *FrameWriter) WriteFrame(id int32, body []byte) error {
	_, err := fw.w.Write(AppendFrame(nil, id, body))
	return err
}

// WriteRaw writes pre-framed bytes verbatim. Used to replay captured
// frames and to flush batched packet sequences.
func (fw *FrameWriter) WriteRaw(wire []byte) error {
	_, err := fw.w.Write(wire)
	return err
}
