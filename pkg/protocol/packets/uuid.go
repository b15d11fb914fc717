package packets

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/bastionmc/bastion/pkg/protocol"
)

// UUID is a 128-bit player identifier in wire order.
type UUID [16]byte

// OfflineUUID derives the offline-mode UUID for a username the same
// way vanilla servers do: a version-3 (md5) UUID over the literal
// "OfflinePlayer:" prefix plus the name. The backend will derive the
// identical UUID for the same name, so handoff stays consistent.
func OfflineUUID(name string) UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = (sum[6] & 0x0F) | 0x30 // version 3
	sum[8] = (sum[8] & 0x3F) | 0x80 // RFC 4122 variant
	return UUID(sum)
}

// String formats the UUID in the canonical dashed form.
func (u UUID) String() string {
	var buf [36]byte
	hex.Encode(buf[0:8], u[0:4])
	buf[8] = '-'
	hex.Encode(buf[9:13], u[4:6])
	buf[13] = '-'
	hex.Encode(buf[14:18], u[6:8])
	buf[18] = '-'
	hex.Encode(buf[19:23], u[8:10])
	buf[23] = '-'
	hex.Encode(buf[24:36], u[10:16])
	return string(buf[:])
}

// writeUUID appends the raw 16-byte wire form.
func writeUUID(w *protocol.Writer, u UUID) {
	w.Raw(u[:])
}

// readUUID consumes the raw 16-byte wire form.
func readUUID(r *protocol.Reader) (UUID, error) {
	var u UUID
	b, err := r.Bytes(16)
	if err != nil {
		return UUID{}, err
	}
	copy(u[:], b)
	return u, nil
}
