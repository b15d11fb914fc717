package world

import (
	"encoding/binary"
	"math"
)

// Just enough named-binary-tag encoding to emit the canned world
// metadata blobs. Write-only: the engine never parses NBT, it only
// hands prepared payloads to clients that expect them.

const (
	tagEnd      = 0x00
	tagByte     = 0x01
	tagInt      = 0x03
	tagLong     = 0x04
	tagFloat    = 0x05
	tagDouble   = 0x06
	tagString   = 0x08
	tagList     = 0x09
	tagCompound = 0x0A
)

func nbtNamed(tag byte, name string, payload []byte) []byte {
	out := make([]byte, 0, 3+len(name)+len(payload))
	out = append(out, tag)
	out = binary.BigEndian.AppendUint16(out, uint16(len(name)))
	out = append(out, name...)
	return append(out, payload...)
}

func nbtByte(name string, v int8) []byte {
	return nbtNamed(tagByte, name, []byte{byte(v)})
}

func nbtInt(name string, v int32) []byte {
	return nbtNamed(tagInt, name, binary.BigEndian.AppendUint32(nil, uint32(v)))
}

func nbtLong(name string, v int64) []byte {
	return nbtNamed(tagLong, name, binary.BigEndian.AppendUint64(nil, uint64(v)))
}

func nbtFloat(name string, v float32) []byte {
	return nbtNamed(tagFloat, name, binary.BigEndian.AppendUint32(nil, math.Float32bits(v)))
}

func nbtDouble(name string, v float64) []byte {
	return nbtNamed(tagDouble, name, binary.BigEndian.AppendUint64(nil, math.Float64bits(v)))
}

func nbtString(name, v string) []byte {
	payload := binary.BigEndian.AppendUint16(nil, uint16(len(v)))
	return nbtNamed(tagString, name, append(payload, v...))
}

// nbtCompound joins member tags into a named compound.
func nbtCompound(name string, members ...[]byte) []byte {
	return nbtNamed(tagCompound, name, nbtJoin(members, true))
}

// nbtCompoundList builds a named list of compounds; each element is a
// member set, written payload-only per the list encoding.
func nbtCompoundList(name string, elems ...[]byte) []byte {
	payload := []byte{tagCompound}
	payload = binary.BigEndian.AppendUint32(payload, uint32(len(elems)))
	for _, e := range elems {
		payload = append(payload, e...)
		payload = append(payload, tagEnd)
	}
	return nbtNamed(tagList, name, payload)
}

// nbtStringList builds a named list of strings.
func nbtStringList(name string, elems ...string) []byte {
	payload := []byte{tagString}
	payload = binary.BigEndian.AppendUint32(payload, uint32(len(elems)))
	for _, e := range elems {
		payload = binary.BigEndian.AppendUint16(payload, uint16(len(e)))
		payload = append(payload, e...)
	}
	return nbtNamed(tagList, name, payload)
}

// nbtMembers concatenates member tags without terminating them, for
// use as a compound-list element.
func nbtMembers(members ...[]byte) []byte {
	return nbtJoin(members, false)
}

// nbtRoot wraps members in the classic root form: a compound with an
// empty name. Used inside the join packet.
func nbtRoot(members ...[]byte) []byte {
	return nbtCompound("", members...)
}

// nbtRootNetwork wraps members in the 1.20.2+ network form, which
// drops the root tag's name entirely.
func nbtRootNetwork(members ...[]byte) []byte {
	out := []byte{tagCompound}
	return append(out, nbtJoin(members, true)...)
}

func nbtJoin(members [][]byte, terminate bool) []byte {
	var out []byte
	for _, m := range members {
		out = append(out, m...)
	}
	if terminate {
		out = append(out, tagEnd)
	}
	return out
}
