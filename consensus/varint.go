package consensus

import (
	"encoding/binary"
	"fmt"
)

// VarInt encodes n the way the wire protocol does: a single byte for
// values below 0xFD, else a marker byte followed by a fixed-width
// little-endian integer.
func VarIntSize(n uint64) int {
	switch {
	case n < 0xfd:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

func PutVarInt(buf []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(buf, byte(n))
	case n <= 0xffff:
		buf = append(buf, 0xfd)
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], uint16(n))
		return append(buf, tmp[:]...)
	case n <= 0xffffffff:
		buf = append(buf, 0xfe)
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(n))
		return append(buf, tmp[:]...)
	default:
		buf = append(buf, 0xff)
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], n)
		return append(buf, tmp[:]...)
	}
}

// ReadVarInt decodes a VarInt from the front of b, returning the value
// and the number of bytes consumed.
func ReadVarInt(b []byte) (uint64, int, error) {
	if len(b) < 1 {
		return 0, 0, verifyErr(ErrTruncated, "varint: empty input")
	}
	switch b[0] {
	case 0xff:
		if len(b) < 9 {
			return 0, 0, verifyErr(ErrTruncated, "varint: need 8 bytes")
		}
		return binary.LittleEndian.Uint64(b[1:9]), 9, nil
	case 0xfe:
		if len(b) < 5 {
			return 0, 0, verifyErr(ErrTruncated, "varint: need 4 bytes")
		}
		return uint64(binary.LittleEndian.Uint32(b[1:5])), 5, nil
	case 0xfd:
		if len(b) < 3 {
			return 0, 0, verifyErr(ErrTruncated, "varint: need 2 bytes")
		}
		return uint64(binary.LittleEndian.Uint16(b[1:3])), 3, nil
	default:
		return uint64(b[0]), 1, nil
	}
}

// PutVarString writes a VarInt length prefix followed by the raw UTF-8
// bytes of s (used by version's sub-version field).
func PutVarString(buf []byte, s string) []byte {
	buf = PutVarInt(buf, uint64(len(s)))
	return append(buf, s...)
}

func ReadVarString(b []byte, maxLen int) (string, int, error) {
	n, used, err := ReadVarInt(b)
	if err != nil {
		return "", 0, err
	}
	if maxLen > 0 && n > uint64(maxLen) {
		return "", 0, verifyErr(ErrMalformed, "varstring: length %d exceeds max %d", n, maxLen)
	}
	if uint64(len(b)-used) < n {
		return "", 0, verifyErr(ErrTruncated, "varstring: truncated payload")
	}
	return string(b[used : used+int(n)]), used + int(n), nil
}

// PutUint32LE/BE and PutUint64LE exist alongside the encoding/binary
// helpers purely to keep call sites reading like the wire layout they
// describe ("LE" / "BE" spelled at the call site).
func PutUint32LE(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func PutUint32BE(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func PutUint64LE(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func ReadUint32LE(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, fmt.Errorf("consensus: need 4 bytes, got %d", len(b))
	}
	return binary.LittleEndian.Uint32(b), nil
}

func ReadUint64LE(b []byte) (uint64, error) {
	if len(b) < 8 {
		return 0, fmt.Errorf("consensus: need 8 bytes, got %d", len(b))
	}
	return binary.LittleEndian.Uint64(b), nil
}
