package p2p

import (
	"encoding/binary"
	"fmt"
	"net"

	"litepeer.dev/client/consensus"
)

// NetAddress is the 26-byte network-address record embedded in
// `version`, and (with an optional 4-byte timestamp prefix) repeated in
// `addr` (spec.md §4.3).
type NetAddress struct {
	Timestamp uint32 // only meaningful/encoded inside `addr`
	Services  uint64
	IP        net.IP // always rendered as a 16-byte IPv4-mapped or native IPv6 address
	Port      uint16
}

// ipv4MappedPrefix is the fixed 12-byte prefix that maps an IPv4
// address into the 16-byte field (fixture #1 in spec.md §8).
var ipv4MappedPrefix = [12]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff}

func to16(ip net.IP) [16]byte {
	var out [16]byte
	if v4 := ip.To4(); v4 != nil {
		copy(out[:12], ipv4MappedPrefix[:])
		copy(out[12:], v4)
		return out
	}
	copy(out[:], ip.To16())
	return out
}

// EncodeNetAddress writes the 26-byte body (services, IP, big-endian
// port). withTimestamp additionally prefixes a little-endian u32
// timestamp, as `addr` does for peers announcing protocol version >
// 31402.
func EncodeNetAddress(a NetAddress, withTimestamp bool) []byte {
	out := make([]byte, 0, 30)
	if withTimestamp {
		out = consensus.PutUint32LE(out, a.Timestamp)
	}
	out = consensus.PutUint64LE(out, a.Services)
	ip16 := to16(a.IP)
	out = append(out, ip16[:]...)
	var portBuf [2]byte
	binary.BigEndian.PutUint16(portBuf[:], a.Port)
	out = append(out, portBuf[:]...)
	return out
}

// DecodeNetAddress reads one NetAddress, returning the address and the
// number of bytes consumed.
func DecodeNetAddress(b []byte, withTimestamp bool) (NetAddress, int, error) {
	var a NetAddress
	off := 0
	if withTimestamp {
		if len(b) < 4 {
			return a, 0, fmt.Errorf("p2p: net_addr: truncated timestamp")
		}
		ts, _ := consensus.ReadUint32LE(b)
		a.Timestamp = ts
		off += 4
	}
	if len(b)-off < 26 {
		return a, 0, fmt.Errorf("p2p: net_addr: truncated body")
	}
	services, _ := consensus.ReadUint64LE(b[off:])
	a.Services = services
	off += 8
	ip := make(net.IP, 16)
	copy(ip, b[off:off+16])
	a.IP = ip
	off += 16
	a.Port = binary.BigEndian.Uint16(b[off : off+2])
	off += 2
	return a, off, nil
}
