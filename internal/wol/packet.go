// Package wol keeps the sleep-capable remote inference node reachable:
// it probes the node and, when needed, wakes it with a Wake-on-LAN magic packet.
package wol

import (
	"bytes"
	"errors"
	"fmt"
	"net"
)

const (
	// MagicPacketSize is 6 sync bytes followed by 16 copies of the MAC.
	MagicPacketSize = 6 + 16*6
	DefaultPort     = 9
)

var ErrInvalidMAC = errors.New("INVALID_MAC_ADDRESS")

// ParseMAC accepts colon, hyphen or dot separated EUI-48 addresses.
func ParseMAC(s string) (net.HardwareAddr, error) {
	mac, err := net.ParseMAC(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMAC, s)
	}
	if len(mac) != 6 {
		return nil, fmt.Errorf("%w: %s is not a 48-bit address", ErrInvalidMAC, s)
	}
	return mac, nil
}

// MagicPacket builds the 102-byte wake frame for mac.
func MagicPacket(mac net.HardwareAddr) []byte {
	packet := make([]byte, 0, MagicPacketSize)
	packet = append(packet, bytes.Repeat([]byte{0xFF}, 6)...)
	for i := 0; i < 16; i++ {
		packet = append(packet, mac...)
	}
	return packet
}
