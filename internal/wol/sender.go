// internal/wol/sender.go
package wol

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

// Sender delivers a wake frame. Delivery is fire-and-forget.
type Sender interface {
	Send(ctx context.Context, mac net.HardwareAddr) error
}

// UDPSender broadcasts the magic packet over UDP.
type UDPSender struct {
	BroadcastAddr string
	Port          int
}

func NewUDPSender(broadcastAddr string, port int) *UDPSender {
	if broadcastAddr == "" {
		broadcastAddr = "255.255.255.255"
	}
	if port == 0 {
		port = DefaultPort
	}
	return &UDPSender{BroadcastAddr: broadcastAddr, Port: port}
}

func (s *UDPSender) Send(ctx context.Context, mac net.HardwareAddr) error {
	dst, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(s.BroadcastAddr, strconv.Itoa(s.Port)))
	if err != nil {
		return fmt.Errorf("resolve broadcast address: %w", err)
	}

	lc := net.ListenConfig{Control: enableBroadcast}
	conn, err := lc.ListenPacket(ctx, "udp4", ":0")
	if err != nil {
		return fmt.Errorf("open udp socket: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}

	packet := MagicPacket(mac)
	n, err := conn.WriteTo(packet, dst)
	if err != nil {
		return fmt.Errorf("send magic packet: %w", err)
	}
	if n != len(packet) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(packet))
	}
	return nil
}
