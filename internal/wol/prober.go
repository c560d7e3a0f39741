// internal/wol/prober.go
package wol

import (
	"context"
	"net"
	"strconv"
	"time"
)

// Prober checks whether the node accepts connections.
type Prober interface {
	Probe(ctx context.Context, host string, port int) bool
}

// TCPProber treats a completed TCP handshake as reachable.
type TCPProber struct {
	Timeout time.Duration
}

func NewTCPProber(timeout time.Duration) *TCPProber {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &TCPProber{Timeout: timeout}
}

func (p *TCPProber) Probe(ctx context.Context, host string, port int) bool {
	d := net.Dialer{Timeout: p.Timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
