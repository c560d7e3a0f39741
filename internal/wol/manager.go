// internal/wol/manager.go
package wol

import (
	"context"
	"time"

	"job-snatcher/internal/common/logger"
	"job-snatcher/internal/common/metrics"
)

// Target identifies the node to bring online.
type Target struct {
	MAC      string
	Host     string
	Port     int
	Retries  int
	BootWait time.Duration
}

// Manager is stateless; EnsureOnline is called once per batch.
type Manager struct {
	sender Sender
	prober Prober
	logger logger.Logger
	wait   func(ctx context.Context, d time.Duration) error
}

func NewManager(sender Sender, prober Prober, log logger.Logger) *Manager {
	return &Manager{
		sender: sender,
		prober: prober,
		logger: log.WithFields(map[string]interface{}{"component": "remote_compute"}),
		wait:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EnsureOnline returns true as soon as the node answers a probe. A reachable
// node is never woken. Without a configured MAC the node cannot be woken and is
// assumed to be running.
func (m *Manager) EnsureOnline(ctx context.Context, t Target) bool {
	fields := map[string]interface{}{"host": t.Host, "port": t.Port}

	if t.MAC == "" {
		m.logger.Warn("no MAC address configured, skipping wake and assuming node is running", fields)
		return true
	}

	if m.prober.Probe(ctx, t.Host, t.Port) {
		m.logger.Info("remote node already online", fields)
		return true
	}

	mac, err := ParseMAC(t.MAC)
	if err != nil {
		m.logger.Error("cannot wake remote node", map[string]interface{}{"mac": t.MAC, "error": err})
	}

	for attempt := 1; attempt <= t.Retries; attempt++ {
		m.logger.Info("wake attempt", map[string]interface{}{"attempt": attempt, "retries": t.Retries, "host": t.Host})

		if mac != nil {
			if err := m.sender.Send(ctx, mac); err != nil {
				m.logger.Warn("failed to send magic packet", map[string]interface{}{"attempt": attempt, "error": err})
			}
		}

		if err := m.wait(ctx, t.BootWait); err != nil {
			m.logger.Warn("wake wait interrupted", map[string]interface{}{"attempt": attempt, "error": err})
			break
		}

		if m.prober.Probe(ctx, t.Host, t.Port) {
			metrics.WakeOnLANSuccess.Inc()
			m.logger.Info("remote node is online", map[string]interface{}{"attempt": attempt})
			return true
		}
	}

	metrics.WakeOnLANFailure.Inc()
	m.logger.Error("remote node did not come online", map[string]interface{}{"retries": t.Retries, "host": t.Host})
	return false
}
