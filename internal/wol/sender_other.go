//go:build !unix

// internal/wol/sender_other.go
package wol

import "syscall"

func enableBroadcast(_, _ string, _ syscall.RawConn) error {
	return nil
}
