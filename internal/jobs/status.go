// internal/jobs/status.go
package jobs

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of a job record.
type Status string

const (
	StatusDiscovered Status = "discovered"
	StatusMatched    Status = "matched"
	StatusDrafted    Status = "drafted"
	StatusSubmitted  Status = "submitted"
	StatusRejected   Status = "rejected"
	StatusOffered    Status = "offered"
)

var (
	ErrInvalidStatus     = errors.New("INVALID_STATUS")
	ErrInvalidTransition = errors.New("INVALID_STATUS_TRANSITION")
)

var rank = map[Status]int{
	StatusDiscovered: 0,
	StatusMatched:    1,
	StatusDrafted:    2,
	StatusSubmitted:  3,
	StatusRejected:   4,
	StatusOffered:    4,
}

// ParseStatus validates a stored status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	_, ok := rank[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusOffered
}

// CanTransition reports whether s -> to is a forward move. Skipping forward is
// allowed, except that rejected and offered are reachable only from submitted.
func (s Status) CanTransition(to Status) bool {
	if !s.Valid() || !to.Valid() || s.Terminal() {
		return false
	}
	if to.Terminal() {
		return s == StatusSubmitted
	}
	return rank[to] > rank[s]
}

// PipelineAdvance checks a transition the pipeline itself may perform:
// forward, and never past drafted.
func (s Status) PipelineAdvance(to Status) error {
	if rank[to] > rank[StatusDrafted] || !to.Valid() {
		return fmt.Errorf("%w: pipeline cannot set %s", ErrInvalidTransition, to)
	}
	if !s.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, to)
	}
	return nil
}
