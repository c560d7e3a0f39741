// internal/pipeline/remote.go
package pipeline

import (
	"context"

	apperrors "job-snatcher/internal/common/errors"
	"job-snatcher/internal/stages"
)

// classifyFunc maps a service status to an item outcome and whether the id survives.
type classifyFunc func(status string) (Outcome, bool)

func classifyProcessed(status string) (Outcome, bool) {
	switch status {
	case stages.StatusProcessed, stages.StatusDrafted:
		return OutcomeProcessed, true
	case stages.StatusSkipped:
		return OutcomeSkipped, false
	default:
		return OutcomeFailed, false
	}
}

func classifyDrafted(status string) (Outcome, bool) {
	switch status {
	case stages.StatusDrafted:
		return OutcomeProcessed, true
	case stages.StatusSkipped:
		return OutcomeSkipped, false
	default:
		return OutcomeFailed, false
	}
}


// callRemote leases ids, posts them to endpoint and adds one item per id to
// report in input order. A returned error is structural and already carries
// a StandardError code; no items are added in that case.
func (r *itemRunner) callRemote(ctx context.Context, report *StageReport, caller stages.Caller, endpoint string, ids []string, classify classifyFunc) error {
	leased, refused, release := r.leaseAll(ctx, ids)
	defer release()

	byID := make(map[string]itemResult, len(ids))
	for _, item := range refused {
		byID[item.JobID] = itemResult{item: item}
	}

	if len(leased) > 0 {
		resp, err := caller.Call(ctx, endpoint, leased)
		if apperrors.HasCode(err, apperrors.ErrCodeDuplicateJob) {
			for _, id := range leased {
				byID[id] = itemResult{item: skipped(id, ReasonDuplicate)}
			}
		} else if err != nil {
			return err
		} else {
			for _, o := range resp.Outcomes(leased) {
				outcome, survive := classify(o.Status)
				item := ItemResult{JobID: o.JobID, Outcome: outcome, Reason: o.Reason}
				if outcome == OutcomeFailed && item.Reason == "" {
					item.Reason = o.Status
				}
				byID[o.JobID] = itemResult{item: item, survive: survive}
			}
		}
	}

	for _, id := range ids {
		res := byID[id]
		report.add(res.item, res.survive)
	}
	return nil
}
