package data

import "errors"

// Shared submission error taxonomy. Implementations of the keeper's ledger
// interface wrap one of these sentinels so the keeper can classify faults
// with errors.Is regardless of transport.
var (
	// ErrTransientSubmission marks a failure worth retrying on the same
	// sequence number with escalated priority.
	ErrTransientSubmission = errors.New("transient submission failure")

	// ErrStaleAction means the ledger reports the action no longer applies.
	// Success-equivalent: the intended effect is already there or obsolete.
	ErrStaleAction = errors.New("action no longer applicable")

	// ErrIllegalState means the local plan and the ledger disagree. The
	// keeper must re-derive from ground truth, never assume.
	ErrIllegalState = errors.New("illegal state for action")

	// ErrResourceExhaustion means the signing identity cannot pay for the
	// submission. Fatal for that identity; surfaced to the operator.
	ErrResourceExhaustion = errors.New("insufficient resources for submission")

	// ErrLedgerUnavailable marks a failing read path. Backed off and retried
	// indefinitely; never interpreted as "round absent".
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrSequenceConsumed means the sequence number was already spent. The
	// slot is released and truth re-derived from the ledger; neither success
	// nor failure is assumed.
	ErrSequenceConsumed = errors.New("sequence number already consumed")
)
