package keeper

import (
	"context"
	"errors"
	"time"

	"github.com/aliakgoz/BingoBase/data"
)

// slot - one outstanding replaceable submission. The sequence number is
// allocated when the slot opens and never changes; every replacement
// reuses it at a higher gas price, so at most one attempt can commit.
type slot struct {
	key         string
	op          *data.Operation
	sequence    uint64
	gasPrice    uint64
	attempts    int
	txHash      string
	submittedAt time.Time
}

// submitAction - opens a slot for the operation unless one is already in
// flight for the same logical action, and sends the first attempt.
func (k *Keeper) submitAction(ctx context.Context, op *data.Operation) {
	key := op.SlotKey()
	if _, exists := k.slots[key]; exists {
		return
	}
	if !k.ensureSequence(ctx) {
		return
	}

	s := &slot{
		key:      key,
		op:       op,
		sequence: k.sequence,
		gasPrice: k.cfg.Keeper.BaseGasPrice,
	}
	k.slots[key] = s
	k.sequence++
	k.submitSlot(ctx, s)
}

func (k *Keeper) submitSlot(ctx context.Context, s *slot) {
	s.attempts++
	s.submittedAt = k.now()

	hash, err := k.ledger.Submit(ctx, s.op, s.sequence, s.gasPrice)
	if err != nil {
		k.handleSubmitError(ctx, s, err)
		return
	}
	s.txHash = hash
	metricSubmissions.WithLabelValues(string(s.op.Kind)).Inc()
	log.Info("operation submitted",
		"kind", s.op.Kind, "round", s.op.RoundID, "sequence", s.sequence,
		"attempt", s.attempts, "gasPrice", s.gasPrice, "tx", hash)
}

func (k *Keeper) handleSubmitError(ctx context.Context, s *slot, err error) {
	switch {
	case errors.Is(err, data.ErrStaleAction):
		// success-equivalent: the intended effect is already there or
		// obsolete, but the sequence was never spent
		log.Debug("stale action dropped", "kind", s.op.Kind, "round", s.op.RoundID)
		metricStaleDrops.Inc()
		k.releaseSlot(s)
		k.abortSlots(ctx, "stale action")
	case errors.Is(err, data.ErrSequenceConsumed):
		log.Warn("sequence already consumed", "kind", s.op.Kind, "sequence", s.sequence)
		k.releaseSlot(s)
		k.abortSlots(ctx, "sequence consumed")
	case errors.Is(err, data.ErrResourceExhaustion):
		log.Error("signer cannot pay for submission", "kind", s.op.Kind, "error", err)
		metricFatalErrors.Inc()
		k.releaseSlot(s)
		k.abortSlots(ctx, "resource exhaustion")
	default:
		log.Warn("submission failed, keeping slot for retry",
			"kind", s.op.Kind, "sequence", s.sequence, "attempt", s.attempts, "error", err)
	}
}

// resolveSlots - the confirmation pass: release confirmed slots, replace
// unconfirmed ones past the confirmation timeout at an escalated gas price,
// give up after the attempt cap.
func (k *Keeper) resolveSlots(ctx context.Context) {
	keys := make([]string, 0, len(k.slots))
	for key := range k.slots {
		keys = append(keys, key)
	}
	for _, key := range keys {
		s, ok := k.slots[key]
		if !ok {
			continue // dropped by an earlier resolution this pass
		}
		k.resolveSlot(ctx, s)
	}
}

func (k *Keeper) resolveSlot(ctx context.Context, s *slot) {
	if s.txHash != "" {
		status, err := k.ledger.Status(ctx, s.txHash)
		if err != nil {
			log.Debug("status lookup failed", "tx", s.txHash, "error", err)
			return
		}
		switch status {
		case data.TxSuccess:
			metricConfirmations.WithLabelValues(string(s.op.Kind)).Inc()
			log.Info("operation confirmed",
				"kind", s.op.Kind, "round", s.op.RoundID, "sequence", s.sequence, "tx", s.txHash)
			k.releaseSlot(s)
			return
		case data.TxFail, data.TxInvalid:
			log.Warn("operation rejected by the ledger",
				"kind", s.op.Kind, "round", s.op.RoundID, "tx", s.txHash, "status", status)
			k.releaseSlot(s)
			k.abortSlots(ctx, "rejected operation")
			return
		}
	}

	if k.now().Sub(s.submittedAt) < k.confirmTimeout {
		return
	}

	// the sequence may have been spent by an attempt we lost track of;
	// never assume which way it went, re-derive from the ledger
	if current, err := k.ledger.Sequence(ctx); err == nil && current > s.sequence {
		log.Warn("sequence consumed outside the slot",
			"kind", s.op.Kind, "sequence", s.sequence, "accountSequence", current)
		k.releaseSlot(s)
		k.abortSlots(ctx, "sequence consumed")
		return
	}

	if s.attempts >= k.cfg.Keeper.MaxAttempts {
		log.Error("operation abandoned after attempt cap",
			"kind", s.op.Kind, "round", s.op.RoundID, "sequence", s.sequence, "attempts", s.attempts)
		k.releaseSlot(s)
		k.abortSlots(ctx, "attempt cap")
		return
	}

	s.gasPrice = escalate(s.gasPrice, k.cfg.Keeper.GasBumpPercent, k.cfg.Keeper.MaxGasPrice)
	metricReplacements.Inc()
	log.Info("replacing unconfirmed operation",
		"kind", s.op.Kind, "round", s.op.RoundID, "sequence", s.sequence,
		"attempt", s.attempts+1, "gasPrice", s.gasPrice)
	k.submitSlot(ctx, s)
}

func (k *Keeper) releaseSlot(s *slot) {
	delete(k.slots, s.key)
}

// abortSlots - drops every outstanding slot and re-reads the sequence
// cursor. Used whenever a sequence was spent or skipped under us: slots
// holding later sequences can no longer commit in order.
func (k *Keeper) abortSlots(ctx context.Context, reason string) {
	if len(k.slots) > 0 {
		log.Warn("dropping outstanding slots", "count", len(k.slots), "reason", reason)
		k.slots = make(map[string]*slot)
	}
	k.resyncSequence(ctx)
}

func (k *Keeper) ensureSequence(ctx context.Context) bool {
	if k.sequenceOK {
		return true
	}
	sequence, err := k.ledger.Sequence(ctx)
	if err != nil {
		log.Warn("sequence cursor unavailable", "error", err)
		return false
	}
	k.sequence = sequence
	k.sequenceOK = true
	log.Debug("sequence cursor initialized", "sequence", sequence)

	return true
}

func (k *Keeper) resyncSequence(ctx context.Context) {
	k.sequenceOK = false
	metricSequenceResyncs.Inc()
	k.ensureSequence(ctx)
}

// escalate - geometric gas price bump, capped
func escalate(gasPrice, bumpPercent, maxGasPrice uint64) uint64 {
	bumped := gasPrice + gasPrice*bumpPercent/100
	if bumped <= gasPrice {
		bumped = gasPrice + 1
	}
	if maxGasPrice > 0 && bumped > maxGasPrice {
		bumped = maxGasPrice
	}

	return bumped
}
