package keeper

import (
	"context"
)

// watchdog - fires when the watermark has not moved for the stall
// threshold. It drops every in-flight slot (their fate is unknowable by
// now) and forces one fresh evaluation. The watermark resets first so a
// still-stuck round fires again only after a full threshold.
func (k *Keeper) watchdog(ctx context.Context) {
	if k.watermark.lastChangeTime.IsZero() {
		return
	}
	idle := k.now().Sub(k.watermark.lastChangeTime)
	if idle < k.stallThreshold {
		return
	}

	metricWatchdogFirings.Inc()
	log.Warn("watchdog - no observable progress, forcing evaluation",
		"round", k.watermark.roundID, "idle", idle)

	k.watermark.lastChangeTime = k.now()
	k.abortSlots(ctx, "watchdog")

	round, err := k.activeRound(ctx)
	if err != nil || round == nil {
		return
	}
	k.evaluate(ctx, round)
}

// reconcileGap - replays everything between the last durable checkpoint
// and the ledger head. Observations are idempotent and submissions are
// guarded by ledger state, so replaying an already-handled round is
// harmless; the one unrecoverable mistake would be skipping a round.
func (k *Keeper) reconcileGap(ctx context.Context) {
	cp, err := k.store.Latest()
	if err != nil {
		log.Warn("reconcile - checkpoint read failed", "error", err)
		cp = nil
	}

	current, err := k.ledger.CurrentRoundID(ctx)
	if err != nil {
		log.Warn("reconcile - ledger unavailable", "error", err)
		return
	}
	if current == 0 {
		return
	}

	from := current
	if cp != nil && cp.RoundID > 0 && cp.RoundID < current {
		from = cp.RoundID
	}
	log.Info("reconciling", "from", from, "to", current)

	for id := from; id <= current; id++ {
		round, err := k.ledger.RoundInfo(ctx, id)
		if err != nil {
			log.Warn("reconcile - round read failed", "round", id, "error", err)
			continue
		}
		k.observe(ctx, round)
		if id == current {
			k.evaluate(ctx, round)
		}
	}
}
