package keeper

import (
	"context"
	"math/big"
	"time"

	logger "github.com/ElrondNetwork/elrond-go-logger"

	"github.com/aliakgoz/BingoBase/data"
	"github.com/aliakgoz/BingoBase/draw"
	"github.com/aliakgoz/BingoBase/lifecycle"
	"github.com/aliakgoz/BingoBase/utils"
)

var log = logger.GetOrCreate("keeper")

// Ledger is the keeper's view of the external service that owns round
// state. network.NetworkManager implements it against the real chain;
// tests substitute an in-memory double enforcing the same rules.
type Ledger interface {
	CurrentRoundID(ctx context.Context) (uint64, error)
	RoundInfo(ctx context.Context, roundID uint64) (*data.Round, error)
	CardOf(ctx context.Context, roundID uint64, participant string) ([]uint32, error)
	CanClaim(ctx context.Context, roundID uint64, participant string) (bool, error)
	RoundStats(ctx context.Context) (*data.RoundStats, error)
	Sequence(ctx context.Context) (uint64, error)
	SignerBalance(ctx context.Context) (float64, error)
	Submit(ctx context.Context, op *data.Operation, sequence uint64, gasPrice uint64) (string, error)
	Status(ctx context.Context, txHash string) (data.TxStatus, error)
	Subscribe(ctx context.Context) (<-chan data.Event, error)
}

// progressWatermark tracks the last observed round fingerprint; its age
// drives the stall watchdog.
type progressWatermark struct {
	roundID        uint64
	drawCount      uint32
	finalized      bool
	seed           uint64
	players        int
	lastChangeTime time.Time
}

// Keeper drives every round from creation to resolution unattended. All
// decision state (slots, sequence cursor, watermark) is owned by the one
// run goroutine; the poll ticker and the notification stream both funnel
// into its select, so no two actions are ever decided concurrently.
type Keeper struct {
	cfg    *data.AppConfig
	ledger Ledger
	store  *CheckpointStore
	now    func() time.Time

	pollInterval   time.Duration
	confirmTimeout time.Duration
	stallThreshold time.Duration
	nextRoundDelay time.Duration
	defaultFee     *big.Int

	slots      map[string]*slot
	sequence   uint64
	sequenceOK bool
	watermark  progressWatermark

	cancel context.CancelFunc
	done   chan struct{}
}

// New - builds a keeper from its collaborators. now is the clock behind
// every scheduling decision; pass time.Now outside tests.
func New(cfg *data.AppConfig, ledger Ledger, store *CheckpointStore, now func() time.Time) (*Keeper, error) {
	if ledger == nil {
		return nil, errNilLedger
	}
	if store == nil {
		return nil, errNilStore
	}
	if now == nil {
		now = time.Now
	}

	defaultFee, ok := big.NewInt(0).SetString(cfg.Game.EntryFee, 10)
	if !ok {
		return nil, errInvalidEntryFee
	}

	k := &Keeper{
		cfg:    cfg,
		ledger: ledger,
		store:  store,
		now:    now,

		pollInterval:   time.Duration(cfg.Keeper.PollInterval) * time.Second,
		confirmTimeout: time.Duration(cfg.Keeper.ConfirmTimeout) * time.Second,
		stallThreshold: time.Duration(cfg.Keeper.StallThreshold) * time.Second,
		nextRoundDelay: time.Duration(cfg.Keeper.NextRoundDelay) * time.Second,
		defaultFee:     defaultFee,

		slots: make(map[string]*slot),
		done:  make(chan struct{}),
	}

	return k, nil
}

// Start - reconciles against the last checkpoint, then begins the decision
// loop. Exactly one keeper may own the signing identity; a second instance
// would race on sequence numbers.
func (k *Keeper) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	k.cancel = cancel

	k.reconcileGap(ctx)

	events := k.trySubscribe(ctx)
	go k.run(ctx, events)
	log.Info("keeper started",
		"pollInterval", k.pollInterval,
		"confirmTimeout", k.confirmTimeout,
		"stallThreshold", k.stallThreshold)

	return nil
}

// Close - stops the decision loop and releases the checkpoint store
func (k *Keeper) Close() error {
	if k.cancel != nil {
		k.cancel()
		<-k.done
	}

	return k.store.Close()
}

func (k *Keeper) run(ctx context.Context, events <-chan data.Event) {
	defer close(k.done)

	ticker := time.NewTicker(k.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if events == nil {
				events = k.trySubscribe(ctx)
			}
			k.tick(ctx)
			k.resolveSlots(ctx)
			k.watchdog(ctx)
		case event, ok := <-events:
			if !ok {
				events = nil
				if ctx.Err() == nil {
					log.Warn("notification stream closed")
					k.reconcileGap(ctx)
					events = k.trySubscribe(ctx)
				}
				continue
			}
			k.onNotification(ctx, event)
		}
	}
}

func (k *Keeper) trySubscribe(ctx context.Context) <-chan data.Event {
	events, err := k.ledger.Subscribe(ctx)
	if err != nil {
		log.Warn("subscribe failed, relying on polling", "error", err)
		return nil
	}

	return events
}

// tick - one polling pass: re-read ground truth and take at most one legal
// action for the active round.
func (k *Keeper) tick(ctx context.Context) {
	round, err := k.activeRound(ctx)
	if err != nil {
		log.Debug("tick - ledger unavailable", "error", err)
		return
	}
	if round == nil {
		k.chainNext(ctx, nil) // empty contract: bootstrap round one
		return
	}
	k.observe(ctx, round)
	k.evaluate(ctx, round)
}

// onNotification - reacts to one best-effort event. Events are hints:
// ground truth is always re-read before acting.
func (k *Keeper) onNotification(ctx context.Context, event data.Event) {
	metricEvents.WithLabelValues(string(event.Kind)).Inc()
	log.Trace("notification", "kind", event.Kind, "round", event.RoundID)

	switch event.Kind {
	case data.EventRoundCreated, data.EventSeedFulfilled, data.EventDrawn,
		data.EventClaimed, data.EventPayout:
		k.evaluateRound(ctx, event.RoundID)
	}
}

func (k *Keeper) evaluateRound(ctx context.Context, roundID uint64) {
	round, err := k.ledger.RoundInfo(ctx, roundID)
	if err != nil {
		log.Debug("evaluateRound - read failed", "round", roundID, "error", err)
		return
	}
	k.observe(ctx, round)
	k.evaluate(ctx, round)
}

func (k *Keeper) activeRound(ctx context.Context) (*data.Round, error) {
	id, err := k.ledger.CurrentRoundID(ctx)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, nil
	}

	return k.ledger.RoundInfo(ctx, id)
}

func (k *Keeper) evaluate(ctx context.Context, round *data.Round) {
	winner := k.scan(ctx, round)
	action, ok := lifecycle.LegalAction(round, k.now(), winner)
	log.Trace("evaluated",
		"round", round.ID, "state", lifecycle.StateOf(round, k.now()), "action", action.Kind)
	if !ok {
		return
	}

	switch action.Kind {
	case lifecycle.ActionRequestSeed:
		k.submitAction(ctx, &data.Operation{Kind: data.OpRequestSeed, RoundID: round.ID})
	case lifecycle.ActionDrawNext:
		k.submitAction(ctx, &data.Operation{Kind: data.OpDrawNext, RoundID: round.ID})
	case lifecycle.ActionClaim:
		k.submitAction(ctx, &data.Operation{
			Kind:        data.OpClaimFor,
			RoundID:     round.ID,
			Participant: action.Winner,
		})
	case lifecycle.ActionCreateNext:
		k.chainNext(ctx, round)
	}
}

// scan - finds the first participant whose card the drawn mask fully
// covers, confirming claimability with the ledger before naming a winner.
// Cost is players times card size, fine at this scale.
func (k *Keeper) scan(ctx context.Context, round *data.Round) string {
	if round.Seed == 0 || round.Finalized {
		return ""
	}
	for _, participant := range round.Players {
		card, err := draw.CardFor(round.Seed, participant, round.CardSize, round.NumberSpace)
		if err != nil {
			log.Error("scan - card derivation failed",
				"round", round.ID, "participant", utils.ShortenAddress(participant), "error", err)
			return ""
		}
		if !draw.Covered(card, round.DrawnMask) {
			continue
		}
		ok, err := k.ledger.CanClaim(ctx, round.ID, participant)
		if err != nil {
			log.Debug("scan - canClaim failed", "round", round.ID, "error", err)
			return ""
		}
		if !ok {
			k.reportCardMismatch(ctx, round, participant, card)
			continue
		}
		return participant
	}

	return ""
}

// reportCardMismatch - the local win prediction and the ledger disagree:
// log both cards and carry on with ledger truth.
func (k *Keeper) reportCardMismatch(ctx context.Context, round *data.Round, participant string, local []uint32) {
	remote, err := k.ledger.CardOf(ctx, round.ID, participant)
	if err != nil {
		remote = nil
	}
	metricIllegalStates.Inc()
	log.Warn("ledger refused a predicted claim",
		"round", round.ID,
		"participant", utils.ShortenAddress(participant),
		"localCard", local,
		"ledgerCard", remote,
		"error", data.ErrIllegalState)
}

// chainNext - schedules the round superseding prev (nil when the contract
// holds no round yet). Guarded twice: the ledger must still be on prev, and
// the create slot key keeps at most one create in flight.
func (k *Keeper) chainNext(ctx context.Context, prev *data.Round) {
	prevID := uint64(0)
	fee := k.defaultFee
	if prev != nil {
		prevID = prev.ID
		if prev.EntryFee != nil && prev.EntryFee.Sign() > 0 {
			fee = prev.EntryFee
		}
		if !prev.Finalized && len(prev.Players) > 0 {
			log.Warn("abandoning unresolved round",
				"round", prev.ID,
				"strandedPool", prev.PrizePool,
				"players", len(prev.Players))
		}
	}

	current, err := k.ledger.CurrentRoundID(ctx)
	if err != nil {
		log.Debug("chainNext - ledger unavailable", "error", err)
		return
	}
	if current != prevID {
		return // already superseded
	}

	k.checkBalance(ctx)

	k.submitAction(ctx, &data.Operation{
		Kind:    data.OpCreateRound,
		RoundID: prevID,
		Create: &data.CreateParams{
			StartTime:    k.now().Add(k.nextRoundDelay).Unix(),
			JoinWindow:   k.cfg.Game.JoinWindow,
			DrawInterval: k.cfg.Game.DrawInterval,
			EntryFee:     fee,
		},
	})
}

func (k *Keeper) checkBalance(ctx context.Context) {
	balance, err := k.ledger.SignerBalance(ctx)
	if err != nil {
		return
	}
	metricSignerBalance.Set(balance)
	if k.cfg.Keeper.MinSignerBalance > 0 && balance < k.cfg.Keeper.MinSignerBalance {
		log.Warn("signer balance below minimum",
			"balance", utils.NicePrice(balance, 4),
			"minimum", utils.NicePrice(k.cfg.Keeper.MinSignerBalance, 4))
	}
}

// observe - folds a fresh snapshot into the watermark, persists the
// checkpoint on every observed change and logs the summary when a round
// reaches its payout.
func (k *Keeper) observe(ctx context.Context, round *data.Round) {
	metricCurrentRound.Set(float64(round.ID))
	metricDrawCount.Set(float64(round.DrawCount))
	metricRoundPlayers.Set(float64(len(round.Players)))

	changed := k.watermark.roundID != round.ID ||
		k.watermark.drawCount != round.DrawCount ||
		k.watermark.finalized != round.Finalized ||
		k.watermark.seed != round.Seed ||
		k.watermark.players != len(round.Players)
	if !changed {
		return
	}

	resolved := round.Finalized &&
		(k.watermark.roundID != round.ID || !k.watermark.finalized)

	k.watermark = progressWatermark{
		roundID:        round.ID,
		drawCount:      round.DrawCount,
		finalized:      round.Finalized,
		seed:           round.Seed,
		players:        len(round.Players),
		lastChangeTime: k.now(),
	}

	err := k.store.Save(&data.Checkpoint{
		RoundID:               round.ID,
		LastObservedDrawCount: round.DrawCount,
		LastObservedFinalized: round.Finalized,
		LastCheckpointTime:    k.now().Unix(),
	})
	if err != nil {
		log.Error("checkpoint save failed", "round", round.ID, "error", err)
	}
	if window := k.cfg.Keeper.CheckpointWindow; window > 0 && round.ID > window {
		err = k.store.Prune(round.ID - window)
		if err != nil {
			log.Debug("checkpoint prune failed", "error", err)
		}
	}

	if resolved {
		k.logRoundSummary(ctx, round)
	}
}

func (k *Keeper) logRoundSummary(ctx context.Context, round *data.Round) {
	metricRoundsResolved.Inc()
	stats, err := k.ledger.RoundStats(ctx)
	if err != nil {
		stats = &data.RoundStats{}
	}
	log.Info("round resolved",
		"round", round.ID,
		"winner", utils.ShortenAddress(round.Winner),
		"prize", round.PrizePool,
		"players", len(round.Players),
		"draws", round.DrawCount,
		"allTimeRounds", stats.TotalRounds,
		"allTimeDraws", stats.TotalDraws,
		"allTimeClaims", stats.TotalClaims)
}
