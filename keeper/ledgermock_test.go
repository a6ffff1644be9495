package keeper

import (
	"context"
	"fmt"
	"math/big"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aliakgoz/BingoBase/data"
	"github.com/aliakgoz/BingoBase/draw"
	"github.com/aliakgoz/BingoBase/utils"
)

// fakeClock - deterministic time source shared by the keeper under test
// and the mock ledger
type fakeClock struct {
	mut     sync.Mutex
	current time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mut.Lock()
	defer c.mut.Unlock()

	return c.current
}

func (c *fakeClock) advance(d time.Duration) {
	c.mut.Lock()
	defer c.mut.Unlock()
	c.current = c.current.Add(d)
}

type mockTx struct {
	op       *data.Operation
	sequence uint64
}

// mockLedger - in-memory ledger double enforcing the contract's rules:
// sequence ordering, join fees and window, seed settlement, draw
// derivation, claim validity. autoCommit applies accepted submissions
// immediately; manual mode parks them until commit or fail.
type mockLedger struct {
	mut         sync.Mutex
	clock       *fakeClock
	numberSpace uint32
	cardSize    uint32

	rounds    map[uint64]*data.Round
	currentID uint64
	nonce     uint64
	balance   float64
	stats     data.RoundStats

	autoCommit    bool
	seedOnRequest uint64
	claimDenied   map[string]bool

	pending      map[string]*mockTx
	statuses     map[string]data.TxStatus
	submitted    []*data.Operation
	submitErrs   []error
	events       chan data.Event
	subscribeErr error

	roundInfoCalls int
	cardOfCalls    int
	statsCalls     int
	txCounter      int
}

func newMockLedger(clock *fakeClock) *mockLedger {
	return &mockLedger{
		clock:       clock,
		numberSpace: 10,
		cardSize:    3,
		rounds:      make(map[uint64]*data.Round),
		balance:     5,
		autoCommit:  true,
		claimDenied: make(map[string]bool),
		pending:     make(map[string]*mockTx),
		statuses:    make(map[string]data.TxStatus),
	}
}

func claimKey(roundID uint64, participant string) string {
	return fmt.Sprintf("%d|%s", roundID, participant)
}

func (m *mockLedger) CurrentRoundID(ctx context.Context) (uint64, error) {
	m.mut.Lock()
	defer m.mut.Unlock()

	return m.currentID, nil
}

func (m *mockLedger) RoundInfo(ctx context.Context, roundID uint64) (*data.Round, error) {
	m.mut.Lock()
	defer m.mut.Unlock()
	m.roundInfoCalls++

	round, ok := m.rounds[roundID]
	if !ok {
		return nil, fmt.Errorf("%w: round %d", data.ErrLedgerUnavailable, roundID)
	}

	return round.Clone(), nil
}

func (m *mockLedger) CardOf(ctx context.Context, roundID uint64, participant string) ([]uint32, error) {
	m.mut.Lock()
	defer m.mut.Unlock()
	m.cardOfCalls++

	round, ok := m.rounds[roundID]
	if !ok || round.Seed == 0 {
		return nil, data.ErrIllegalState
	}

	return draw.CardFor(round.Seed, participant, round.CardSize, round.NumberSpace)
}

func (m *mockLedger) CanClaim(ctx context.Context, roundID uint64, participant string) (bool, error) {
	m.mut.Lock()
	defer m.mut.Unlock()

	return m.canClaim(roundID, participant)
}

func (m *mockLedger) canClaim(roundID uint64, participant string) (bool, error) {
	if m.claimDenied[claimKey(roundID, participant)] {
		return false, nil
	}
	round, ok := m.rounds[roundID]
	if !ok || round.Seed == 0 || round.Finalized {
		return false, nil
	}
	card, err := draw.CardFor(round.Seed, participant, round.CardSize, round.NumberSpace)
	if err != nil {
		return false, err
	}

	return draw.Covered(card, round.DrawnMask), nil
}

func (m *mockLedger) RoundStats(ctx context.Context) (*data.RoundStats, error) {
	m.mut.Lock()
	defer m.mut.Unlock()
	m.statsCalls++
	stats := m.stats

	return &stats, nil
}

func (m *mockLedger) Sequence(ctx context.Context) (uint64, error) {
	m.mut.Lock()
	defer m.mut.Unlock()

	return m.nonce, nil
}

func (m *mockLedger) SignerBalance(ctx context.Context) (float64, error) {
	m.mut.Lock()
	defer m.mut.Unlock()

	return m.balance, nil
}

func (m *mockLedger) Submit(ctx context.Context, op *data.Operation, sequence uint64, gasPrice uint64) (string, error) {
	m.mut.Lock()
	defer m.mut.Unlock()

	if len(m.submitErrs) > 0 {
		err := m.submitErrs[0]
		m.submitErrs = m.submitErrs[1:]
		if err != nil {
			return "", err
		}
	}
	if sequence < m.nonce {
		return "", fmt.Errorf("%w: sequence %d, account at %d", data.ErrSequenceConsumed, sequence, m.nonce)
	}

	m.txCounter++
	hash := fmt.Sprintf("tx%04d", m.txCounter)
	if m.autoCommit {
		err := m.apply(op)
		if err != nil {
			return "", err
		}
		m.nonce = sequence + 1
		m.statuses[hash] = data.TxSuccess
	} else {
		m.pending[hash] = &mockTx{op: op, sequence: sequence}
		m.statuses[hash] = data.TxUnknown
	}
	m.submitted = append(m.submitted, op)

	return hash, nil
}

func (m *mockLedger) Status(ctx context.Context, txHash string) (data.TxStatus, error) {
	m.mut.Lock()
	defer m.mut.Unlock()

	status, ok := m.statuses[txHash]
	if !ok {
		return data.TxUnknown, nil
	}

	return status, nil
}

func (m *mockLedger) Subscribe(ctx context.Context) (<-chan data.Event, error) {
	m.mut.Lock()
	defer m.mut.Unlock()

	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}
	if m.events == nil {
		m.events = make(chan data.Event, 8)
	}

	return m.events, nil
}

// commit - applies one parked transaction and marks it successful
func (m *mockLedger) commit(hash string) error {
	m.mut.Lock()
	defer m.mut.Unlock()

	tx, ok := m.pending[hash]
	if !ok {
		return fmt.Errorf("no pending transaction %s", hash)
	}
	err := m.apply(tx.op)
	if err != nil {
		return err
	}
	m.nonce = tx.sequence + 1
	m.statuses[hash] = data.TxSuccess
	delete(m.pending, hash)

	return nil
}

// fail - marks one parked transaction rejected without applying it
func (m *mockLedger) fail(hash string) {
	m.mut.Lock()
	defer m.mut.Unlock()
	m.statuses[hash] = data.TxFail
	delete(m.pending, hash)
}

func (m *mockLedger) apply(op *data.Operation) error {
	switch op.Kind {
	case data.OpCreateRound:
		return m.applyCreate(op)
	case data.OpJoin:
		return m.applyJoin(op)
	case data.OpRequestSeed:
		return m.applyRequestSeed(op)
	case data.OpDrawNext:
		return m.applyDrawNext(op)
	case data.OpClaimFor:
		return m.applyClaimFor(op)
	}

	return fmt.Errorf("unknown operation %s", op.Kind)
}

func (m *mockLedger) applyCreate(op *data.Operation) error {
	if m.currentID != op.RoundID {
		return fmt.Errorf("%w: round %d already superseded", data.ErrStaleAction, op.RoundID)
	}
	if op.Create == nil {
		return fmt.Errorf("%w: missing round parameters", data.ErrIllegalState)
	}

	m.currentID++
	m.stats.TotalRounds++
	m.rounds[m.currentID] = &data.Round{
		ID:           m.currentID,
		StartTime:    op.Create.StartTime,
		JoinDeadline: op.Create.StartTime + op.Create.JoinWindow,
		DrawInterval: op.Create.DrawInterval,
		EntryFee:     new(big.Int).Set(op.Create.EntryFee),
		DrawnMask:    big.NewInt(0),
		PrizePool:    big.NewInt(0),
		NumberSpace:  m.numberSpace,
		CardSize:     m.cardSize,
	}

	return nil
}

func (m *mockLedger) applyJoin(op *data.Operation) error {
	round, ok := m.rounds[op.RoundID]
	if !ok {
		return fmt.Errorf("%w: no round %d", data.ErrIllegalState, op.RoundID)
	}
	if round.Finalized || m.clock.Now().Unix() >= round.JoinDeadline {
		return fmt.Errorf("%w: join window closed", data.ErrStaleAction)
	}
	if op.Value == nil || op.Value.Cmp(round.EntryFee) != 0 {
		return fmt.Errorf("%w: wrong entry fee", data.ErrIllegalState)
	}

	round.Players = append(round.Players, op.Participant)
	round.PrizePool = new(big.Int).Add(round.PrizePool, op.Value)

	return nil
}

func (m *mockLedger) applyRequestSeed(op *data.Operation) error {
	round, ok := m.rounds[op.RoundID]
	if !ok || round.Finalized || round.Seed != 0 {
		return fmt.Errorf("%w: seed settled", data.ErrStaleAction)
	}
	if round.SeedRequested {
		return fmt.Errorf("%w: seed already requested", data.ErrStaleAction)
	}
	if m.clock.Now().Unix() < round.JoinDeadline {
		return fmt.Errorf("%w: join window still open", data.ErrIllegalState)
	}

	round.SeedRequested = true
	if m.seedOnRequest != 0 {
		round.Seed = m.seedOnRequest
	}

	return nil
}

func (m *mockLedger) applyDrawNext(op *data.Operation) error {
	round, ok := m.rounds[op.RoundID]
	if !ok || round.Finalized {
		return fmt.Errorf("%w: round settled", data.ErrStaleAction)
	}
	if round.Seed == 0 {
		return fmt.Errorf("%w: seed not fulfilled", data.ErrIllegalState)
	}
	if round.DrawCount >= round.NumberSpace {
		return fmt.Errorf("%w: numbers exhausted", data.ErrStaleAction)
	}

	number, err := draw.NextNumber(round.Seed, round.DrawCount, round.DrawnMask, round.NumberSpace)
	if err != nil {
		return err
	}
	round.DrawnMask = utils.SetNumber(round.DrawnMask, number)
	round.DrawCount++
	round.LastDrawTime = m.clock.Now().Unix()
	m.stats.TotalDraws++

	return nil
}

func (m *mockLedger) applyClaimFor(op *data.Operation) error {
	round, ok := m.rounds[op.RoundID]
	if !ok || round.Finalized {
		return fmt.Errorf("%w: round settled", data.ErrStaleAction)
	}
	claimable, err := m.canClaim(op.RoundID, op.Participant)
	if err != nil {
		return err
	}
	if !claimable {
		return fmt.Errorf("%w: card not covered", data.ErrIllegalState)
	}

	round.Finalized = true
	round.Winner = op.Participant
	m.stats.TotalClaims++

	return nil
}

// join - a participant entering the round; the keeper itself never joins
func (m *mockLedger) join(t *testing.T, roundID uint64, participant string, fee *big.Int) {
	m.mut.Lock()
	defer m.mut.Unlock()
	err := m.apply(&data.Operation{
		Kind:        data.OpJoin,
		RoundID:     roundID,
		Participant: participant,
		Value:       fee,
	})
	require.Nil(t, err)
}

// fulfillSeed - the randomness oracle answering a pending request
func (m *mockLedger) fulfillSeed(roundID uint64, seed uint64) {
	m.mut.Lock()
	defer m.mut.Unlock()
	m.rounds[roundID].Seed = seed
}

func (m *mockLedger) addRound(round *data.Round) {
	m.mut.Lock()
	defer m.mut.Unlock()
	m.rounds[round.ID] = round
	if round.ID > m.currentID {
		m.currentID = round.ID
	}
}

func (m *mockLedger) drawCount(roundID uint64) uint32 {
	m.mut.Lock()
	defer m.mut.Unlock()

	round, ok := m.rounds[roundID]
	if !ok {
		return 0
	}

	return round.DrawCount
}

// testRound - a round whose join window already closed at the clock's epoch
func testRound(id uint64, clock *fakeClock) *data.Round {
	now := clock.Now().Unix()

	return &data.Round{
		ID:           id,
		StartTime:    now - 200,
		JoinDeadline: now - 100,
		DrawInterval: 10,
		EntryFee:     big.NewInt(1),
		DrawnMask:    big.NewInt(0),
		PrizePool:    big.NewInt(0),
		NumberSpace:  10,
		CardSize:     3,
	}
}

func testConfig() *data.AppConfig {
	cfg := &data.AppConfig{
		Seedphrase:      "test",
		ContractAddress: "erd1contract",
	}
	cfg.Game.EntryFee = "1"
	cfg.Game.JoinWindow = 100
	cfg.Game.DrawInterval = 10
	cfg.Game.NumberSpace = 10
	cfg.Game.CardSize = 3
	cfg.Keeper.PollInterval = 6
	cfg.Keeper.ConfirmTimeout = 30
	cfg.Keeper.StallThreshold = 120
	cfg.Keeper.MaxAttempts = 3
	cfg.Keeper.BaseGasPrice = 1000000000
	cfg.Keeper.GasBumpPercent = 20
	cfg.Keeper.MaxGasPrice = 3000000000
	cfg.Keeper.CheckpointWindow = 64
	cfg.Keeper.NextRoundDelay = 30
	cfg.Keeper.MinSignerBalance = 0.1

	return cfg
}

func newTestKeeper(t *testing.T, ledger Ledger, clock *fakeClock) *Keeper {
	store, err := NewCheckpointStore(filepath.Join(t.TempDir(), "checkpoints"))
	require.Nil(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	k, err := New(testConfig(), ledger, store, clock.Now)
	require.Nil(t, err)

	return k
}
