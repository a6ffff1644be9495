package data

import "math/big"

// Round is one snapshot of a game round as the ledger contract stores it.
// The keeper never mutates a Round; it re-reads a fresh snapshot before
// every decision.
type Round struct {
	ID            uint64
	StartTime     int64
	JoinDeadline  int64
	DrawInterval  int64
	EntryFee      *big.Int
	Players       []string
	SeedRequested bool
	Seed          uint64
	DrawnMask     *big.Int
	DrawCount     uint32
	LastDrawTime  int64
	Finalized     bool
	Winner        string
	PrizePool     *big.Int
	NumberSpace   uint32
	CardSize      uint32
}

// Clone returns a deep copy of the snapshot.
func (r *Round) Clone() *Round {
	if r == nil {
		return nil
	}
	c := *r
	c.Players = append([]string(nil), r.Players...)
	if r.EntryFee != nil {
		c.EntryFee = new(big.Int).Set(r.EntryFee)
	}
	if r.DrawnMask != nil {
		c.DrawnMask = new(big.Int).Set(r.DrawnMask)
	}
	if r.PrizePool != nil {
		c.PrizePool = new(big.Int).Set(r.PrizePool)
	}
	return &c
}

// RoundStats holds the all-time totals the contract tracks.
type RoundStats struct {
	TotalRounds uint64
	TotalDraws  uint64
	TotalClaims uint64
}
