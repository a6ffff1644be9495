package data

// EventKind enumerates the ledger notifications the keeper reacts to.
type EventKind string

const (
	EventRoundCreated  EventKind = "RoundCreated"
	EventJoined        EventKind = "Joined"
	EventSeedFulfilled EventKind = "SeedFulfilled"
	EventDrawn         EventKind = "Drawn"
	EventClaimed       EventKind = "Claimed"
	EventPayout        EventKind = "Payout"
)

// Event is a best-effort ledger notification. Delivery may be delayed,
// duplicated or dropped entirely; it is a hint to re-evaluate, never ground
// truth.
type Event struct {
	Kind        EventKind
	RoundID     uint64
	Participant string
	Number      uint32
	Time        int64
}
