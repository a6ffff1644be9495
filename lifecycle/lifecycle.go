package lifecycle

import (
	"time"

	"github.com/aliakgoz/BingoBase/data"
)

// State is one phase of a round, derived from a snapshot and the clock.
type State int

const (
	StateScheduled State = iota
	StateJoinable
	StateAwaitingSeed
	StateDrawing
	StateResolved
	StateExhausted
)

var stateNames = []string{"Scheduled", "Joinable", "AwaitingSeed", "Drawing", "Resolved", "Exhausted"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}

	return "Unknown"
}

// ActionKind is the single next step the keeper may take for a round.
type ActionKind int

const (
	ActionWait ActionKind = iota
	ActionRequestSeed
	ActionDrawNext
	ActionClaim
	ActionCreateNext
)

var actionNames = []string{"Wait", "RequestSeed", "DrawNext", "Claim", "CreateNext"}

func (a ActionKind) String() string {
	if a >= 0 && int(a) < len(actionNames) {
		return actionNames[a]
	}

	return "Unknown"
}

// Action pairs an action kind with the participant it targets, if any.
type Action struct {
	Kind   ActionKind
	Winner string
}

// StateOf - derives the round's state from its snapshot and the clock.
// A finalized round is Resolved no matter what else the snapshot says;
// a fully drawn round without a payout is Exhausted.
func StateOf(round *data.Round, now time.Time) State {
	switch {
	case round.Finalized:
		return StateResolved
	case round.Seed != 0 && round.DrawCount >= round.NumberSpace:
		return StateExhausted
	case round.Seed != 0:
		return StateDrawing
	case now.Unix() < round.StartTime:
		return StateScheduled
	case now.Unix() < round.JoinDeadline:
		return StateJoinable
	default:
		return StateAwaitingSeed
	}
}

// LegalAction - returns the one action that may be submitted for the round
// right now, or false when the only move is to wait. winner is the result
// of the caller's card scan ("" when nobody's card is covered yet).
//
// A join window that closes with no players skips the seed entirely and
// chains the next round. An exhausted round gets one last claim chance
// through the scan result, then a new round is forced regardless.
func LegalAction(round *data.Round, now time.Time, winner string) (Action, bool) {
	switch StateOf(round, now) {
	case StateAwaitingSeed:
		if len(round.Players) == 0 {
			return Action{Kind: ActionCreateNext}, true
		}
		if round.SeedRequested {
			return Action{Kind: ActionWait}, false
		}
		return Action{Kind: ActionRequestSeed}, true
	case StateDrawing:
		if winner != "" {
			return Action{Kind: ActionClaim, Winner: winner}, true
		}
		if now.Unix()-round.LastDrawTime >= round.DrawInterval {
			return Action{Kind: ActionDrawNext}, true
		}
		return Action{Kind: ActionWait}, false
	case StateExhausted:
		if winner != "" {
			return Action{Kind: ActionClaim, Winner: winner}, true
		}
		return Action{Kind: ActionCreateNext}, true
	case StateResolved:
		return Action{Kind: ActionCreateNext}, true
	}

	return Action{Kind: ActionWait}, false
}
