package network

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/aliakgoz/BingoBase/data"
	"github.com/aliakgoz/BingoBase/utils"
)

// decodeRound - unpacks the getRoundInfo return parts into a snapshot.
// Fixed part order: startTime, joinDeadline, drawInterval, entryFee,
// seedRequested, seed, drawnMask, drawCount, lastDrawTime, finalized,
// winner, prizePool, numberSpace, cardSize.
func (nm *NetworkManager) decodeRound(roundID uint64, parts [][]byte) (*data.Round, error) {
	if len(parts) < roundInfoParts {
		log.Error("decodeRound", "round", roundID, "parts", len(parts))
		return nil, errInvalidResponse
	}

	round := &data.Round{
		ID:            roundID,
		StartTime:     int64(bytesToUint64(parts[0])),
		JoinDeadline:  int64(bytesToUint64(parts[1])),
		DrawInterval:  int64(bytesToUint64(parts[2])),
		EntryFee:      big.NewInt(0).SetBytes(parts[3]),
		SeedRequested: bytesToBool(parts[4]),
		Seed:          bytesToUint64(parts[5]),
		DrawnMask:     big.NewInt(0).SetBytes(parts[6]),
		DrawCount:     uint32(bytesToUint64(parts[7])),
		LastDrawTime:  int64(bytesToUint64(parts[8])),
		Finalized:     bytesToBool(parts[9]),
		PrizePool:     big.NewInt(0).SetBytes(parts[11]),
		NumberSpace:   uint32(bytesToUint64(parts[12])),
		CardSize:      uint32(bytesToUint64(parts[13])),
	}
	if len(parts[10]) > 0 {
		round.Winner = nm.conv.Encode(parts[10])
	}

	return round, nil
}

// encodeOperation - renders an operation as contract call data and pairs it
// with the gas limit that call needs
func (nm *NetworkManager) encodeOperation(op *data.Operation) (string, uint64, error) {
	if op == nil {
		return "", 0, errUnknownOperation
	}

	switch op.Kind {
	case data.OpCreateRound:
		if op.Create == nil {
			return "", 0, errMissingCreateParams
		}
		payload := fmt.Sprintf("createRound@%s@%s@%s@%s",
			hexArg(uint64(op.Create.StartTime)),
			hexArg(uint64(op.Create.JoinWindow)),
			hexArg(uint64(op.Create.DrawInterval)),
			hexBig(op.Create.EntryFee))
		return payload, CreateRoundGasLimit, nil
	case data.OpJoin:
		return fmt.Sprintf("join@%s", hexArg(op.RoundID)), JoinGasLimit, nil
	case data.OpRequestSeed:
		return fmt.Sprintf("requestSeed@%s", hexArg(op.RoundID)), RequestSeedGasLimit, nil
	case data.OpDrawNext:
		return fmt.Sprintf("drawNext@%s", hexArg(op.RoundID)), DrawNextGasLimit, nil
	case data.OpClaimFor:
		pubkey, err := nm.conv.Decode(op.Participant)
		if err != nil {
			return "", 0, err
		}
		payload := fmt.Sprintf("claimFor@%s@%s", hexArg(op.RoundID), hex.EncodeToString(pubkey))
		return payload, ClaimForGasLimit, nil
	}

	return "", 0, errUnknownOperation
}

// diffEvents - synthesizes best-effort notifications from two consecutive
// round snapshots. The contract pushes nothing, so the subscriber derives
// the same changes a reader would notice.
func diffEvents(prev, cur *data.Round) []data.Event {
	if cur == nil {
		return nil
	}

	events := make([]data.Event, 0)
	if prev == nil || prev.ID != cur.ID {
		events = append(events, data.Event{
			Kind:    data.EventRoundCreated,
			RoundID: cur.ID,
			Time:    cur.StartTime,
		})
		return events
	}

	for i := len(prev.Players); i < len(cur.Players); i++ {
		events = append(events, data.Event{
			Kind:        data.EventJoined,
			RoundID:     cur.ID,
			Participant: cur.Players[i],
		})
	}
	if prev.Seed == 0 && cur.Seed != 0 {
		events = append(events, data.Event{
			Kind:    data.EventSeedFulfilled,
			RoundID: cur.ID,
		})
	}
	if cur.DrawCount > prev.DrawCount {
		fresh := big.NewInt(0).AndNot(maskOrZero(cur.DrawnMask), maskOrZero(prev.DrawnMask))
		for _, n := range utils.MaskNumbers(fresh) {
			events = append(events, data.Event{
				Kind:    data.EventDrawn,
				RoundID: cur.ID,
				Number:  n,
				Time:    cur.LastDrawTime,
			})
		}
	}
	if !prev.Finalized && cur.Finalized {
		events = append(events,
			data.Event{Kind: data.EventClaimed, RoundID: cur.ID, Participant: cur.Winner},
			data.Event{Kind: data.EventPayout, RoundID: cur.ID, Participant: cur.Winner})
	}

	return events
}

// classifySubmitError - maps proxy error strings onto the shared submission
// taxonomy so callers can branch with errors.Is
func classifySubmitError(err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "lowernonce"),
		strings.Contains(msg, "lower nonce"),
		strings.Contains(msg, "nonce too low"):
		return fmt.Errorf("%w: %s", data.ErrSequenceConsumed, err.Error())
	case strings.Contains(msg, "insufficient funds"),
		strings.Contains(msg, "insufficient balance"):
		return fmt.Errorf("%w: %s", data.ErrResourceExhaustion, err.Error())
	case strings.Contains(msg, "not executable"),
		strings.Contains(msg, "stale"):
		return fmt.Errorf("%w: %s", data.ErrStaleAction, err.Error())
	}

	return fmt.Errorf("%w: %s", data.ErrTransientSubmission, err.Error())
}

func parseTxStatus(status string) data.TxStatus {
	switch strings.ToLower(status) {
	case "success":
		return data.TxSuccess
	case "fail", "failed":
		return data.TxFail
	case "invalid":
		return data.TxInvalid
	case "pending", "received":
		return data.TxPending
	}

	return data.TxUnknown
}

func bytesToUint64(b []byte) uint64 {
	return big.NewInt(0).SetBytes(b).Uint64()
}

func bytesToBool(b []byte) bool {
	return big.NewInt(0).SetBytes(b).Sign() != 0
}

func hexArg(n uint64) string {
	return hex.EncodeToString(big.NewInt(0).SetUint64(n).Bytes())
}

func hexBig(n *big.Int) string {
	if n == nil {
		return ""
	}

	return hex.EncodeToString(n.Bytes())
}

func maskOrZero(m *big.Int) *big.Int {
	if m == nil {
		return big.NewInt(0)
	}

	return m
}
