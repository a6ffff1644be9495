package data

import (
	"fmt"
	"math/big"
)

// OperationKind enumerates the ledger operations the keeper can submit.
type OperationKind string

const (
	OpCreateRound OperationKind = "createRound"
	OpJoin        OperationKind = "join"
	OpRequestSeed OperationKind = "requestSeed"
	OpDrawNext    OperationKind = "drawNext"
	OpClaimFor    OperationKind = "claimFor"
)

// CreateParams carries the parameters of a createRound operation.
type CreateParams struct {
	StartTime    int64
	JoinWindow   int64
	DrawInterval int64
	EntryFee     *big.Int
}

// Operation is one intended ledger state change. For OpCreateRound, RoundID
// names the round being superseded (0 when bootstrapping an empty contract).
// Value is the native amount the operation carries: the entry fee for a
// join, nil for everything else.
type Operation struct {
	Kind        OperationKind
	RoundID     uint64
	Participant string
	Value       *big.Int
	Create      *CreateParams
}

// SlotKey returns the operation's slot identity. At most one submission may
// be outstanding per key.
func (op Operation) SlotKey() string {
	if op.Participant != "" {
		return fmt.Sprintf("%s|%d|%s", op.Kind, op.RoundID, op.Participant)
	}
	return fmt.Sprintf("%s|%d", op.Kind, op.RoundID)
}

// TxStatus is the observed disposition of a submitted transaction.
type TxStatus string

const (
	TxPending TxStatus = "pending"
	TxSuccess TxStatus = "success"
	TxFail    TxStatus = "fail"
	TxInvalid TxStatus = "invalid"
	TxUnknown TxStatus = "unknown"
)
