package keeper

import "errors"

var (
	errNilLedger       = errors.New("nil ledger")
	errNilStore        = errors.New("nil checkpoint store")
	errInvalidEntryFee = errors.New("invalid entry fee")
)
