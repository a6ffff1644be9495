package network

import (
	"errors"
	"time"
)

const (
	CreateRoundGasLimit = 20000000
	JoinGasLimit        = 10000000
	RequestSeedGasLimit = 15000000
	DrawNextGasLimit    = 40000000
	ClaimForGasLimit    = 30000000

	roundInfoParts = 14

	eventBuffer     = 32
	maxEventBackoff = time.Minute
)

var (
	errEmptyResponse       = errors.New("empty response")
	errInvalidResponse     = errors.New("invalid result")
	errUnknownOperation    = errors.New("unknown operation kind")
	errMissingCreateParams = errors.New("missing create parameters")
)
