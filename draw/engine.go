package draw

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/ElrondNetwork/elrond-go-core/hashing/blake2b"

	"github.com/aliakgoz/BingoBase/utils"
)

// maxProbes caps every candidate-probing loop. Reaching it means the
// inputs are inconsistent (e.g. a full mask), never a normal outcome.
const maxProbes = 4096

var (
	ErrInvalidNumberSpace = errors.New("invalid number space")
	ErrInvalidCardSize    = errors.New("invalid card size")
	ErrNoUndrawnNumbers   = errors.New("all numbers already drawn")
	ErrProbesExhausted    = errors.New("candidate probes exhausted")
)

var hasher = blake2b.NewBlake2b()

// NextNumber - computes the drawIndex-th number of a round's draw sequence:
// the first hash-derived candidate in [1, numberSpace] not yet present in
// the drawn mask. Identical inputs always reproduce the identical number.
func NextNumber(seed uint64, drawIndex uint32, drawnMask *big.Int, numberSpace uint32) (uint32, error) {
	if numberSpace == 0 {
		return 0, ErrInvalidNumberSpace
	}
	if utils.CountNumbers(drawnMask) >= numberSpace {
		return 0, ErrNoUndrawnNumbers
	}
	for probe := uint64(0); probe < maxProbes; probe++ {
		candidate := pick(hashUints(seed, uint64(drawIndex), probe), numberSpace)
		if !utils.HasNumber(drawnMask, candidate) {
			return candidate, nil
		}
	}

	return 0, ErrProbesExhausted
}

// CardFor - derives the participant's card for a round seed: cardSize
// distinct numbers in [1, numberSpace], filled slot by slot. A colliding
// candidate re-salts the derivation and retries the same slot, so the card
// order is stable for the life of the round.
func CardFor(seed uint64, participant string, cardSize uint32, numberSpace uint32) ([]uint32, error) {
	if numberSpace == 0 {
		return nil, ErrInvalidNumberSpace
	}
	if cardSize == 0 || cardSize > numberSpace {
		return nil, ErrInvalidCardSize
	}
	salt := saltFor(seed, participant)
	card := make([]uint32, 0, cardSize)
	for cardIndex := uint32(0); cardIndex < cardSize; cardIndex++ {
		probes := 0
		for {
			candidate := pick(rehash(salt, uint64(cardIndex)), numberSpace)
			if !contains(card, candidate) {
				card = append(card, candidate)
				break
			}
			salt = rehash(salt, uint64(candidate))
			probes++
			if probes >= maxProbes {
				return nil, ErrProbesExhausted
			}
		}
	}

	return card, nil
}

// Covered - reports whether every number of the card is present in the
// drawn mask. This is the win condition.
func Covered(card []uint32, drawnMask *big.Int) bool {
	if len(card) == 0 {
		return false
	}
	for _, n := range card {
		if !utils.HasNumber(drawnMask, n) {
			return false
		}
	}

	return true
}

func saltFor(seed uint64, participant string) []byte {
	buf := make([]byte, 8+len(participant))
	binary.BigEndian.PutUint64(buf, seed)
	copy(buf[8:], participant)

	return hasher.Compute(string(buf))
}

func rehash(salt []byte, value uint64) []byte {
	buf := make([]byte, len(salt)+8)
	copy(buf, salt)
	binary.BigEndian.PutUint64(buf[len(salt):], value)

	return hasher.Compute(string(buf))
}

func hashUints(values ...uint64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint64(buf[i*8:], v)
	}

	return hasher.Compute(string(buf))
}

func pick(digest []byte, numberSpace uint32) uint32 {
	v := binary.BigEndian.Uint64(digest[:8])

	return uint32(v%uint64(numberSpace)) + 1
}

func contains(numbers []uint32, number uint32) bool {
	for _, n := range numbers {
		if n == number {
			return true
		}
	}

	return false
}
