package utils

import (
	"math/big"
	"math/bits"
)

// MaskNumbers - expands a drawn-numbers mask into the ascending list of
// numbers it marks. Bit i of the mask stands for number i+1.
func MaskNumbers(mask *big.Int) []uint32 {
	numbers := make([]uint32, 0)
	if mask == nil {
		return numbers
	}
	for i := 0; i < mask.BitLen(); i++ {
		if mask.Bit(i) == 1 {
			numbers = append(numbers, uint32(i)+1)
		}
	}

	return numbers
}

// HasNumber - checks whether the mask marks the given number as drawn
func HasNumber(mask *big.Int, number uint32) bool {
	if mask == nil || number == 0 {
		return false
	}

	return mask.Bit(int(number)-1) == 1
}

// SetNumber - returns a copy of the mask with the given number marked drawn
func SetNumber(mask *big.Int, number uint32) *big.Int {
	if mask == nil {
		mask = big.NewInt(0)
	}
	if number == 0 {
		return big.NewInt(0).Set(mask)
	}

	return big.NewInt(0).SetBit(mask, int(number)-1, 1)
}

// CountNumbers - number of drawn numbers marked in the mask
func CountNumbers(mask *big.Int) uint32 {
	if mask == nil {
		return 0
	}
	count := 0
	for _, w := range mask.Bits() {
		count += bits.OnesCount(uint(w))
	}

	return uint32(count)
}
