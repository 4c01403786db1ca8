package core

import (
	"fmt"
	"math"
)

// SafeUint64ToUint32 safely narrows a uint64 to uint32.
// Returns an error if the value exceeds uint32 range.
func SafeUint64ToUint32(v uint64) (uint32, error) {
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("core: uint64 value 0x%x exceeds uint32 maximum", v)
	}
	return uint32(v), nil
}

// SafeInt64ToInt32 safely narrows an int64 to int32.
// Returns an error if the value is outside int32 range.
func SafeInt64ToInt32(v int64) (int32, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("core: int64 value %d outside int32 range", v)
	}
	return int32(v), nil
}

// SafeUint64ToInt converts a uint64 register index field to an int
// operand count, erroring rather than wrapping on platforms with a
// 32-bit int.
func SafeUint64ToInt(v uint64) (int, error) {
	if v > math.MaxInt32 {
		return 0, fmt.Errorf("core: uint64 value 0x%x too large for int", v)
	}
	return int(v), nil
}

// AsSigned32 reinterprets the low 32 bits of v as a signed int32, for
// arithmetic that needs the signed view without altering the stored
// bit pattern.
func AsSigned32(v uint64) int32 {
	//nolint:gosec // intentional reinterpretation, not a narrowing conversion
	return int32(uint32(v))
}

// AsSigned64 reinterprets v as a signed int64.
func AsSigned64(v uint64) int64 {
	//nolint:gosec // intentional reinterpretation
	return int64(v)
}
