// Package bits provides branch-free numeric helpers for the market data
// pipeline: power-of-two math, byte swaps, tick-compacted prices, and
// packed boolean flags.
package bits

import (
	stdbits "math/bits"
)

// PopCount returns the number of set bits in x.
func PopCount(x uint64) int {
	return stdbits.OnesCount64(x)
}

// TrailingZeros returns the number of trailing zero bits in x; 64 if x == 0.
func TrailingZeros(x uint64) int {
	return stdbits.TrailingZeros64(x)
}

// LeadingZeros returns the number of leading zero bits in x; 64 if x == 0.
func LeadingZeros(x uint64) int {
	return stdbits.LeadingZeros64(x)
}

// Log2Floor returns floor(log2(x)). The result for x == 0 is -1.
func Log2Floor(x uint64) int {
	return 63 - stdbits.LeadingZeros64(x)
}

// Log2Ceil returns ceil(log2(x)).
func Log2Ceil(x uint64) int {
	if x <= 1 {
		return 0
	}
	return 64 - stdbits.LeadingZeros64(x-1)
}

// IsPowerOfTwo reports whether x is a non-zero power of two.
func IsPowerOfTwo(x uint64) bool {
	return x != 0 && x&(x-1) == 0
}

// NextPowerOfTwo returns the smallest power of two >= x. For x == 0 it
// returns 1.
func NextPowerOfTwo(x uint64) uint64 {
	if x == 0 {
		return 1
	}
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	return x + 1
}

// ExtractBits returns the bit field value[start : start+length].
func ExtractBits(value uint64, start, length int) uint64 {
	mask := uint64(1)<<length - 1
	return (value >> start) & mask
}

// ByteSwap64 reverses the byte order of x.
func ByteSwap64(x uint64) uint64 {
	return stdbits.ReverseBytes64(x)
}

// ByteSwap32 reverses the byte order of x.
func ByteSwap32(x uint32) uint32 {
	return stdbits.ReverseBytes32(x)
}

// Ticks is a price compacted to integer multiples of a tick size.
type Ticks uint64

// TicksFromFloat rounds price to the nearest tick multiple.
func TicksFromFloat(price, tickSize float64) Ticks {
	return Ticks(price/tickSize + 0.5)
}

// Float expands the tick count back to a price scalar.
func (t Ticks) Float(tickSize float64) float64 {
	return float64(t) * tickSize
}

// Flag positions for packed order flags.
const (
	FlagIsBuy = iota
	FlagIsIOC
	FlagIsPostOnly
	FlagIsReduce
	FlagIsFilled
	FlagIsCancelled
)

// Flags is a bit-packed boolean set that fits in a single byte.
type Flags uint8

// Set turns the given bit on.
func (f *Flags) Set(bit int) {
	*f |= Flags(1) << bit
}

// Clear turns the given bit off.
func (f *Flags) Clear(bit int) {
	*f &^= Flags(1) << bit
}

// Toggle inverts the given bit.
func (f *Flags) Toggle(bit int) {
	*f ^= Flags(1) << bit
}

// Test reports whether the given bit is on.
func (f Flags) Test(bit int) bool {
	return f&(Flags(1)<<bit) != 0
}
