package schema

import "strconv"

// Price is a scaled integer. The scale is defined by configuration.
type Price int64

// Quantity is a scaled integer. The scale is defined by configuration.
type Quantity int64

// AppendString appends the price formatted with the given scale.
func (p Price) AppendString(scale int, buf []byte) []byte {
	return appendScaledInt(buf, int64(p), scale)
}

// AppendString appends the quantity formatted with the given scale.
func (q Quantity) AppendString(scale int, buf []byte) []byte {
	return appendScaledInt(buf, int64(q), scale)
}

// Side identifies the book side a record targets.
type Side uint8

const (
	SideBid Side = 0
	SideAsk Side = 1
)

func (s Side) String() string {
	switch s {
	case SideBid:
		return "bid"
	case SideAsk:
		return "ask"
	default:
		return "side(" + strconv.Itoa(int(s)) + ")"
	}
}

// SymbolKeyCap is the maximum symbol key length in bytes.
const SymbolKeyCap = 16

// SymbolKey is a bounded, zero-padded symbol identifier.
type SymbolKey [SymbolKeyCap]byte

// NewSymbolKey builds a key from a symbol name, truncating past the cap.
func NewSymbolKey(name string) SymbolKey {
	var k SymbolKey
	n := len(name)
	if n > SymbolKeyCap {
		n = SymbolKeyCap
	}
	copy(k[:], name[:n])
	return k
}

// Len returns the number of meaningful bytes in the key.
func (k SymbolKey) Len() int {
	for i, b := range k {
		if b == 0 {
			return i
		}
	}
	return SymbolKeyCap
}

func (k SymbolKey) String() string {
	return string(k[:k.Len()])
}

// Record is the fixed-size inbound market data record consumed by the
// router. The I/O layer that produces it is outside this module.
type Record struct {
	Symbol  SymbolKey
	Side    Side
	Level   uint8
	Flags   uint16
	Price   Price
	Qty     Quantity
	TsEvent int64
}

func appendScaledInt(buf []byte, value int64, scale int) []byte {
	if scale <= 0 {
		return strconv.AppendInt(buf, value, 10)
	}

	neg := value < 0
	u := uint64(value)
	if neg {
		u = uint64(^value) + 1
	}

	var tmp [32]byte
	digits := strconv.AppendUint(tmp[:0], u, 10)

	if neg {
		buf = append(buf, '-')
	}

	if len(digits) <= scale {
		buf = append(buf, '0', '.')
		for i := 0; i < scale-len(digits); i++ {
			buf = append(buf, '0')
		}
		buf = append(buf, digits...)
		return buf
	}

	idx := len(digits) - scale
	buf = append(buf, digits[:idx]...)
	buf = append(buf, '.')
	buf = append(buf, digits[idx:]...)
	return buf
}
