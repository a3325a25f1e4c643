package schema

import "encoding/binary"

// RecordSize is the wire size of an encoded Record.
const RecordSize = 48

// EncodeRecord serializes a record into a fixed-size payload.
func EncodeRecord(dst []byte, rec Record) []byte {
	if cap(dst) < RecordSize {
		dst = make([]byte, RecordSize)
	} else {
		dst = dst[:RecordSize]
	}

	copy(dst[0:16], rec.Symbol[:])
	dst[16] = byte(rec.Side)
	dst[17] = rec.Level
	binary.LittleEndian.PutUint16(dst[18:20], rec.Flags)
	binary.LittleEndian.PutUint32(dst[20:24], 0)
	binary.LittleEndian.PutUint64(dst[24:32], uint64(rec.Price))
	binary.LittleEndian.PutUint64(dst[32:40], uint64(rec.Qty))
	binary.LittleEndian.PutUint64(dst[40:48], uint64(rec.TsEvent))

	return dst
}

// DecodeRecord parses a fixed-size record payload.
func DecodeRecord(src []byte) (Record, bool) {
	if len(src) < RecordSize {
		return Record{}, false
	}
	var rec Record
	copy(rec.Symbol[:], src[0:16])
	rec.Side = Side(src[16])
	rec.Level = src[17]
	rec.Flags = binary.LittleEndian.Uint16(src[18:20])
	rec.Price = Price(int64(binary.LittleEndian.Uint64(src[24:32])))
	rec.Qty = Quantity(int64(binary.LittleEndian.Uint64(src[32:40])))
	rec.TsEvent = int64(binary.LittleEndian.Uint64(src[40:48]))
	return rec, true
}
