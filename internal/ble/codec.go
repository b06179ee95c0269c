package ble

import "encoding/binary"

// EncodeInts packs values as 32-bit little-endian integers, the layout the
// firmware's integer characteristics use. Values are truncated to 32 bits.
func EncodeInts(signed bool, values ...int) []byte {
	buf := make([]byte, 0, len(values)*intSize)
	for _, v := range values {
		var u uint32
		if signed {
			u = uint32(int32(v))
		} else {
			u = uint32(v)
		}
		buf = binary.LittleEndian.AppendUint32(buf, u)
	}
	return buf
}

// DecodeInts unpacks 32-bit little-endian integers. Trailing bytes that do
// not make up a whole integer are ignored.
func DecodeInts(signed bool, data []byte) []int {
	values := make([]int, 0, len(data)/intSize)
	for i := 0; i+intSize <= len(data); i += intSize {
		u := binary.LittleEndian.Uint32(data[i:])
		if signed {
			values = append(values, int(int32(u)))
		} else {
			values = append(values, int(u))
		}
	}
	return values
}
