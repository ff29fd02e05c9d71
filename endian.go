package fits

import (
	"encoding/binary"
	"math"
)

// All multi-byte values in a FITS data unit are big-endian; the standard
// does not define any other byte order. These scalar helpers decode
// one value at a time; binary-table column elements and P/Q heap
// descriptors are read through them, and the bulk conversions below
// are built on them.

func readInt16BE(b []byte) int16   { return int16(binary.BigEndian.Uint16(b)) }
func readInt32BE(b []byte) int32   { return int32(binary.BigEndian.Uint32(b)) }
func readInt64BE(b []byte) int64   { return int64(binary.BigEndian.Uint64(b)) }
func readFloat32BE(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}
func readFloat64BE(b []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}

func writeInt16BE(b []byte, v int16)     { binary.BigEndian.PutUint16(b, uint16(v)) }
func writeInt32BE(b []byte, v int32)     { binary.BigEndian.PutUint32(b, uint32(v)) }
func writeInt64BE(b []byte, v int64)     { binary.BigEndian.PutUint64(b, uint64(v)) }
func writeFloat32BE(b []byte, v float32) { binary.BigEndian.PutUint32(b, math.Float32bits(v)) }
func writeFloat64BE(b []byte, v float64) { binary.BigEndian.PutUint64(b, math.Float64bits(v)) }

// The decode*BE functions convert a big-endian byte buffer into a freshly
// allocated typed slice of n elements, decoding each element with the
// matching scalar helper. Image, sub-region and random-groups reads use
// them.
func decodeInt16BE(raw []byte, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = readInt16BE(raw[i*2:])
	}
	return out
}

func decodeInt32BE(raw []byte, n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = readInt32BE(raw[i*4:])
	}
	return out
}

func decodeInt64BE(raw []byte, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = readInt64BE(raw[i*8:])
	}
	return out
}

func decodeFloat32BE(raw []byte, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = readFloat32BE(raw[i*4:])
	}
	return out
}

func decodeFloat64BE(raw []byte, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = readFloat64BE(raw[i*8:])
	}
	return out
}

func encodeInt16BE(v []int16) []byte {
	out := make([]byte, len(v)*2)
	for i, x := range v {
		writeInt16BE(out[i*2:], x)
	}
	return out
}

func encodeInt32BE(v []int32) []byte {
	out := make([]byte, len(v)*4)
	for i, x := range v {
		writeInt32BE(out[i*4:], x)
	}
	return out
}

func encodeInt64BE(v []int64) []byte {
	out := make([]byte, len(v)*8)
	for i, x := range v {
		writeInt64BE(out[i*8:], x)
	}
	return out
}

func encodeFloat32BE(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, x := range v {
		writeFloat32BE(out[i*4:], x)
	}
	return out
}

func encodeFloat64BE(v []float64) []byte {
	out := make([]byte, len(v)*8)
	for i, x := range v {
		writeFloat64BE(out[i*8:], x)
	}
	return out
}
