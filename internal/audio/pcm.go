package audio

import (
	"encoding/binary"
)

// DecodePCM16LE converts little-endian int16 PCM bytes into float32 samples
// in [-1, 1]. Trailing odd bytes (a partial sample) are dropped.
func DecodePCM16LE(data []byte) []float32 {
	n := len(data) / 2
	samples := make([]float32, n)
	for i := range n {
		s := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = float32(s) / 32768
	}
	return samples
}
