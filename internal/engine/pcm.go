package engine

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Size of one raw sample on the wire: 32-bit little-endian float.
const sampleWidth = 4

// Static errors.
var (
	ErrTruncatedPCM = errors.New("raw PCM data is not a whole number of samples")
	ErrEmptyPCM     = errors.New("raw PCM data is empty")
)

// DecodeSamples converts raw little-endian float32 PCM bytes, the export
// format both engine backends produce, into a sample slice.
func DecodeSamples(data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPCM
	}

	if len(data)%sampleWidth != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncatedPCM, len(data))
	}

	samples := make([]float32, len(data)/sampleWidth)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(data[i*sampleWidth:])
		samples[i] = math.Float32frombits(bits)
	}

	return samples, nil
}
