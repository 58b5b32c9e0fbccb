// Package audio provides the WAV container writer the gateway uses to wrap
// raw model samples before transport encoding. It implements the narrow
// Encode(samples, sampleRate) collaborator contract; codec work beyond the
// RIFF container is out of scope.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// PCM layout constants for the emitted container.
const (
	numChannels    = 1
	bitsPerSample  = 16
	bytesPerSample = bitsPerSample / 8
	headerSize     = 36
	fmtChunkSize   = 16
	pcmFormatTag   = 1
)

// Static errors.
var (
	ErrNoSamples         = errors.New("no samples to encode")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
)

// WAVEncoder encodes mono float32 samples as 16-bit PCM WAV bytes. The zero
// value is ready to use.
type WAVEncoder struct{}

// NewWAVEncoder creates a WAV encoder.
func NewWAVEncoder() *WAVEncoder {
	return &WAVEncoder{}
}

// Encode wraps samples in a RIFF/WAVE container. Samples outside [-1, 1] are
// clamped before quantization.
func (e *WAVEncoder) Encode(samples []float32, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSampleRate, sampleRate)
	}

	dataSize := len(samples) * numChannels * bytesPerSample

	buf := &bytes.Buffer{}
	buf.Grow(headerSize + 8 + dataSize)

	writeHeader(buf, sampleRate, dataSize)

	for _, sample := range samples {
		clamped := sample
		if clamped > 1.0 {
			clamped = 1.0
		} else if clamped < -1.0 {
			clamped = -1.0
		}

		intSample := int16(clamped * math.MaxInt16)

		writeErr := binary.Write(buf, binary.LittleEndian, intSample)
		if writeErr != nil {
			return nil, fmt.Errorf("failed to write sample data: %w", writeErr)
		}
	}

	return buf.Bytes(), nil
}

// writeHeader emits the RIFF, fmt and data chunk headers. Writes to a
// bytes.Buffer cannot fail, so errors are not checked here.
func writeHeader(buf *bytes.Buffer, sampleRate, dataSize int) {
	byteRate := sampleRate * numChannels * bytesPerSample
	blockAlign := numChannels * bytesPerSample

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(headerSize+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(fmtChunkSize))
	_ = binary.Write(buf, binary.LittleEndian, uint16(pcmFormatTag))
	_ = binary.Write(buf, binary.LittleEndian, uint16(numChannels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataSize))
}
