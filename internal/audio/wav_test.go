// Package audio_test tests the WAV container writer.
package audio_test

import (
	"encoding/binary"
	"testing"

	"github.com/book-expert/speech-gateway/internal/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWAVEncoder_Encode_Header(t *testing.T) {
	t.Parallel()

	encoder := audio.NewWAVEncoder()

	samples := []float32{0.0, 0.5, -0.5, 1.0}
	data, err := encoder.Encode(samples, 24000)
	require.NoError(t, err)

	// RIFF header, fmt chunk, data chunk, then 2 bytes per sample.
	require.Len(t, data, 44+len(samples)*2)

	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "fmt ", string(data[12:16]))
	assert.Equal(t, "data", string(data[36:40]))

	sampleRate := binary.LittleEndian.Uint32(data[24:28])
	assert.Equal(t, uint32(24000), sampleRate)

	dataSize := binary.LittleEndian.Uint32(data[40:44])
	assert.Equal(t, uint32(len(samples)*2), dataSize)
}

func TestWAVEncoder_Encode_ClampsOutOfRangeSamples(t *testing.T) {
	t.Parallel()

	encoder := audio.NewWAVEncoder()

	data, err := encoder.Encode([]float32{2.0, -2.0}, 24000)
	require.NoError(t, err)

	first := int16(binary.LittleEndian.Uint16(data[44:46]))
	second := int16(binary.LittleEndian.Uint16(data[46:48]))

	assert.Equal(t, int16(32767), first)
	assert.Equal(t, int16(-32767), second)
}

func TestWAVEncoder_Encode_RejectsEmptyInput(t *testing.T) {
	t.Parallel()

	encoder := audio.NewWAVEncoder()

	_, err := encoder.Encode(nil, 24000)
	require.ErrorIs(t, err, audio.ErrNoSamples)

	_, err = encoder.Encode([]float32{0.1}, 0)
	require.ErrorIs(t, err, audio.ErrInvalidSampleRate)
}
