// Package respond_test tests response assembly.
package respond_test

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/book-expert/speech-gateway/internal/audio"
	"github.com/book-expert/speech-gateway/internal/core"
	"github.com/book-expert/speech-gateway/internal/respond"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMockEncode = errors.New("mock encode error")

type failingCodec struct{}

func (f *failingCodec) Encode(_ []float32, _ int) ([]byte, error) {
	return nil, errMockEncode
}

func sampleResult() core.GenerationResult {
	return core.GenerationResult{
		Samples:    []float32{0.0, 0.25, -0.25, 0.5},
		SampleRate: 24000,
	}
}

func TestEncode_Base64RoundTrip(t *testing.T) {
	t.Parallel()

	codec := audio.NewWAVEncoder()
	encoder := respond.New(codec)

	result := sampleResult()

	response, err := encoder.Encode(result, respond.Context{
		Mode:         core.ModeTTS,
		Variant:      core.VariantEnglishTTS,
		LanguageID:   "",
		VoiceCloned:  false,
		ReturnFormat: core.ReturnBase64,
	})
	require.NoError(t, err)

	require.Empty(t, response.Error)
	assert.Equal(t, "wav", response.Format)
	assert.Equal(t, 24000, response.SampleRate)
	assert.Equal(t, "english", response.ModelType)
	assert.Equal(t, "tts", response.Mode)
	assert.Equal(t, "en", response.LanguageID)

	require.NotNil(t, response.VoiceCloned)
	assert.False(t, *response.VoiceCloned)

	// Decoding the transport encoding yields the container bytes unchanged.
	decoded, decodeErr := base64.StdEncoding.DecodeString(response.AudioBase64)
	require.NoError(t, decodeErr)

	containerBytes, codecErr := codec.Encode(result.Samples, result.SampleRate)
	require.NoError(t, codecErr)
	assert.Equal(t, containerBytes, decoded)
}

func TestEncode_VoiceClonedThreadedThrough(t *testing.T) {
	t.Parallel()

	encoder := respond.New(audio.NewWAVEncoder())

	response, err := encoder.Encode(sampleResult(), respond.Context{
		Mode:         core.ModeTTS,
		Variant:      core.VariantMultilingualTTS,
		LanguageID:   "fr",
		VoiceCloned:  true,
		ReturnFormat: core.ReturnBase64,
	})
	require.NoError(t, err)

	assert.Equal(t, "fr", response.LanguageID)
	assert.Equal(t, "multilingual", response.ModelType)
	require.NotNil(t, response.VoiceCloned)
	assert.True(t, *response.VoiceCloned)
}

func TestEncode_VoiceCloneModeOmitsTTSFields(t *testing.T) {
	t.Parallel()

	encoder := respond.New(audio.NewWAVEncoder())

	response, err := encoder.Encode(sampleResult(), respond.Context{
		Mode:         core.ModeVoiceClone,
		Variant:      core.VariantVoiceConversion,
		LanguageID:   "",
		VoiceCloned:  false,
		ReturnFormat: core.ReturnBase64,
	})
	require.NoError(t, err)

	assert.Equal(t, "voice_clone", response.ModelType)
	assert.Equal(t, "voice_clone", response.Mode)
	assert.Empty(t, response.LanguageID)
	assert.Nil(t, response.VoiceCloned)
}

func TestEncode_URLFormatReturnsMessageNotError(t *testing.T) {
	t.Parallel()

	encoder := respond.New(audio.NewWAVEncoder())

	response, err := encoder.Encode(sampleResult(), respond.Context{
		Mode:         core.ModeTTS,
		Variant:      core.VariantEnglishTTS,
		LanguageID:   "",
		VoiceCloned:  true,
		ReturnFormat: core.ReturnURL,
	})
	require.NoError(t, err)

	assert.Equal(t, "URL format not implemented. Use base64.", response.Message)
	assert.Empty(t, response.Error)
	assert.Empty(t, response.AudioBase64)
	assert.Equal(t, 24000, response.SampleRate)
	assert.Equal(t, "english", response.ModelType)
	require.NotNil(t, response.VoiceCloned)
	assert.True(t, *response.VoiceCloned)
}

func TestEncode_CodecFailureIsTagged(t *testing.T) {
	t.Parallel()

	encoder := respond.New(&failingCodec{})

	_, err := encoder.Encode(sampleResult(), respond.Context{
		Mode:         core.ModeTTS,
		Variant:      core.VariantEnglishTTS,
		LanguageID:   "",
		VoiceCloned:  false,
		ReturnFormat: core.ReturnBase64,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to encode audio")
	require.ErrorIs(t, err, errMockEncode)
}
