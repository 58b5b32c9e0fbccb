// Package respond assembles the reply payload from a generation result and
// its routing context.
package respond

import (
	"encoding/base64"

	"github.com/book-expert/speech-gateway/internal/core"
)

// Audio container tag reported to clients.
const formatWAV = "wav"

// Message returned for the deliberately unimplemented URL return format. The
// wording is part of the wire contract.
const msgURLNotImplemented = "URL format not implemented. Use base64."

// Client-facing message for container encoding failures.
const msgEncodeFailed = "Failed to encode audio"

// Context carries the request-derived metadata mirrored into the response.
type Context struct {
	Mode         core.Mode
	Variant      core.VariantID
	LanguageID   string
	VoiceCloned  bool
	ReturnFormat core.ReturnFormat
}

// Encoder wraps raw generation results into reply payloads.
type Encoder struct {
	codec core.AudioEncoder
}

// New creates an encoder backed by the given container codec.
func New(codec core.AudioEncoder) *Encoder {
	return &Encoder{codec: codec}
}

// Encode builds the reply for a successful generation. The URL return format
// yields a "not implemented" message with the same metadata as the base64
// path; this is an intentional limitation, not a failure.
func (e *Encoder) Encode(result core.GenerationResult, responseCtx Context) (core.JobResponse, error) {
	if responseCtx.ReturnFormat == core.ReturnURL {
		response := e.metadataResponse(result, responseCtx)
		response.Message = msgURLNotImplemented

		return response, nil
	}

	containerBytes, encodeErr := e.codec.Encode(result.Samples, result.SampleRate)
	if encodeErr != nil {
		return core.JobResponse{}, core.WrapError(core.KindInternal, msgEncodeFailed, encodeErr)
	}

	response := e.metadataResponse(result, responseCtx)
	response.AudioBase64 = base64.StdEncoding.EncodeToString(containerBytes)
	response.Format = formatWAV

	return response, nil
}

// metadataResponse fills the fields shared by the base64 and URL paths.
// Voice-clone-mode responses omit language_id and voice_cloned, matching the
// wire contract.
func (e *Encoder) metadataResponse(result core.GenerationResult, responseCtx Context) core.JobResponse {
	response := core.JobResponse{
		AudioBase64: "",
		SampleRate:  result.SampleRate,
		Format:      "",
		LanguageID:  "",
		ModelType:   string(responseCtx.Variant),
		Mode:        string(responseCtx.Mode),
		VoiceCloned: nil,
		Message:     "",
		Error:       "",
	}

	if responseCtx.Mode == core.ModeTTS {
		response.LanguageID = responseCtx.LanguageID
		if response.LanguageID == "" {
			response.LanguageID = core.DefaultLanguageID
		}

		voiceCloned := responseCtx.VoiceCloned
		response.VoiceCloned = &voiceCloned
	}

	return response
}
