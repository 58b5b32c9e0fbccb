// Package router selects the model variant for a job and shapes the
// variant-specific invocation arguments, materializing any referenced audio
// through the invocation's resource scope.
package router

import (
	"github.com/book-expert/speech-gateway/internal/core"
	"github.com/book-expert/speech-gateway/internal/text"
)

// Request field names, used in decode and missing-field errors.
const (
	fieldVoiceSample = "voice_sample_base64"
	fieldSourceAudio = "source_audio_base64"
	fieldTargetVoice = "target_voice_base64"
)

// Client-facing missing-field messages.
const (
	msgNoText        = "No text provided"
	msgNoSourceAudio = "No source_audio_base64 provided"
	msgNoTargetVoice = "No target_voice_base64 provided"
)

// Route is the routing outcome: the variant to load, the invocation shape,
// and the context the response encoder needs.
type Route struct {
	Variant core.ModelVariant
	Args    core.InvocationArgs
	Mode    core.Mode
}

// Router maps job requests onto model variants. It is stateless apart from
// the process-wide device selection.
type Router struct {
	device core.Device
}

// New creates a router that targets every variant at the given device.
func New(device core.Device) *Router {
	return &Router{device: device}
}

// Route inspects the request and builds the variant-specific invocation.
// Requests without a mode default to TTS, and unknown modes fall through to
// the TTS path. Referenced audio payloads are materialized into the scope;
// the caller owns the scope's release.
func (r *Router) Route(req core.JobRequest, scope core.AudioMaterializer) (Route, error) {
	if req.Mode == core.ModeVoiceClone {
		return r.routeVoiceClone(req, scope)
	}

	return r.routeTTS(req, scope)
}

// routeVoiceClone requires both audio fields and shapes the voice-conversion
// invocation.
func (r *Router) routeVoiceClone(req core.JobRequest, scope core.AudioMaterializer) (Route, error) {
	if req.SourceAudioBase64 == "" {
		return Route{}, core.NewError(core.KindMissingField, msgNoSourceAudio)
	}

	if req.TargetVoiceBase64 == "" {
		return Route{}, core.NewError(core.KindMissingField, msgNoTargetVoice)
	}

	sourcePath, err := scope.Materialize(fieldSourceAudio, req.SourceAudioBase64)
	if err != nil {
		return Route{}, err
	}

	targetPath, err := scope.Materialize(fieldTargetVoice, req.TargetVoiceBase64)
	if err != nil {
		return Route{}, err
	}

	return Route{
		Variant: core.ModelVariant{ID: core.VariantVoiceConversion, Device: r.device},
		Args: core.InvocationArgs{
			Text:            "",
			LanguageID:      "",
			AudioPromptPath: "",
			SourceAudioPath: sourcePath,
			TargetVoicePath: targetPath,
			Params:          generationParams(req),
			VoiceCloned:     false,
		},
		Mode: core.ModeVoiceClone,
	}, nil
}

// routeTTS selects between the English and multilingual variants and wires in
// the optional voice-conditioning prompt.
func (r *Router) routeTTS(req core.JobRequest, scope core.AudioMaterializer) (Route, error) {
	if req.Text == "" {
		return Route{}, core.NewError(core.KindMissingField, msgNoText)
	}

	variantID := core.VariantEnglishTTS
	languageID := ""

	if req.LanguageID != "" && req.LanguageID != core.DefaultLanguageID {
		variantID = core.VariantMultilingualTTS
		languageID = req.LanguageID
	}

	promptPath := req.AudioPromptPath

	if req.VoiceSampleBase64 != "" {
		materialized, err := scope.Materialize(fieldVoiceSample, req.VoiceSampleBase64)
		if err != nil {
			return Route{}, err
		}

		promptPath = materialized
	}

	return Route{
		Variant: core.ModelVariant{ID: variantID, Device: r.device},
		Args: core.InvocationArgs{
			Text:            text.Normalize(req.Text),
			LanguageID:      languageID,
			AudioPromptPath: promptPath,
			SourceAudioPath: "",
			TargetVoicePath: "",
			Params:          generationParams(req),
			VoiceCloned:     promptPath != "",
		},
		Mode: core.ModeTTS,
	}, nil
}

// generationParams copies the numeric knobs from the request, substituting
// the documented defaults for absent fields. Values are not range-checked;
// the model is the authority on valid ranges.
func generationParams(req core.JobRequest) core.GenerationParams {
	params := core.DefaultGenerationParams()

	if req.RepetitionPenalty != nil {
		params.RepetitionPenalty = *req.RepetitionPenalty
	}

	if req.MinP != nil {
		params.MinP = *req.MinP
	}

	if req.TopP != nil {
		params.TopP = *req.TopP
	}

	if req.Exaggeration != nil {
		params.Exaggeration = *req.Exaggeration
	}

	if req.CFGWeight != nil {
		params.CFGWeight = *req.CFGWeight
	}

	if req.Temperature != nil {
		params.Temperature = *req.Temperature
	}

	return params
}
