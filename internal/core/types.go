// Package core defines the data model, collaborator interfaces, and error
// kinds shared by the speech gateway components.
package core

// Mode identifies the kind of job a request describes.
type Mode string

// Supported job modes.
const (
	ModeTTS        Mode = "tts"
	ModeVoiceClone Mode = "voice_clone"
)

// ReturnFormat identifies how the generated audio is returned to the caller.
type ReturnFormat string

// Supported return formats. URL is accepted but deliberately unimplemented.
const (
	ReturnBase64 ReturnFormat = "base64"
	ReturnURL    ReturnFormat = "url"
)

// Device identifies the compute device all model variants are loaded on.
// It is selected once at process start and never changes.
type Device string

// Supported devices.
const (
	DeviceCPU Device = "cpu"
	DeviceGPU Device = "gpu"
)

// VariantID identifies a distinct loadable model configuration. Its string
// form is what clients see in the model_type response field.
type VariantID string

// The three model variants the gateway routes between.
const (
	VariantEnglishTTS      VariantID = "english"
	VariantMultilingualTTS VariantID = "multilingual"
	VariantVoiceConversion VariantID = "voice_clone"
)

// ModelVariant is a loadable model configuration: which variant, on which
// device. Immutable once constructed.
type ModelVariant struct {
	ID     VariantID
	Device Device
}

// DefaultLanguageID is the language code that selects the English variant.
const DefaultLanguageID = "en"

// JobRequest is the parsed job payload. Numeric knobs are pointers so that an
// absent field is distinguishable from an explicit zero; absent knobs receive
// the documented defaults during routing. Immutable after parsing.
type JobRequest struct {
	Mode              Mode         `json:"mode,omitempty"`
	Text              string       `json:"text,omitempty"`
	LanguageID        string       `json:"language_id,omitempty"`
	VoiceSampleBase64 string       `json:"voice_sample_base64,omitempty"`
	SourceAudioBase64 string       `json:"source_audio_base64,omitempty"`
	TargetVoiceBase64 string       `json:"target_voice_base64,omitempty"`
	AudioPromptPath   string       `json:"audio_prompt_path,omitempty"`
	RepetitionPenalty *float64     `json:"repetition_penalty,omitempty"`
	MinP              *float64     `json:"min_p,omitempty"`
	TopP              *float64     `json:"top_p,omitempty"`
	Exaggeration      *float64     `json:"exaggeration,omitempty"`
	CFGWeight         *float64     `json:"cfg_weight,omitempty"`
	Temperature       *float64     `json:"temperature,omitempty"`
	ReturnFormat      ReturnFormat `json:"return_format,omitempty"`
}

// Default values for the numeric generation knobs, applied when the request
// omits a field. Out-of-range values are passed through verbatim; the model
// is the authority on valid ranges.
const (
	DefaultRepetitionPenalty = 1.2
	DefaultMinP              = 0.05
	DefaultTopP              = 1.0
	DefaultExaggeration      = 0.5
	DefaultCFGWeight         = 0.5
	DefaultTemperature       = 0.8
)

// GenerationParams carries the resolved numeric generation knobs.
type GenerationParams struct {
	RepetitionPenalty float64
	MinP              float64
	TopP              float64
	Exaggeration      float64
	CFGWeight         float64
	Temperature       float64
}

// DefaultGenerationParams returns the documented parameter defaults.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		RepetitionPenalty: DefaultRepetitionPenalty,
		MinP:              DefaultMinP,
		TopP:              DefaultTopP,
		Exaggeration:      DefaultExaggeration,
		CFGWeight:         DefaultCFGWeight,
		Temperature:       DefaultTemperature,
	}
}

// InvocationArgs is the variant-specific invocation shape handed to the
// model. Audio fields are local paths to ephemeral resources owned by the
// invocation that built the args.
type InvocationArgs struct {
	Text            string
	LanguageID      string
	AudioPromptPath string
	SourceAudioPath string
	TargetVoicePath string
	Params          GenerationParams
	VoiceCloned     bool
}

// GenerationResult is the raw model output, consumed immediately by the
// response encoder and never retained past the invocation.
type GenerationResult struct {
	Samples    []float32
	SampleRate int
}

// JobResponse is the reply payload. Exactly one of the success fields or the
// Error field is populated; VoiceCloned is a pointer so that voice-clone-mode
// responses omit it entirely, matching the wire contract.
type JobResponse struct {
	AudioBase64 string `json:"audio_base64,omitempty"`
	SampleRate  int    `json:"sample_rate,omitempty"`
	Format      string `json:"format,omitempty"`
	LanguageID  string `json:"language_id,omitempty"`
	ModelType   string `json:"model_type,omitempty"`
	Mode        string `json:"mode,omitempty"`
	VoiceCloned *bool  `json:"voice_cloned,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ErrorResponse builds the uniform failure reply.
func ErrorResponse(err error) JobResponse {
	return JobResponse{Error: err.Error()}
}
