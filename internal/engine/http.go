package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/book-expert/speech-gateway/internal/core"
)

// Sidecar API endpoints.
const (
	apiGenerate = "/v1/generate"
	apiHealth   = "/health"
)

// HTTP headers and content types.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	headerSampleRate  = "X-Sample-Rate"
	contentTypeJSON   = "application/json"
	contentTypePCM    = "application/octet-stream"
)

// Static errors.
var (
	ErrEmptyAudioResponse    = errors.New("sidecar returned empty audio data")
	ErrUnexpectedContentType = errors.New("unexpected sidecar content type")
)

// generateRequest is the JSON payload the inference sidecar expects.
type generateRequest struct {
	Variant           string  `json:"variant"`
	Device            string  `json:"device"`
	Text              string  `json:"text,omitempty"`
	LanguageID        string  `json:"language_id,omitempty"`
	AudioPromptPath   string  `json:"audio_prompt_path,omitempty"`
	SourceAudioPath   string  `json:"source_audio_path,omitempty"`
	TargetVoicePath   string  `json:"target_voice_path,omitempty"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
	MinP              float64 `json:"min_p"`
	TopP              float64 `json:"top_p"`
	Exaggeration      float64 `json:"exaggeration"`
	CFGWeight         float64 `json:"cfg_weight"`
	Temperature       float64 `json:"temperature"`
}

// sidecarErrorResponse is the structured error shape the sidecar returns on
// non-OK statuses.
type sidecarErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// HTTPModel invokes a standalone inference sidecar over HTTP. It implements
// core.SpeechModel; the sidecar owns the weights, so loading reduces to a
// health check performed by the loader.
type HTTPModel struct {
	httpClient *http.Client
	baseURL    string
	variant    core.ModelVariant
	sampleRate int
}

// SampleRate returns the variant's configured output sample rate.
func (m *HTTPModel) SampleRate() int {
	return m.sampleRate
}

// Generate posts the invocation to the sidecar and decodes the raw PCM
// response. The sidecar may override the sample rate via the X-Sample-Rate
// header.
func (m *HTTPModel) Generate(ctx context.Context, args core.InvocationArgs) (core.GenerationResult, error) {
	requestBody, marshalErr := json.Marshal(generateRequest{
		Variant:           string(m.variant.ID),
		Device:            string(m.variant.Device),
		Text:              args.Text,
		LanguageID:        args.LanguageID,
		AudioPromptPath:   args.AudioPromptPath,
		SourceAudioPath:   args.SourceAudioPath,
		TargetVoicePath:   args.TargetVoicePath,
		RepetitionPenalty: args.Params.RepetitionPenalty,
		MinP:              args.Params.MinP,
		TopP:              args.Params.TopP,
		Exaggeration:      args.Params.Exaggeration,
		CFGWeight:         args.Params.CFGWeight,
		Temperature:       args.Params.Temperature,
	})
	if marshalErr != nil {
		return core.GenerationResult{}, fmt.Errorf("failed to marshal generate request: %w", marshalErr)
	}

	httpReq, reqErr := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		m.baseURL+apiGenerate,
		bytes.NewReader(requestBody),
	)
	if reqErr != nil {
		return core.GenerationResult{}, fmt.Errorf("failed to create generate request: %w", reqErr)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypePCM)

	resp, doErr := m.httpClient.Do(httpReq)
	if doErr != nil {
		return core.GenerationResult{}, fmt.Errorf(
			"failed to reach inference sidecar at %s: %w", m.baseURL, doErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.GenerationResult{}, parseSidecarError(resp)
	}

	contentType := resp.Header.Get(headerContentType)
	if contentType != contentTypePCM {
		return core.GenerationResult{}, fmt.Errorf(
			"%w: expected %s, got %s", ErrUnexpectedContentType, contentTypePCM, contentType)
	}

	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return core.GenerationResult{}, fmt.Errorf("failed to read sidecar response: %w", readErr)
	}

	if len(data) == 0 {
		return core.GenerationResult{}, ErrEmptyAudioResponse
	}

	samples, decodeErr := DecodeSamples(data)
	if decodeErr != nil {
		return core.GenerationResult{}, fmt.Errorf("failed to decode sidecar response: %w", decodeErr)
	}

	return core.GenerationResult{
		Samples:    samples,
		SampleRate: m.responseSampleRate(resp),
	}, nil
}

// healthCheck verifies the sidecar is reachable before the variant is handed
// out as loaded.
func (m *HTTPModel) healthCheck(ctx context.Context) error {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+apiHealth, http.NoBody)
	if reqErr != nil {
		return fmt.Errorf("failed to create health check request: %w", reqErr)
	}

	resp, doErr := m.httpClient.Do(req)
	if doErr != nil {
		return fmt.Errorf("health check failed for sidecar at %s: %w", m.baseURL, doErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

func (m *HTTPModel) responseSampleRate(resp *http.Response) int {
	header := resp.Header.Get(headerSampleRate)
	if header == "" {
		return m.sampleRate
	}

	rate, parseErr := strconv.Atoi(header)
	if parseErr != nil || rate <= 0 {
		return m.sampleRate
	}

	return rate
}

// parseSidecarError decodes a structured JSON error from the sidecar, falling
// back to the raw body so diagnostics are preserved.
func parseSidecarError(resp *http.Response) error {
	var errorResp sidecarErrorResponse

	decodeErr := json.NewDecoder(resp.Body).Decode(&errorResp)
	if decodeErr == nil && errorResp.Detail != "" {
		return fmt.Errorf("sidecar error (%s): %s (code: %s)",
			resp.Status, errorResp.Detail, errorResp.ErrorCode)
	}

	body, _ := io.ReadAll(resp.Body)

	return fmt.Errorf("sidecar returned non-OK status: %s, body: %s", resp.Status, string(body))
}
