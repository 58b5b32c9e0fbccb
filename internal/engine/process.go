package engine

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-gateway/internal/core"
)

// Temp file pattern for the raw PCM the binary exports.
const pcmExportPattern = "speech-gateway-pcm-*.f32"

// ProcessModel invokes the inference binary once per generation, exporting
// raw PCM to a temp file. It implements core.SpeechModel.
type ProcessModel struct {
	binaryPath string
	modelPath  string
	variant    core.ModelVariant
	sampleRate int
	timeout    time.Duration
	log        *logger.Logger
}

// SampleRate returns the variant's output sample rate.
func (m *ProcessModel) SampleRate() int {
	return m.sampleRate
}

// Generate runs the binary with the invocation args and reads back the
// exported samples. The export file never outlives the call; removal
// failures are logged, not propagated.
func (m *ProcessModel) Generate(ctx context.Context, args core.InvocationArgs) (core.GenerationResult, error) {
	exportFile, createErr := os.CreateTemp("", pcmExportPattern)
	if createErr != nil {
		return core.GenerationResult{}, fmt.Errorf("failed to create PCM export file: %w", createErr)
	}

	exportPath := exportFile.Name()

	closeErr := exportFile.Close()
	if closeErr != nil {
		return core.GenerationResult{}, fmt.Errorf("failed to close PCM export file: %w", closeErr)
	}

	defer func() {
		removeErr := os.Remove(exportPath)
		if removeErr != nil && !os.IsNotExist(removeErr) {
			m.log.Warn("Failed to remove PCM export file '%s': %v", exportPath, removeErr)
		}
	}()

	if m.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	argv := m.buildArgv(args, exportPath)

	// #nosec G204 -- binary path comes from operator configuration, the
	// remaining arguments are paths the gateway created itself.
	cmd := exec.CommandContext(ctx, m.binaryPath, argv...)

	output, runErr := cmd.CombinedOutput()
	if runErr != nil {
		return core.GenerationResult{}, fmt.Errorf(
			"inference binary failed: %w - output: %s", runErr, string(output))
	}

	data, readErr := os.ReadFile(exportPath)
	if readErr != nil {
		return core.GenerationResult{}, fmt.Errorf("failed to read PCM export: %w", readErr)
	}

	samples, decodeErr := DecodeSamples(data)
	if decodeErr != nil {
		return core.GenerationResult{}, fmt.Errorf("failed to decode PCM export: %w", decodeErr)
	}

	return core.GenerationResult{
		Samples:    samples,
		SampleRate: m.sampleRate,
	}, nil
}

// buildArgv shapes the command line for the variant. Numeric knobs are passed
// through at full precision.
func (m *ProcessModel) buildArgv(args core.InvocationArgs, exportPath string) []string {
	argv := []string{
		"--model", m.modelPath,
		"--variant", string(m.variant.ID),
		"--device", string(m.variant.Device),
		"--pcm_export", exportPath,
	}

	if m.variant.ID == core.VariantVoiceConversion {
		return append(argv,
			"--source_audio", args.SourceAudioPath,
			"--target_voice", args.TargetVoicePath,
		)
	}

	argv = append(argv, "--text", args.Text)

	if args.LanguageID != "" {
		argv = append(argv, "--language_id", args.LanguageID)
	}

	if args.AudioPromptPath != "" {
		argv = append(argv, "--audio_prompt", args.AudioPromptPath)
	}

	return append(argv,
		"--repetition_penalty", formatKnob(args.Params.RepetitionPenalty),
		"--min_p", formatKnob(args.Params.MinP),
		"--top_p", formatKnob(args.Params.TopP),
		"--exaggeration", formatKnob(args.Params.Exaggeration),
		"--cfg_weight", formatKnob(args.Params.CFGWeight),
		"--temperature", formatKnob(args.Params.Temperature),
	)
}

func formatKnob(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
