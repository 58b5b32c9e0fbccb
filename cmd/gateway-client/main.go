// main package for the gateway-client command-line tool. It submits a single
// speech job over NATS request/reply and writes the returned audio to disk.
package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/speech-gateway/internal/core"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Flag descriptions.
const (
	flagURLDesc      = "NATS server URL"
	flagSubjectDesc  = "Subject the gateway listens on"
	flagTextDesc     = "Text to convert to speech"
	flagLanguageDesc = "Language ID for multilingual synthesis (e.g. fr)"
	flagVoiceDesc    = "WAV file with a voice sample for cloned synthesis"
	flagSourceDesc   = "WAV file with source speech for voice conversion"
	flagTargetDesc   = "WAV file with the target voice for voice conversion"
	flagOutputDesc   = "Output file path (.wav)"
	flagTimeoutDesc  = "Reply timeout"
)

// Flag names.
const (
	flagURL      = "url"
	flagSubject  = "subject"
	flagText     = "text"
	flagLanguage = "language"
	flagVoice    = "voice"
	flagSource   = "source"
	flagTarget   = "target"
	flagOutput   = "output"
	flagTimeout  = "timeout"
)

// Defaults.
const (
	defaultSubject    = "speech.jobs"
	defaultOutputFile = "output.wav"
	defaultTimeout    = 2 * time.Minute
)

// Error and log messages.
const (
	errEitherTextOrConversion = "Either --text or both --source and --target must be provided"
	errCannotSpecifyBoth      = "Cannot specify both --text and --source/--target"
	logGenerated              = "Generated: %s\n"
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	url      string
	subject  string
	text     string
	language string
	voice    string
	source   string
	target   string
	output   string
	timeout  time.Duration
}

func main() {
	err := run()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	flags := parseFlags()

	request, err := buildRequest(flags)
	if err != nil {
		flag.Usage()

		return err
	}

	response, err := submit(flags, request)
	if err != nil {
		return err
	}

	if response.Error != "" {
		return fmt.Errorf("job failed: %s", response.Error)
	}

	if response.Message != "" {
		fmt.Println(response.Message)

		return nil
	}

	return writeAudio(flags.output, response)
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags() appFlags {
	var flags appFlags
	flag.StringVar(&flags.url, flagURL, nats.DefaultURL, flagURLDesc)
	flag.StringVar(&flags.subject, flagSubject, defaultSubject, flagSubjectDesc)
	flag.StringVar(&flags.text, flagText, "", flagTextDesc)
	flag.StringVar(&flags.language, flagLanguage, "", flagLanguageDesc)
	flag.StringVar(&flags.voice, flagVoice, "", flagVoiceDesc)
	flag.StringVar(&flags.source, flagSource, "", flagSourceDesc)
	flag.StringVar(&flags.target, flagTarget, "", flagTargetDesc)
	flag.StringVar(&flags.output, flagOutput, defaultOutputFile, flagOutputDesc)
	flag.DurationVar(&flags.timeout, flagTimeout, defaultTimeout, flagTimeoutDesc)
	flag.Parse()

	return flags
}

// buildRequest validates the flag combination and assembles the job request.
func buildRequest(flags appFlags) (core.JobRequest, error) {
	wantsConversion := flags.source != "" || flags.target != ""

	if flags.text == "" && !wantsConversion {
		return core.JobRequest{}, errors.New(errEitherTextOrConversion)
	}

	if flags.text != "" && wantsConversion {
		return core.JobRequest{}, errors.New(errCannotSpecifyBoth)
	}

	if wantsConversion {
		return buildConversionRequest(flags)
	}

	return buildTTSRequest(flags)
}

func buildTTSRequest(flags appFlags) (core.JobRequest, error) {
	request := core.JobRequest{
		Mode:       core.ModeTTS,
		Text:       flags.text,
		LanguageID: flags.language,
	}

	if flags.voice != "" {
		encoded, err := encodeFile(flags.voice)
		if err != nil {
			return core.JobRequest{}, err
		}

		request.VoiceSampleBase64 = encoded
	}

	return request, nil
}

func buildConversionRequest(flags appFlags) (core.JobRequest, error) {
	if flags.source == "" || flags.target == "" {
		return core.JobRequest{}, errors.New(errEitherTextOrConversion)
	}

	source, err := encodeFile(flags.source)
	if err != nil {
		return core.JobRequest{}, err
	}

	target, err := encodeFile(flags.target)
	if err != nil {
		return core.JobRequest{}, err
	}

	return core.JobRequest{
		Mode:              core.ModeVoiceClone,
		SourceAudioBase64: source,
		TargetVoiceBase64: target,
	}, nil
}

func encodeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

// submit sends the enveloped job and decodes the gateway's reply.
func submit(flags appFlags, request core.JobRequest) (core.JobResponse, error) {
	natsConnection, err := nats.Connect(flags.url)
	if err != nil {
		return core.JobResponse{}, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsConnection.Close()

	envelope := struct {
		Header events.EventHeader `json:"header"`
		Input  core.JobRequest    `json:"input"`
	}{
		Header: events.EventHeader{
			Timestamp:  time.Now(),
			WorkflowID: uuid.NewString(),
			EventID:    uuid.NewString(),
			UserID:     "",
			TenantID:   "",
		},
		Input: request,
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return core.JobResponse{}, fmt.Errorf("failed to marshal job envelope: %w", err)
	}

	reply, err := natsConnection.Request(flags.subject, payload, flags.timeout)
	if err != nil {
		return core.JobResponse{}, fmt.Errorf("request failed: %w", err)
	}

	var response core.JobResponse

	err = json.Unmarshal(reply.Data, &response)
	if err != nil {
		return core.JobResponse{}, fmt.Errorf("failed to decode reply: %w", err)
	}

	return response, nil
}

// writeAudio decodes the base64 payload and writes the audio file.
func writeAudio(outputPath string, response core.JobResponse) error {
	audioData, err := base64.StdEncoding.DecodeString(response.AudioBase64)
	if err != nil {
		return fmt.Errorf("failed to decode audio payload: %w", err)
	}

	err = os.WriteFile(outputPath, audioData, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	fmt.Printf(logGenerated, outputPath)

	return nil
}
