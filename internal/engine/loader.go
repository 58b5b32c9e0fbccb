package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-gateway/internal/config"
	"github.com/book-expert/speech-gateway/internal/core"
	"github.com/book-expert/speech-gateway/internal/paths"
)

// Engine backend names.
const (
	BackendProcess = "process"
	BackendHTTP    = "http"
)

// Artifact file permissions.
const artifactFilePermissions = 0o600

// Static errors.
var (
	ErrUnknownBackend   = errors.New("unknown engine backend")
	ErrNoArtifactKey    = errors.New("no artifact key configured for variant")
	ErrNoSampleRate     = errors.New("no sample rate configured for variant")
	ErrNoBinaryPath     = errors.New("no binary path configured for the process backend")
	ErrNoServiceURL     = errors.New("no service URL configured for the http backend")
	ErrArtifactStoreNil = errors.New("artifact store is required for the process backend")
)

// Loader constructs model variants. For the process backend it stages the
// variant's artifact from the object store into the local models directory;
// for the http backend it health-checks the sidecar. It implements
// core.ModelLoader; the model cache guarantees Load runs at most once per
// variant at a time.
type Loader struct {
	engineCfg config.EngineConfig
	modelsCfg config.ModelsConfig
	store     core.ObjectStore
	modelsDir string
	log       *logger.Logger
}

// NewLoader creates a loader. The store may be nil for the http backend.
func NewLoader(
	engineCfg config.EngineConfig,
	modelsCfg config.ModelsConfig,
	store core.ObjectStore,
	modelsDir string,
	log *logger.Logger,
) *Loader {
	if modelsDir == "" {
		modelsDir = paths.ModelsDir()
	}

	return &Loader{
		engineCfg: engineCfg,
		modelsCfg: modelsCfg,
		store:     store,
		modelsDir: modelsDir,
		log:       log,
	}
}

// Load constructs the model for a variant on the configured backend.
func (l *Loader) Load(ctx context.Context, variant core.ModelVariant) (core.SpeechModel, error) {
	modelCfg, cfgErr := l.modelsCfg.ForVariant(variant.ID)
	if cfgErr != nil {
		return nil, cfgErr
	}

	if modelCfg.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSampleRate, variant.ID)
	}

	switch l.engineCfg.Backend {
	case BackendProcess:
		return l.loadProcessModel(ctx, variant, modelCfg)
	case BackendHTTP:
		return l.loadHTTPModel(ctx, variant, modelCfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, l.engineCfg.Backend)
	}
}

func (l *Loader) loadProcessModel(
	ctx context.Context,
	variant core.ModelVariant,
	modelCfg config.ModelConfig,
) (core.SpeechModel, error) {
	if l.engineCfg.BinaryPath == "" {
		return nil, ErrNoBinaryPath
	}

	modelPath, stageErr := l.stageArtifact(ctx, modelCfg.ArtifactKey)
	if stageErr != nil {
		return nil, stageErr
	}

	return &ProcessModel{
		binaryPath: l.engineCfg.BinaryPath,
		modelPath:  modelPath,
		variant:    variant,
		sampleRate: modelCfg.SampleRate,
		timeout:    l.engineCfg.Timeout(),
		log:        l.log,
	}, nil
}

func (l *Loader) loadHTTPModel(
	ctx context.Context,
	variant core.ModelVariant,
	modelCfg config.ModelConfig,
) (core.SpeechModel, error) {
	if l.engineCfg.ServiceURL == "" {
		return nil, ErrNoServiceURL
	}

	model := &HTTPModel{
		httpClient: &http.Client{Timeout: l.engineCfg.Timeout()},
		baseURL:    l.engineCfg.ServiceURL,
		variant:    variant,
		sampleRate: modelCfg.SampleRate,
	}

	healthErr := model.healthCheck(ctx)
	if healthErr != nil {
		return nil, healthErr
	}

	return model, nil
}

// stageArtifact ensures the variant's weights are present locally, pulling
// them from the object store on first use.
func (l *Loader) stageArtifact(ctx context.Context, artifactKey string) (string, error) {
	if artifactKey == "" {
		return "", ErrNoArtifactKey
	}

	if l.store == nil {
		return "", ErrArtifactStoreNil
	}

	localPath := filepath.Join(l.modelsDir, paths.SanitizeFilename(artifactKey))

	_, statErr := os.Stat(localPath)
	if statErr == nil {
		return localPath, nil
	}

	l.log.Info("Staging model artifact '%s'...", artifactKey)

	data, downloadErr := l.store.Download(ctx, artifactKey)
	if downloadErr != nil {
		return "", fmt.Errorf("failed to download artifact '%s': %w", artifactKey, downloadErr)
	}

	dirErr := paths.EnsureDir(l.modelsDir)
	if dirErr != nil {
		return "", dirErr
	}

	writeErr := os.WriteFile(localPath, data, artifactFilePermissions)
	if writeErr != nil {
		return "", fmt.Errorf("failed to write artifact '%s': %w", localPath, writeErr)
	}

	l.log.Info("Staged model artifact '%s' (%s)", artifactKey, paths.FormatBytes(int64(len(data))))

	return localPath, nil
}
