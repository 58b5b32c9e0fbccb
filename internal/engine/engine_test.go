// Package engine_test tests artifact staging, PCM decoding, and the sidecar
// backend.
package engine_test

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-gateway/internal/config"
	"github.com/book-expert/speech-gateway/internal/core"
	"github.com/book-expert/speech-gateway/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMockDownload = errors.New("mock download error")

// mockStore serves artifacts from memory and counts downloads.
type mockStore struct {
	artifacts map[string][]byte
	downloads int32
	failAll   bool
}

func (s *mockStore) Download(_ context.Context, key string) ([]byte, error) {
	atomic.AddInt32(&s.downloads, 1)

	if s.failAll {
		return nil, errMockDownload
	}

	data, ok := s.artifacts[key]
	if !ok {
		return nil, errMockDownload
	}

	return data, nil
}

func (s *mockStore) Upload(_ context.Context, key string, data []byte) error {
	s.artifacts[key] = data

	return nil
}

func testModelsConfig() config.ModelsConfig {
	return config.ModelsConfig{
		English:      config.ModelConfig{ArtifactKey: "en.bin", SampleRate: 24000},
		Multilingual: config.ModelConfig{ArtifactKey: "mtl.bin", SampleRate: 24000},
		VoiceClone:   config.ModelConfig{ArtifactKey: "vc.bin", SampleRate: 24000},
	}
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "engine-test.log")
	require.NoError(t, err)

	return testLogger
}

func encodeSamples(samples []float32) []byte {
	data := make([]byte, len(samples)*4)
	for i, sample := range samples {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(sample))
	}

	return data
}

func TestDecodeSamples_RoundTrip(t *testing.T) {
	t.Parallel()

	samples := []float32{0.0, 0.5, -0.5, 1.0}

	decoded, err := engine.DecodeSamples(encodeSamples(samples))
	require.NoError(t, err)
	assert.Equal(t, samples, decoded)
}

func TestDecodeSamples_RejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := engine.DecodeSamples(nil)
	require.ErrorIs(t, err, engine.ErrEmptyPCM)

	_, err = engine.DecodeSamples([]byte{1, 2, 3})
	require.ErrorIs(t, err, engine.ErrTruncatedPCM)
}

func TestLoader_ProcessBackend_StagesArtifactOnce(t *testing.T) {
	t.Parallel()

	modelsDir := t.TempDir()
	store := &mockStore{artifacts: map[string][]byte{"en.bin": []byte("weights")}}

	loader := engine.NewLoader(
		config.EngineConfig{Backend: engine.BackendProcess, BinaryPath: "/usr/bin/true", ServiceURL: "", TimeoutSeconds: 5},
		testModelsConfig(),
		store,
		modelsDir,
		newTestLogger(t),
	)

	variant := core.ModelVariant{ID: core.VariantEnglishTTS, Device: core.DeviceCPU}

	model, err := loader.Load(context.Background(), variant)
	require.NoError(t, err)
	assert.Equal(t, 24000, model.SampleRate())

	staged, readErr := os.ReadFile(filepath.Join(modelsDir, "en.bin"))
	require.NoError(t, readErr)
	assert.Equal(t, []byte("weights"), staged)

	// A second load of the same variant reuses the staged artifact.
	_, err = loader.Load(context.Background(), variant)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&store.downloads))
}

func TestLoader_ProcessBackend_DownloadFailure(t *testing.T) {
	t.Parallel()

	loader := engine.NewLoader(
		config.EngineConfig{Backend: engine.BackendProcess, BinaryPath: "/usr/bin/true", ServiceURL: "", TimeoutSeconds: 5},
		testModelsConfig(),
		&mockStore{artifacts: map[string][]byte{}, failAll: true},
		t.TempDir(),
		newTestLogger(t),
	)

	_, err := loader.Load(context.Background(), core.ModelVariant{ID: core.VariantEnglishTTS, Device: core.DeviceCPU})
	require.ErrorIs(t, err, errMockDownload)
}

func TestLoader_UnknownBackend(t *testing.T) {
	t.Parallel()

	loader := engine.NewLoader(
		config.EngineConfig{Backend: "bogus", BinaryPath: "", ServiceURL: "", TimeoutSeconds: 5},
		testModelsConfig(),
		nil,
		t.TempDir(),
		newTestLogger(t),
	)

	_, err := loader.Load(context.Background(), core.ModelVariant{ID: core.VariantEnglishTTS, Device: core.DeviceCPU})
	require.ErrorIs(t, err, engine.ErrUnknownBackend)
}

func TestLoader_HTTPBackend_HealthCheckAndGenerate(t *testing.T) {
	t.Parallel()

	wantSamples := []float32{0.25, -0.25}

	sidecar := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/v1/generate":
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Header().Set("X-Sample-Rate", "22050")
			_, _ = w.Write(encodeSamples(wantSamples))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer sidecar.Close()

	loader := engine.NewLoader(
		config.EngineConfig{Backend: engine.BackendHTTP, BinaryPath: "", ServiceURL: sidecar.URL, TimeoutSeconds: 5},
		testModelsConfig(),
		nil,
		t.TempDir(),
		newTestLogger(t),
	)

	model, err := loader.Load(context.Background(), core.ModelVariant{ID: core.VariantEnglishTTS, Device: core.DeviceCPU})
	require.NoError(t, err)

	result, err := model.Generate(context.Background(), core.InvocationArgs{
		Text:   "Hello",
		Params: core.DefaultGenerationParams(),
	})
	require.NoError(t, err)

	assert.Equal(t, wantSamples, result.Samples)
	assert.Equal(t, 22050, result.SampleRate, "the sidecar sample-rate header wins")
}

func TestLoader_HTTPBackend_UnhealthySidecarFailsLoad(t *testing.T) {
	t.Parallel()

	sidecar := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer sidecar.Close()

	loader := engine.NewLoader(
		config.EngineConfig{Backend: engine.BackendHTTP, BinaryPath: "", ServiceURL: sidecar.URL, TimeoutSeconds: 5},
		testModelsConfig(),
		nil,
		t.TempDir(),
		newTestLogger(t),
	)

	_, err := loader.Load(context.Background(), core.ModelVariant{ID: core.VariantEnglishTTS, Device: core.DeviceCPU})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health check failed")
}

func TestLoader_HTTPBackend_SidecarErrorIsStructured(t *testing.T) {
	t.Parallel()

	sidecar := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "text too long", "error_code": "TEXT_LENGTH"}`))
	}))
	defer sidecar.Close()

	loader := engine.NewLoader(
		config.EngineConfig{Backend: engine.BackendHTTP, BinaryPath: "", ServiceURL: sidecar.URL, TimeoutSeconds: 5},
		testModelsConfig(),
		nil,
		t.TempDir(),
		newTestLogger(t),
	)

	model, err := loader.Load(context.Background(), core.ModelVariant{ID: core.VariantEnglishTTS, Device: core.DeviceCPU})
	require.NoError(t, err)

	_, err = model.Generate(context.Background(), core.InvocationArgs{
		Text:   "Hello",
		Params: core.DefaultGenerationParams(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text too long")
	assert.Contains(t, err.Error(), "TEXT_LENGTH")
}
