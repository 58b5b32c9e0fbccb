// Package config_test tests the configuration loading for the speech gateway.
package config_test

import (
	"testing"
	"time"

	"github.com/book-expert/speech-gateway/internal/config"
	"github.com/book-expert/speech-gateway/internal/core"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tomlData := `
[nats]
url = "nats://127.0.0.1:4222"
speech_jobs_subject = "speech.jobs"
model_object_store_bucket = "MODEL_ARTIFACTS"

[gateway]
device = "gpu"
load_retry_cooldown_seconds = 45
job_timeout_seconds = 90
scratch_dir = "/var/tmp/speech-gateway"

[engine]
backend = "process"
binary_path = "/usr/local/bin/chatterbox"
timeout_seconds = 240

[models.english]
artifact_key = "chatterbox-en-v2.bin"
sample_rate = 24000

[models.multilingual]
artifact_key = "chatterbox-mtl-v2.bin"
sample_rate = 24000

[models.voice_clone]
artifact_key = "chatterbox-vc-v2.bin"
sample_rate = 24000

[paths]
base_logs_dir = "/var/log/speech-gateway"
`

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)

	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "speech.jobs", cfg.NATS.SpeechJobsSubject)
	assert.Equal(t, "MODEL_ARTIFACTS", cfg.NATS.ModelObjectStoreBucket)
	assert.Equal(t, "gpu", cfg.Gateway.Device)
	assert.Equal(t, 45*time.Second, cfg.Gateway.LoadRetryCooldown())
	assert.Equal(t, 90*time.Second, cfg.Gateway.JobTimeout())
	assert.Equal(t, "/var/tmp/speech-gateway", cfg.Gateway.ScratchDir)
	assert.Equal(t, "process", cfg.Engine.Backend)
	assert.Equal(t, "/usr/local/bin/chatterbox", cfg.Engine.BinaryPath)
	assert.Equal(t, 240*time.Second, cfg.Engine.Timeout())
	assert.Equal(t, "chatterbox-en-v2.bin", cfg.Models.English.ArtifactKey)
	assert.Equal(t, "/var/log/speech-gateway", cfg.Paths.BaseLogsDir)
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	var cfg config.Config

	cfg.ApplyDefaults()

	assert.Equal(t, 30*time.Second, cfg.Gateway.LoadRetryCooldown())
	assert.Equal(t, 120*time.Second, cfg.Gateway.JobTimeout())
	assert.Equal(t, 300*time.Second, cfg.Engine.Timeout())
	assert.Equal(t, "process", cfg.Engine.Backend)
}

func TestApplyDefaults_PreservesNegativeCooldown(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	cfg.Gateway.LoadRetryCooldownSeconds = -1

	cfg.ApplyDefaults()

	assert.Negative(t, cfg.Gateway.LoadRetryCooldown())
}

func TestForVariant(t *testing.T) {
	t.Parallel()

	models := config.ModelsConfig{
		English:      config.ModelConfig{ArtifactKey: "en.bin", SampleRate: 24000},
		Multilingual: config.ModelConfig{ArtifactKey: "mtl.bin", SampleRate: 24000},
		VoiceClone:   config.ModelConfig{ArtifactKey: "vc.bin", SampleRate: 24000},
	}

	english, err := models.ForVariant(core.VariantEnglishTTS)
	require.NoError(t, err)
	assert.Equal(t, "en.bin", english.ArtifactKey)

	voiceClone, err := models.ForVariant(core.VariantVoiceConversion)
	require.NoError(t, err)
	assert.Equal(t, "vc.bin", voiceClone.ArtifactKey)

	_, err = models.ForVariant(core.VariantID("bogus"))
	require.ErrorIs(t, err, config.ErrUnknownVariant)
}
