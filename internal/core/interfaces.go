package core

import "context"

// SpeechModel is the narrow contract of a loaded model variant. Generate is
// blocking and may be computationally heavy; callers must not hold shared
// locks across it.
type SpeechModel interface {
	Generate(ctx context.Context, args InvocationArgs) (GenerationResult, error)
	SampleRate() int
}

// ModelLoader constructs a model variant on the configured device. Loads are
// expensive; the model cache guarantees at most one in-flight load per
// variant.
type ModelLoader interface {
	Load(ctx context.Context, variant ModelVariant) (SpeechModel, error)
}

// ObjectStore is the interface for the key-value blob store holding model
// artifacts.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// AudioEncoder wraps raw samples into a self-describing container byte
// stream. The codec internals are a collaborator concern, not gateway logic.
type AudioEncoder interface {
	Encode(samples []float32, sampleRate int) ([]byte, error)
}

// AudioMaterializer converts a transport-encoded audio payload into a local
// ephemeral resource and returns its path. The field name is carried into
// decode errors so failures identify the offending request field.
type AudioMaterializer interface {
	Materialize(field string, encoded string) (string, error)
}
