// Package objectstore provides the NATS-backed blob store holding model
// artifacts. The loader pulls variant weights from here into the local cache
// on first load.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ArtifactStore implements core.ObjectStore on a NATS JetStream object store
// bucket.
type ArtifactStore struct {
	bucket string
	store  nats.ObjectStore
}

// New creates the artifact bucket if it does not exist, or binds to it when
// it does.
func New(jetstreamContext nats.JetStreamContext, bucketName string) (*ArtifactStore, error) {
	store, err := createOrBind(jetstreamContext, bucketName)
	if err != nil {
		return nil, err
	}

	return &ArtifactStore{
		bucket: bucketName,
		store:  store,
	}, nil
}

func createOrBind(jetstreamContext nats.JetStreamContext, bucketName string) (nats.ObjectStore, error) {
	store, createErr := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Model artifacts for the %s bucket.", bucketName),
		TTL:         0,
		MaxBytes:    0,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Metadata:    nil,
		Compression: false,
	})
	if createErr == nil {
		return store, nil
	}

	if !errors.Is(createErr, jetstream.ErrBucketExists) {
		return nil, fmt.Errorf("failed to create artifact bucket '%s': %w", bucketName, createErr)
	}

	store, bindErr := jetstreamContext.ObjectStore(bucketName)
	if bindErr != nil {
		return nil, fmt.Errorf("failed to bind to existing artifact bucket '%s': %w", bucketName, bindErr)
	}

	return store, nil
}

// Download retrieves an artifact from the store.
func (s *ArtifactStore) Download(_ context.Context, key string) ([]byte, error) {
	obj, err := s.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact '%s' from bucket '%s': %w", key, s.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read artifact '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close artifact '%s': %w", key, closeErr)
	}

	return data, nil
}

// Upload stores an artifact. Used by provisioning tooling and tests; the
// gateway itself only downloads.
func (s *ArtifactStore) Upload(_ context.Context, key string, data []byte) error {
	reader := bytes.NewReader(data)

	_, err := s.store.Put(&nats.ObjectMeta{
		Name:        key,
		Description: "",
		Headers:     nil,
		Metadata:    nil,
		Opts:        nil,
	}, reader)
	if err != nil {
		return fmt.Errorf("failed to put artifact '%s' to bucket '%s': %w", key, s.bucket, err)
	}

	return nil
}
