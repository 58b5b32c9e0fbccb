// Package resources manages ephemeral audio resources: transport-encoded
// payloads are materialized into local temp files owned by a per-invocation
// scope and swept unconditionally when the invocation ends.
package resources

import (
	"encoding/base64"
	"fmt"
	"os"
	"sync"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-gateway/internal/core"
	"github.com/google/uuid"
)

// Temp file naming pattern for materialized audio.
const tempFilePattern = "speech-gateway-*.wav"

// Error message format for decode failures. The field name is part of the
// client-facing message.
const errFmtInvalidField = "Invalid %s"

// Manager creates invocation scopes. The directory is shared; ownership of
// the files inside it is per-scope.
type Manager struct {
	log *logger.Logger
	dir string
}

// New creates a resource manager that materializes files under dir. An empty
// dir falls back to the system temp directory.
func New(dir string, log *logger.Logger) *Manager {
	return &Manager{
		log: log,
		dir: dir,
	}
}

// NewScope opens a fresh per-invocation scope.
func (m *Manager) NewScope() *Scope {
	return &Scope{
		id:    uuid.NewString(),
		log:   m.log,
		dir:   m.dir,
		mu:    sync.Mutex{},
		files: nil,
	}
}

// Scope tracks every resource materialized during one invocation. It is
// owned by that invocation and must not be shared across jobs.
type Scope struct {
	id    string
	log   *logger.Logger
	dir   string
	mu    sync.Mutex
	files []string
}

// ID returns the scope's correlation identifier.
func (s *Scope) ID() string {
	return s.id
}

// Materialize decodes a base64 payload into a local temp file and registers
// it for release. Decode failures name the offending request field and never
// leave a partial file registered or on disk.
func (s *Scope) Materialize(field string, encoded string) (string, error) {
	data, decodeErr := base64.StdEncoding.DecodeString(encoded)
	if decodeErr != nil {
		return "", core.WrapError(
			core.KindInvalidEncoding,
			fmt.Sprintf(errFmtInvalidField, field),
			decodeErr,
		)
	}

	tempFile, createErr := os.CreateTemp(s.dir, tempFilePattern)
	if createErr != nil {
		return "", core.WrapError(
			core.KindInvalidEncoding,
			fmt.Sprintf(errFmtInvalidField, field),
			fmt.Errorf("failed to create temp file: %w", createErr),
		)
	}

	path := tempFile.Name()

	_, writeErr := tempFile.Write(data)
	closeErr := tempFile.Close()

	if writeErr != nil || closeErr != nil {
		removeErr := os.Remove(path)
		if removeErr != nil {
			s.log.Warn("Scope %s: failed to remove partial file '%s': %v", s.id, path, removeErr)
		}

		cause := writeErr
		if cause == nil {
			cause = closeErr
		}

		return "", core.WrapError(
			core.KindInvalidEncoding,
			fmt.Sprintf(errFmtInvalidField, field),
			fmt.Errorf("failed to write temp file: %w", cause),
		)
	}

	s.mu.Lock()
	s.files = append(s.files, path)
	s.mu.Unlock()

	return path, nil
}

// ReleaseAll removes every registered resource. Individual removal failures
// are logged and never propagated; the registry is emptied regardless so a
// scope is always clean after release.
func (s *Scope) ReleaseAll() {
	s.mu.Lock()
	files := s.files
	s.files = nil
	s.mu.Unlock()

	for _, path := range files {
		removeErr := os.Remove(path)
		if removeErr != nil && !os.IsNotExist(removeErr) {
			s.log.Warn("Scope %s: failed to remove temp file '%s': %v", s.id, path, removeErr)
		}
	}
}

// Active reports how many resources remain registered in the scope.
func (s *Scope) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.files)
}
