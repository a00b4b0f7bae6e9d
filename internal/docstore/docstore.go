// Package docstore stores attached documents (quotations, PO copies,
// delivery notes) and hands back opaque references. The engine never looks
// inside a document; it only carries the reference in the flow payload.
package docstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arjunv/procure-flow/internal/models"
)

// Store persists a blob and returns its reference.
type Store interface {
	Store(name string, content []byte) (models.FileRef, error)
}

// LocalStore writes documents under a base directory, one file per ref.
type LocalStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalStore creates a local-disk document store.
func NewLocalStore(baseDir string, logger *zap.Logger) *LocalStore {
	return &LocalStore{baseDir: baseDir, logger: logger}
}

// Store writes content under a fresh reference. The original name is kept
// only for display; the ref is what the payload carries.
func (s *LocalStore) Store(name string, content []byte) (models.FileRef, error) {
	if err := validateName(name); err != nil {
		return models.FileRef{}, err
	}

	ref := uuid.NewString()
	dir := filepath.Join(s.baseDir, ref[:2])
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.logger.Error("Failed to create document directory",
			zap.String("dir", dir),
			zap.Error(err))
		return models.FileRef{}, fmt.Errorf("failed to create directories: %w", err)
	}

	path := filepath.Join(dir, ref)
	if err := os.WriteFile(path, content, 0644); err != nil {
		s.logger.Error("Failed to write document",
			zap.String("path", path),
			zap.Error(err))
		return models.FileRef{}, fmt.Errorf("failed to write document: %w", err)
	}

	s.logger.Debug("Document stored",
		zap.String("ref", ref),
		zap.String("name", name),
		zap.Int("bytes", len(content)))
	return models.FileRef{Ref: ref, Name: name}, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("document name is empty")
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("document name %q contains path separators", name)
	}
	return nil
}
