package blobstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/dreamforge-ai/dreamforge/internal/config"

	"go.uber.org/zap"
)

const (
	ImagePrefix = "image"
	ModelPrefix = "model"

	ImagesFolder = "images"
	ModelsFolder = "models"

	timestampLayout = "20060102_150405"
)

// Store holds opaque binary artifacts (images, 3D models) outside the record
// store. Paths returned by the save methods are the canonical references kept
// in generation records.
type Store interface {
	SaveImage(data []byte) (string, error)
	SaveModel(data []byte) (string, error)
	Load(path string) ([]byte, error)
	Exists(path string) bool
	Remove(path string) error

	// PruneParentDir removes the directory containing path if it is empty.
	// Best effort; implementations without real directories may no-op.
	PruneParentDir(path string) error
}

func NewBlobStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	filesystem := strings.ToLower(cfg.Filesystem)

	if filesystem == config.FilesystemLocal {
		return NewLocalStore(cfg.OutputsDir, logger), nil
	} else if filesystem == config.FilesystemS3 {
		return NewS3Store(cfg, logger)
	}

	return nil, fmt.Errorf("invalid filesystem type %s", cfg.Filesystem)
}

// Blob files are named {prefix}_{YYYYMMDD_HHMMSS}.{extension}.
func blobFilename(prefix string, ts time.Time, extension string) string {
	return fmt.Sprintf("%s_%s.%s", prefix, ts.Format(timestampLayout), extension)
}
