package blobstore

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

type LocalStore struct {
	outputsDir string
	logger     *zap.Logger
	now        func() time.Time
}

func NewLocalStore(outputsDir string, logger *zap.Logger) *LocalStore {
	return &LocalStore{
		outputsDir: outputsDir,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *LocalStore) SaveImage(data []byte) (string, error) {
	extension := strings.TrimPrefix(mimetype.Detect(data).Extension(), ".")
	if extension == "" {
		extension = "png"
	}

	return s.save(ImagesFolder, ImagePrefix, extension, data)
}

func (s *LocalStore) SaveModel(data []byte) (string, error) {
	return s.save(ModelsFolder, ModelPrefix, "glb", data)
}

func (s *LocalStore) save(folder, prefix, extension string, data []byte) (string, error) {
	dir := filepath.Join(s.outputsDir, folder)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}

	path := filepath.Join(dir, blobFilename(prefix, s.now(), extension))
	if err := os.WriteFile(path, data, os.FileMode(0644)); err != nil {
		return "", err
	}

	s.logger.Debug("saved blob", zap.String("path", path), zap.Int("size", len(data)))
	return path, nil
}

func (s *LocalStore) Load(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (s *LocalStore) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (s *LocalStore) Remove(path string) error {
	return os.Remove(path)
}

func (s *LocalStore) PruneParentDir(path string) error {
	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return nil
	}

	if err := os.Remove(dir); err != nil {
		return err
	}

	s.logger.Info("removed empty directory", zap.String("dir", dir))
	return nil
}
