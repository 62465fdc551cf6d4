package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/dreamforge-ai/dreamforge/internal/config"
)

// S3Store keeps blobs in an S3-compatible bucket. Paths are object keys
// relative to the configured folder.
type S3Store struct {
	client *s3.Client
	cfg    *config.S3Config
	logger *zap.Logger
	now    func() time.Time
}

func NewS3Store(cfg *config.Config, logger *zap.Logger) (*S3Store, error) {
	if cfg.S3 == nil {
		return nil, fmt.Errorf("s3 config is not set")
	}

	credentialsProvider := credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, "")
	awsCfg, err := awsconfig.LoadDefaultConfig(
		context.TODO(),
		awsconfig.WithRegion(cfg.S3.Region),
		awsconfig.WithCredentialsProvider(credentialsProvider),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.EndpointUrl != "" {
			o.BaseEndpoint = &cfg.S3.EndpointUrl
		}
	})

	return &S3Store{
		client: client,
		cfg:    cfg.S3,
		logger: logger,
		now:    time.Now,
	}, nil
}

func (s *S3Store) SaveImage(data []byte) (string, error) {
	extension := strings.TrimPrefix(mimetype.Detect(data).Extension(), ".")
	if extension == "" {
		extension = "png"
	}

	return s.save(ImagesFolder, ImagePrefix, extension, data)
}

func (s *S3Store) SaveModel(data []byte) (string, error) {
	return s.save(ModelsFolder, ModelPrefix, "glb", data)
}

func (s *S3Store) save(folder, prefix, extension string, data []byte) (string, error) {
	key := s.key(fmt.Sprintf("%s/%s", folder, blobFilename(prefix, s.now(), extension)))
	mtype := mimetype.Detect(data).String()

	input := s3.PutObjectInput{
		Key:         &key,
		ContentType: &mtype,
		Bucket:      &s.cfg.Bucket,
		Body:        bytes.NewReader(data),
	}
	if _, err := s.client.PutObject(context.TODO(), &input); err != nil {
		return "", err
	}

	s.logger.Debug("saved blob", zap.String("key", key), zap.Int("size", len(data)))
	return key, nil
}

func (s *S3Store) Load(path string) ([]byte, error) {
	object, err := s.client.GetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: &s.cfg.Bucket,
		Key:    &path,
	})
	if err != nil {
		return nil, err
	}
	defer object.Body.Close()

	return io.ReadAll(object.Body)
}

func (s *S3Store) Exists(path string) bool {
	_, err := s.client.HeadObject(context.TODO(), &s3.HeadObjectInput{
		Bucket: &s.cfg.Bucket,
		Key:    &path,
	})
	return err == nil
}

func (s *S3Store) Remove(path string) error {
	_, err := s.client.DeleteObject(context.TODO(), &s3.DeleteObjectInput{
		Bucket: &s.cfg.Bucket,
		Key:    &path,
	})
	return err
}

// Buckets have no directories to prune.
func (s *S3Store) PruneParentDir(path string) error {
	return nil
}

func (s *S3Store) key(name string) string {
	folder := strings.TrimSuffix(s.cfg.Folder, "/")
	if folder == "" {
		return name
	}
	return fmt.Sprintf("%s/%s", folder, name)
}
