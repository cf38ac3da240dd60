package services

import (
	"context"
	"os"

	"pricewatch/config"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BlobStorage is the archive store the pipeline writes through. The S3
// implementation below is the production one; tests substitute fakes.
type BlobStorage interface {
	UploadFile(ctx context.Context, bucket, key, localPath, contentType string) error
}

// StorageService uploads archives to an S3-compatible object store.
// Uploads to an existing key overwrite it, which makes re-uploads of
// the same content-addressed path idempotent.
type StorageService struct {
	client *s3.Client
	log    logger.Logger
}

func NewStorageService(ctx context.Context, cfg config.Config) (*StorageService, error) {
	log := logger.New("storageService")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.StorageRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, log.Err("failed to load storage credentials", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.StorageEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.StorageEndpoint)
			o.UsePathStyle = true
		}
	})

	return &StorageService{client: client, log: log}, nil
}

func (s *StorageService) UploadFile(
	ctx context.Context,
	bucket, key, localPath, contentType string,
) error {
	log := s.log.Function("UploadFile")

	file, err := os.Open(localPath)
	if err != nil {
		return log.Err("failed to open local file for upload", err, "path", localPath)
	}
	defer file.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return log.Err("failed to upload archive", err, "bucket", bucket, "key", key)
	}

	log.Debug("Archive uploaded", "bucket", bucket, "key", key)
	return nil
}
