package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"matchbot-server/internal/config"

	"github.com/aws/aws-sdk-go/aws"
	awscreds "github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
)

// MediaStorage stores photo and video blobs. References are opaque
// "<bucket>/<key>" strings.
type MediaStorage interface {
	Upload(ctx context.Context, key string, file io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
	PresignedURL(ctx context.Context, ref string, expiration time.Duration) (string, error)
}

type StorageService struct {
	bucket      string
	s3Client    *s3.S3
	minioClient *minio.Client
	useMinIO    bool
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	service := &StorageService{bucket: cfg.S3Bucket}

	// Check if MinIO is configured
	if cfg.MinIOEndpoint != "" {
		service.useMinIO = true
		minioClient, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
			Creds:  miniocreds.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: cfg.MinIOUseSSL,
			Region: cfg.AWSRegion,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create MinIO client: %w", err)
		}
		service.minioClient = minioClient
	} else {
		// Use AWS S3
		sess, err := session.NewSession(&aws.Config{
			Region: aws.String(cfg.AWSRegion),
			Credentials: awscreds.NewStaticCredentials(
				cfg.AWSAccessKeyID,
				cfg.AWSSecretAccessKey,
				"",
			),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}
		service.s3Client = s3.New(sess)
	}

	return service, nil
}

// ObjectKey builds a unique key for a user's media blob, keeping the file extension.
func ObjectKey(kind string, userID int64, filename string) string {
	return fmt.Sprintf("%s/%d/%s%s", kind, userID, uuid.NewString(), strings.ToLower(path.Ext(filename)))
}

func (s *StorageService) Upload(ctx context.Context, key string, file io.Reader, size int64, contentType string) (string, error) {
	if s.useMinIO {
		_, err := s.minioClient.PutObject(ctx, s.bucket, key, file, size, minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil {
			return "", fmt.Errorf("failed to upload to MinIO: %w", err)
		}
		return s.bucket + "/" + key, nil
	}

	// Read file content
	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	_, err = s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(fileBytes),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.bucket + "/" + key, nil
}

func (s *StorageService) Delete(ctx context.Context, ref string) error {
	bucket, key, err := ParseMediaRef(ref)
	if err != nil {
		return err
	}

	if s.useMinIO {
		if err := s.minioClient.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to delete from MinIO: %w", err)
		}
		return nil
	}

	_, err = s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

// PresignedURL returns a temporary download URL for ref.
func (s *StorageService) PresignedURL(ctx context.Context, ref string, expiration time.Duration) (string, error) {
	bucket, key, err := ParseMediaRef(ref)
	if err != nil {
		return "", err
	}

	if s.useMinIO {
		u, err := s.minioClient.PresignedGetObject(ctx, bucket, key, expiration, nil)
		if err != nil {
			return "", fmt.Errorf("failed to generate presigned URL: %w", err)
		}
		return u.String(), nil
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	req.SetContext(ctx)
	u, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u, nil
}

// EnsureBucket creates the media bucket when it does not exist yet.
func (s *StorageService) EnsureBucket(ctx context.Context) error {
	if s.useMinIO {
		exists, err := s.minioClient.BucketExists(ctx, s.bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket existence: %w", err)
		}
		if !exists {
			if err := s.minioClient.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("failed to create MinIO bucket: %w", err)
			}
		}
		return nil
	}

	_, err := s.s3Client.CreateBucketWithContext(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil && !strings.Contains(err.Error(), s3.ErrCodeBucketAlreadyOwnedByYou) {
		return fmt.Errorf("failed to create S3 bucket: %w", err)
	}
	return nil
}

// ParseMediaRef splits a "<bucket>/<key>" reference.
func ParseMediaRef(ref string) (string, string, error) {
	bucket, key, ok := strings.Cut(strings.TrimPrefix(ref, "/"), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid media reference %q", ref)
	}
	return bucket, key, nil
}
