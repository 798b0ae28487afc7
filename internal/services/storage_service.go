// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/launchkit/launchkit-backend/internal/config"
)

// StorageService stores generated code bundles in S3 so the dashboard can
// hand out download links after the request that produced them ends.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

type StoredBundle struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		// No S3 in local development; StoreBundle reports unavailable.
		return &StorageService{config: config}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

func (s *StorageService) Available() bool {
	return s.s3Client != nil
}

// StoreBundle uploads a zip bundle and returns a presigned download URL valid
// for 24 hours.
func (s *StorageService) StoreBundle(productID uuid.UUID, bundle []byte) (*StoredBundle, error) {
	if s.s3Client == nil {
		return nil, fmt.Errorf("bundle storage is not configured")
	}

	key := s.bundleKey(productID)

	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(bundle),
		ContentType:   aws.String("application/zip"),
		ContentLength: aws.Int64(int64(len(bundle))),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload bundle to S3: %w", err)
	}

	url, err := s.presignedURL(key, 24*time.Hour)
	if err != nil {
		return nil, err
	}

	return &StoredBundle{
		Key:  key,
		URL:  url,
		Size: int64(len(bundle)),
	}, nil
}

func (s *StorageService) presignedURL(key string, expiration time.Duration) (string, error) {
	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url, nil
}

func (s *StorageService) bundleKey(productID uuid.UUID) string {
	timestamp := time.Now().UTC().Format("20060102T150405")
	return fmt.Sprintf("bundles/%s/%s.zip", productID, timestamp)
}
