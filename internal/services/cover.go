package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const coverUploadExpiry = 5 * time.Minute

// CoverService issues pre-signed S3 URLs for book cover uploads
type CoverService struct {
	s3Client *s3.Client
	bucket   string
	region   string
}

// NewCoverService creates a new cover service
func NewCoverService(region, bucket, accessKey, secretKey, endpoint string) (*CoverService, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if accessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &CoverService{
		s3Client: s3Client,
		bucket:   bucket,
		region:   region,
	}, nil
}

// CoverUploadResponse carries the pre-signed upload URL and the public URL
// the book's cover field should be set to once the upload finishes
type CoverUploadResponse struct {
	UploadURL string `json:"upload_url"`
	CoverURL  string `json:"cover_url"`
	ExpiresIn int    `json:"expires_in"`
}

// PresignCoverUpload generates a pre-signed PUT URL for a new cover image
func (s *CoverService) PresignCoverUpload(ctx context.Context, contentType string) (*CoverUploadResponse, error) {
	key := fmt.Sprintf("covers/%s.jpg", uuid.New().String())

	presignClient := s3.NewPresignClient(s.s3Client)
	request, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = coverUploadExpiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	return &CoverUploadResponse{
		UploadURL: request.URL,
		CoverURL:  fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key),
		ExpiresIn: int(coverUploadExpiry.Seconds()),
	}, nil
}
