package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the minimal S3 interface required by S3Store.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads objects to one bucket and hands back their public address.
type S3Store struct {
	api           s3API
	bucket        string
	publicBaseURL string
}

// NewS3 creates an S3Store. When publicBaseURL is empty the virtual-hosted
// bucket address is used.
func NewS3(api s3API, bucket, publicBaseURL string) (*S3Store, error) {
	if api == nil {
		return nil, errors.New("objectstore: s3 api must not be nil")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("objectstore: bucket must not be empty")
	}
	publicBaseURL = strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return &S3Store{api: api, bucket: bucket, publicBaseURL: publicBaseURL}, nil
}

func (s *S3Store) Upload(ctx context.Context, path, contentType string, data []byte) (string, error) {
	key, err := cleanKey(path)
	if err != nil {
		return "", err
	}
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.api.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("objectstore: put %s/%s: %w", s.bucket, key, err)
	}
	return s.publicBaseURL + "/" + key, nil
}
