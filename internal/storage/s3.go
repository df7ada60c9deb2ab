package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Options conveys upload destination metadata.
type S3Options struct {
	Bucket    string
	KeyPrefix string
	// PublicBaseURL, when set, turns references into plain URLs
	// (PublicBaseURL/key) instead of s3://bucket/key locations.
	PublicBaseURL string
}

// S3Service uploads book images to Amazon S3 (or compatible APIs).
type S3Service struct {
	client   *s3.Client
	uploader *manager.Uploader
	opts     S3Options
}

func NewS3Service(client *s3.Client, opts S3Options) (*S3Service, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	opts.KeyPrefix = strings.Trim(opts.KeyPrefix, "/")
	opts.PublicBaseURL = strings.TrimSuffix(opts.PublicBaseURL, "/")
	return &S3Service{
		client:   client,
		uploader: manager.NewUploader(client),
		opts:     opts,
	}, nil
}

func (s *S3Service) Put(ctx context.Context, obj Object) (string, error) {
	key := s.objectKey(obj.Key)
	if key == "" {
		return "", fmt.Errorf("image key is required")
	}

	if _, err := s.uploader.Upload(ctx, s.putInput(key, obj)); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.reference(key), nil
}

func (s *S3Service) putInput(key string, obj Object) *s3.PutObjectInput {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
		Body:   obj.Body,
		ACL:    types.ObjectCannedACLPrivate,
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}
	if obj.Size > 0 {
		input.ContentLength = aws.Int64(obj.Size)
	}
	if s.opts.PublicBaseURL != "" {
		input.ACL = types.ObjectCannedACLPublicRead
	}
	return input
}

func (s *S3Service) Delete(ctx context.Context, ref string) error {
	key, err := s.keyFromReference(ref)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3Service) objectKey(name string) string {
	name = strings.Trim(name, "/")
	if name == "" {
		return ""
	}
	if s.opts.KeyPrefix == "" {
		return name
	}
	return s.opts.KeyPrefix + "/" + name
}

func (s *S3Service) reference(key string) string {
	if s.opts.PublicBaseURL != "" {
		return s.opts.PublicBaseURL + "/" + key
	}
	return fmt.Sprintf("s3://%s/%s", s.opts.Bucket, key)
}

func (s *S3Service) keyFromReference(ref string) (string, error) {
	if s.opts.PublicBaseURL != "" && strings.HasPrefix(ref, s.opts.PublicBaseURL+"/") {
		return strings.TrimPrefix(ref, s.opts.PublicBaseURL+"/"), nil
	}
	if !strings.HasPrefix(ref, "s3://") {
		return "", ErrForeignReference
	}
	rest := strings.TrimPrefix(ref, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("invalid s3 location %q", ref)
	}
	if parts[0] != s.opts.Bucket {
		return "", fmt.Errorf("s3 bucket mismatch: %w", ErrForeignReference)
	}
	return parts[1], nil
}

var _ Service = (*S3Service)(nil)
