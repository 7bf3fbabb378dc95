package cloud

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"haruki-swf-extractor/config"
)

// S3Uploader puts objects into one bucket of an S3-compatible store.
type S3Uploader struct {
	client *s3.Client
	bucket string
}

func NewS3Uploader(storage config.RemoteStorageConfig) *S3Uploader {
	opts := s3.Options{
		Region:       storage.Region,
		UsePathStyle: storage.PathStyle,
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	if storage.AccessKeyID != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(storage.AccessKeyID, storage.SecretAccessKey, "")
	}
	if storage.Endpoint != "" {
		opts.BaseEndpoint = aws.String(storage.Endpoint)
	}
	return &S3Uploader{client: s3.New(opts), bucket: storage.Bucket}
}

func (u *S3Uploader) String() string {
	return "s3://" + u.bucket
}

func (u *S3Uploader) Upload(ctx context.Context, localPath, remotePath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(remotePath),
		Body:   f,
	}
	if ct := ContentType(localPath); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err := u.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", u.bucket, remotePath, err)
	}
	return nil
}

// ContentType guesses the MIME type of an exported file.
func ContentType(name string) string {
	switch ext := filepath.Ext(name); ext {
	case ".bin", ".msgpack":
		return "application/octet-stream"
	case ".webp":
		return "image/webp"
	case ".flac":
		return "audio/flac"
	default:
		return mime.TypeByExtension(ext)
	}
}
