package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"Backend-QA-Portal/src/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3 DeleteObjects รับได้สูงสุด 1000 key ต่อครั้ง
const maxDeleteBatch = 1000

type S3Storage struct {
	client      *s3.S3
	uploader    *s3manager.Uploader
	bucket      string
	downloadTTL time.Duration
	uploadTTL   time.Duration
}

func NewS3Storage(cfg *config.Config) (*S3Storage, error) {
	s3Config := &aws.Config{
		Region:           aws.String(cfg.S3.Region),
		DisableSSL:       aws.Bool(!cfg.S3.UseSSL),
		S3ForcePathStyle: aws.Bool(cfg.S3.Endpoint != ""),
	}
	if cfg.S3.AccessKey != "" {
		s3Config.Credentials = credentials.NewStaticCredentials(cfg.S3.AccessKey, cfg.S3.SecretKey, "")
	}
	if cfg.S3.Endpoint != "" {
		s3Config.Endpoint = aws.String(cfg.S3.Endpoint)
	}

	sess, err := session.NewSession(s3Config)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	client := s3.New(sess)
	return &S3Storage{
		client:      client,
		uploader:    s3manager.NewUploaderWithClient(client),
		bucket:      cfg.S3.Bucket,
		downloadTTL: cfg.DownloadURLTTL,
		uploadTTL:   cfg.UploadURLTTL,
	}, nil
}

func (s *S3Storage) PutSignedURL(ctx context.Context, key, contentType string) (string, error) {
	req, _ := s.client.PutObjectRequest(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	req.SetContext(ctx)
	url, err := req.Presign(s.uploadTTL)
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}
	return url, nil
}

func (s *S3Storage) GetSignedURL(ctx context.Context, key string) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	req.SetContext(ctx)
	url, err := req.Presign(s.downloadTTL)
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return url, nil
}

func (s *S3Storage) DeleteObjects(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += maxDeleteBatch {
		end := start + maxDeleteBatch
		if end > len(keys) {
			end = len(keys)
		}
		ids := make([]*s3.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, &s3.ObjectIdentifier{Key: aws.String(k)})
		}
		out, err := s.client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("delete objects: %w", err)
		}
		if len(out.Errors) > 0 {
			failed := make([]string, 0, len(out.Errors))
			for _, e := range out.Errors {
				failed = append(failed, aws.StringValue(e.Key)+" ("+aws.StringValue(e.Code)+")")
			}
			return fmt.Errorf("delete objects: %d failed: %s", len(failed), strings.Join(failed, ", "))
		}
	}
	return nil
}

func (s *S3Storage) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return result.Body, nil
}

// PutObject อัปโหลดแบบ multipart ทีละ part จึงไม่ต้องถือทั้งไฟล์ไว้ในหน่วยความจำ
func (s *S3Storage) PutObject(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}
