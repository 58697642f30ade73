// Package mirror uploads a copy of every audit record to S3-compatible
// object storage, so the erasure trail survives loss of the primary store.
package mirror

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"datacustody/internal/wipe"
)

// ObjectPutter is the slice of the S3 client the sink needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Sink mirrors audit records as JSON objects. The object key is derived from
// the record's content (minus its storage-assigned ID), so re-uploading an
// identical record overwrites the same object instead of duplicating it.
type Sink struct {
	client ObjectPutter
	bucket string
}

// Config holds the object-store connection settings.
type Config struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// New builds a mirror sink over a real S3-compatible endpoint.
func New(cfg Config) (*Sink, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("access credentials are required")
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := s3.Options{
		Region: region,
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return &Sink{client: s3.New(opts), bucket: cfg.Bucket}, nil
}

// NewWithClient builds a sink over an existing client. Used by tests.
func NewWithClient(client ObjectPutter, bucket string) *Sink {
	return &Sink{client: client, bucket: bucket}
}

func (s *Sink) Name() string { return "mirror" }

func (s *Sink) RecordSaved(ctx context.Context, ev wipe.SavedEvent) error {
	if ev.Replaying {
		return nil
	}

	payload, err := ev.Record.CanonicalJSON()
	if err != nil {
		return err
	}

	key, err := ObjectKey(ev.Record)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("mirror audit record %s: %w", ev.Record.ID, err)
	}
	return nil
}

// ObjectKey derives the destination key {userID}_{sha1(canonicalJSON)}.json.
// Identical content always maps to the same key.
func ObjectKey(rec *wipe.AuditRecord) (string, error) {
	payload, err := rec.CanonicalJSON()
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(payload)
	return fmt.Sprintf("%d_%x.json", rec.UserID, sum), nil
}
