package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/config"
	appErrors "github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/errors"
)

// S3Store implements ObjectStore against Amazon S3.
type S3Store struct {
	client *s3.Client
	sts    *sts.Client
	bucket string
	prefix string
}

// NewS3Store loads AWS configuration and returns an S3-backed store. Retry
// attempts for transient failures are bounded by cfg.RetryAttempts; any
// policy beyond that belongs to the caller.
func NewS3Store(ctx context.Context, cfg config.StorageConfig) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.RetryAttempts > 0 {
		loadOpts = append(loadOpts, awsconfig.WithRetryMaxAttempts(cfg.RetryAttempts))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &S3Store{
		client: s3.NewFromConfig(awsCfg),
		sts:    sts.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		prefix: strings.Trim(strings.TrimSpace(cfg.Prefix), "/"),
	}, nil
}

// Put uploads the reader contents under key, sniffing the MIME type from the
// leading bytes. The object exists only after S3 acknowledges the write.
func (s *S3Store) Put(ctx context.Context, key string, r io.Reader) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}

	var sniff [512]byte
	n, readErr := io.ReadFull(r, sniff[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return ObjectInfo{}, fmt.Errorf("read upload stream: %w", readErr)
	}
	mimeType := http.DetectContentType(sniff[:n])

	body := io.MultiReader(bytes.NewReader(sniff[:n]), r)
	counter := &countingReader{r: body}

	input := &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(s.objectKey(key)),
		Body:                 counter,
		ContentType:          aws.String(mimeType),
		ServerSideEncryption: s3types.ServerSideEncryptionAes256,
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return ObjectInfo{}, s.unavailable("put", key, err)
	}

	return ObjectInfo{Key: key, Size: counter.n, MimeType: mimeType}, nil
}

// Get opens the stored object for reading.
func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "stored document not found")
		}
		return nil, s.unavailable("get", key, err)
	}
	return out.Body, nil
}

// Delete removes the object. Deleting a missing key is not an error.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	}); err != nil {
		return s.unavailable("delete", key, err)
	}
	return nil
}

// Verify performs one round-trip against the bucket and reports the caller
// identity. Used by the storage health diagnostic.
func (s *S3Store) Verify(ctx context.Context) (Identity, error) {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return Identity{}, s.unavailable("head_bucket", s.bucket, err)
	}

	out, err := s.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Identity{}, s.unavailable("caller_identity", s.bucket, err)
	}

	identity := Identity{}
	if out.Account != nil {
		identity.Account = *out.Account
	}
	if out.Arn != nil {
		identity.ARN = *out.Arn
	}
	return identity, nil
}

func (s *S3Store) objectKey(key string) string {
	cleanKey := strings.TrimLeft(key, "/")
	if s.prefix == "" {
		return cleanKey
	}
	return s.prefix + "/" + cleanKey
}

func (s *S3Store) unavailable(op, key string, err error) error {
	return appErrors.Wrap(err,
		appErrors.ErrStorageUnavailable.Code,
		appErrors.ErrStorageUnavailable.Status,
		fmt.Sprintf("s3 %s bucket=%s key=%s failed", op, s.bucket, key),
	)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

var _ ObjectStore = (*S3Store)(nil)
