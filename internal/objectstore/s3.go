package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/dmitrijs2005/skydrive/internal/common"
)

// DeleteObjects accepts at most this many keys per call.
const maxDeleteBatch = 1000

// cacheControl mirrors the one-hour signed URL lifetime.
const cacheControl = "max-age=3600"

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Options configures an S3Store.
type Options struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
	// PublicBaseURL overrides the public URL prefix. When empty it is
	// BaseEndpoint followed by the bucket name.
	PublicBaseURL string
}

// S3Store implements Store on top of aws-sdk-go-v2.
type S3Store struct {
	client     s3API
	presigner  presignAPI
	bucket     string
	publicBase string
}

// NewS3Store builds an S3 client from static credentials and a custom base
// endpoint (MinIO or any S3-compatible service).
func NewS3Store(ctx context.Context, opts Options) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.BaseEndpoint)
		o.UsePathStyle = true
	})

	publicBase := opts.PublicBaseURL
	if publicBase == "" {
		publicBase = strings.TrimRight(opts.BaseEndpoint, "/") + "/" + opts.Bucket
	}

	return newS3Store(client, s3.NewPresignClient(client), opts.Bucket, publicBase), nil
}

func newS3Store(client s3API, presigner presignAPI, bucket, publicBase string) *S3Store {
	return &S3Store{
		client:     client,
		presigner:  presigner,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

// Put uploads body with If-None-Match: * so an existing key is never replaced.
func (s *S3Store) Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = common.DefaultContentType
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(path),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String(cacheControl),
		IfNoneMatch:   aws.String("*"),
	})
	if err == nil {
		return nil
	}
	if isPreconditionFailed(err) {
		return fmt.Errorf("put %s: %w: %w", path, common.ErrorStoreWriteFailed, common.ErrAlreadyExists)
	}
	return fmt.Errorf("put %s: %w: %w", path, common.ErrorStoreWriteFailed, err)
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
		return true
	}
	var respErr *smithyhttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusPreconditionFailed
}

// Remove deletes paths in batches of up to 1000 keys.
func (s *S3Store) Remove(ctx context.Context, paths []string) error {
	var errs []error

	for start := 0; start < len(paths); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(paths))

		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, p := range paths[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(p)})
		}

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("delete batch of %d: %w", len(objects), err))
			continue
		}
		for _, e := range out.Errors {
			errs = append(errs, fmt.Errorf("delete %s: %s %s",
				aws.ToString(e.Key), aws.ToString(e.Code), aws.ToString(e.Message)))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", common.ErrorStoreWriteFailed, errors.Join(errs...))
	}
	return nil
}

// SignedURL presigns a GET for path valid for ttl.
func (s *S3Store) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", path, err)
	}
	return req.URL, nil
}

// PublicURL joins the public base and path.
func (s *S3Store) PublicURL(path string) string {
	return s.publicBase + "/" + strings.TrimLeft(path, "/")
}
