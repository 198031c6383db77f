package objectstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/skydrive/internal/common"
)

type fakeS3 struct {
	putIn     []*s3.PutObjectInput
	putBody   []string
	putErr    error
	deleteIn  []*s3.DeleteObjectsInput
	deleteOut *s3.DeleteObjectsOutput
	deleteErr error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putIn = append(f.putIn, in)
	b, _ := io.ReadAll(in.Body)
	f.putBody = append(f.putBody, string(b))
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.deleteIn = append(f.deleteIn, in)
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	if f.deleteOut != nil {
		return f.deleteOut, nil
	}
	return &s3.DeleteObjectsOutput{}, nil
}

type fakePresigner struct {
	gotKey string
	gotTTL time.Duration
	err    error
}

func (p *fakePresigner) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if p.err != nil {
		return nil, p.err
	}
	var o s3.PresignOptions
	for _, fn := range optFns {
		fn(&o)
	}
	p.gotKey = aws.ToString(in.Key)
	p.gotTTL = o.Expires
	return &v4.PresignedHTTPRequest{URL: "https://signed/" + p.gotKey}, nil
}

func TestPut_Success(t *testing.T) {
	api := &fakeS3{}
	s := newS3Store(api, &fakePresigner{}, "files", "http://pub/files/")

	err := s.Put(context.Background(), "u1/1_a.txt", strings.NewReader("hello"), 5, "")
	require.NoError(t, err)

	require.Len(t, api.putIn, 1)
	in := api.putIn[0]
	assert.Equal(t, "files", aws.ToString(in.Bucket))
	assert.Equal(t, "u1/1_a.txt", aws.ToString(in.Key))
	assert.Equal(t, int64(5), aws.ToInt64(in.ContentLength))
	assert.Equal(t, common.DefaultContentType, aws.ToString(in.ContentType))
	assert.Equal(t, "*", aws.ToString(in.IfNoneMatch), "uploads must never overwrite")
	assert.Equal(t, "hello", api.putBody[0])
}

func TestPut_AlreadyExists(t *testing.T) {
	api := &fakeS3{putErr: &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}}
	s := newS3Store(api, &fakePresigner{}, "files", "http://pub")

	err := s.Put(context.Background(), "k", strings.NewReader("x"), 1, "text/plain")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
	assert.ErrorIs(t, err, common.ErrorStoreWriteFailed)
}

func TestPut_OtherError(t *testing.T) {
	api := &fakeS3{putErr: errors.New("connection reset")}
	s := newS3Store(api, &fakePresigner{}, "files", "http://pub")

	err := s.Put(context.Background(), "k", strings.NewReader("x"), 1, "text/plain")
	assert.ErrorIs(t, err, common.ErrorStoreWriteFailed)
	assert.NotErrorIs(t, err, common.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestRemove_EmptyIsNoop(t *testing.T) {
	api := &fakeS3{}
	s := newS3Store(api, &fakePresigner{}, "files", "http://pub")

	require.NoError(t, s.Remove(context.Background(), nil))
	assert.Empty(t, api.deleteIn)
}

func TestRemove_Batches(t *testing.T) {
	api := &fakeS3{}
	s := newS3Store(api, &fakePresigner{}, "files", "http://pub")

	paths := make([]string, 1001)
	for i := range paths {
		paths[i] = "k"
	}
	require.NoError(t, s.Remove(context.Background(), paths))
	require.Len(t, api.deleteIn, 2)
	assert.Len(t, api.deleteIn[0].Delete.Objects, 1000)
	assert.Len(t, api.deleteIn[1].Delete.Objects, 1)
	assert.True(t, aws.ToBool(api.deleteIn[0].Delete.Quiet))
}

func TestRemove_PerObjectErrors(t *testing.T) {
	api := &fakeS3{deleteOut: &s3.DeleteObjectsOutput{Errors: []types.Error{
		{Key: aws.String("b"), Code: aws.String("AccessDenied"), Message: aws.String("denied")},
	}}}
	s := newS3Store(api, &fakePresigner{}, "files", "http://pub")

	err := s.Remove(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorStoreWriteFailed)
	assert.Contains(t, err.Error(), "delete b: AccessDenied denied")
}

func TestRemove_CallError(t *testing.T) {
	api := &fakeS3{deleteErr: errors.New("boom")}
	s := newS3Store(api, &fakePresigner{}, "files", "http://pub")

	err := s.Remove(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, common.ErrorStoreWriteFailed)
	assert.Contains(t, err.Error(), "boom")
}

func TestSignedURL(t *testing.T) {
	p := &fakePresigner{}
	s := newS3Store(&fakeS3{}, p, "files", "http://pub")

	url, err := s.SignedURL(context.Background(), "u1/x.png", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "https://signed/u1/x.png", url)
	assert.Equal(t, time.Hour, p.gotTTL)

	p.err = errors.New("no creds")
	_, err = s.SignedURL(context.Background(), "u1/x.png", time.Hour)
	require.Error(t, err)
}

func TestPublicURL(t *testing.T) {
	s := newS3Store(&fakeS3{}, &fakePresigner{}, "files", "http://pub/files/")
	assert.Equal(t, "http://pub/files/u1/x.png", s.PublicURL("u1/x.png"))
	assert.Equal(t, "http://pub/files/u1/x.png", s.PublicURL("/u1/x.png"))
}

func TestNewS3Store_AppliesOptions(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() { loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-west-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		return aws.Config{Region: lo.Region, Credentials: lo.Credentials}, nil
	}

	var captured s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&captured)
		}
		return s3.NewFromConfig(cfg, optFns...)
	}

	s, err := NewS3Store(context.Background(), Options{
		Region:       "eu-west-1",
		AccessKey:    "admin",
		SecretKey:    "secret",
		BaseEndpoint: "http://127.0.0.1:9000/",
		Bucket:       "files",
	})
	require.NoError(t, err)
	require.NotNil(t, captured.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000/", *captured.BaseEndpoint)
	assert.True(t, captured.UsePathStyle)
	assert.Equal(t, "http://127.0.0.1:9000/files/a", s.PublicURL("a"))
}

func TestNewS3Store_LoadError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("bad profile")
	}

	_, err := NewS3Store(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad profile")
}
