package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/swipe-server/internal/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.S3.Region = "us-east-1"
	cfg.S3.RootUser = "minioadmin"
	cfg.S3.RootPassword = "minioadmin"
	cfg.S3.BaseEndpoint = "http://127.0.0.1:9000"
	cfg.S3.Bucket = "chat-media"
	return cfg
}

// stubAWS replaces the SDK seams for the duration of the test.
func stubAWS(t *testing.T) {
	t.Helper()

	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := presignPutObject
	origGet := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		require.NotNil(t, opts.BaseEndpoint)
		assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
		assert.True(t, opts.UsePathStyle)
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
}

func TestPresignUpload(t *testing.T) {
	stubAWS(t)

	var gotBucket, gotKey string
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		gotBucket, gotKey = *in.Bucket, *in.Key
		return &v4.PresignedHTTPRequest{URL: "https://minio.local/" + *in.Key}, nil
	}

	p := NewS3Presigner(testConfig())
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	key, url, err := p.PresignUpload(context.Background(), 9, "Holiday.JPG")
	require.NoError(t, err)

	assert.Equal(t, "chat-media", gotBucket)
	assert.Equal(t, gotKey, key)
	assert.True(t, strings.HasPrefix(key, "chat/9/2024/05/01/"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)
	assert.Equal(t, "https://minio.local/"+key, url)
	assert.True(t, OwnsKey(9, key))
	assert.False(t, OwnsKey(1, key))
}

func TestOwnsKey(t *testing.T) {
	assert.True(t, OwnsKey(1, "chat/1/2024/05/01/a.png"))
	assert.False(t, OwnsKey(1, "chat/10/2024/05/01/a.png"))
	assert.False(t, OwnsKey(1, "chat/1/../2/a.png"))
	assert.False(t, OwnsKey(1, "avatars/1/a.png"))
}

func TestPresignUpload_Error(t *testing.T) {
	stubAWS(t)

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign boom")
	}

	_, _, err := NewS3Presigner(testConfig()).PresignUpload(context.Background(), 1, "a.png")
	assert.EqualError(t, err, "presign boom")
}

func TestPresignUpload_ConfigError(t *testing.T) {
	stubAWS(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}

	_, _, err := NewS3Presigner(testConfig()).PresignUpload(context.Background(), 1, "a.png")
	assert.EqualError(t, err, "no config")
}

func TestPresignDownload(t *testing.T) {
	stubAWS(t)

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "https://minio.local/get/" + *in.Key}, nil
	}

	url, err := NewS3Presigner(testConfig()).PresignDownload(context.Background(), "chat/1/x.png")
	require.NoError(t, err)
	assert.Equal(t, "https://minio.local/get/chat/1/x.png", url)
}
