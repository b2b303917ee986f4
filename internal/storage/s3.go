// Package storage hands out presigned URLs for chat attachments kept in an
// S3-compatible bucket (MinIO locally).
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/oggyb/swipe-server/internal/config"
)

const presignTTL = 15 * time.Minute

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Presigner issues upload and download URLs.
type Presigner interface {
	PresignUpload(ctx context.Context, userID uint64, fileName string) (key, url string, err error)
	PresignDownload(ctx context.Context, key string) (string, error)
}

// S3Presigner talks to S3 through short-lived presigned requests.
type S3Presigner struct {
	cfg *config.Config
	now func() time.Time
}

func NewS3Presigner(cfg *config.Config) *S3Presigner {
	return &S3Presigner{cfg: cfg, now: time.Now}
}

// KeyPrefix is the folder every upload of userID lands in.
func KeyPrefix(userID uint64) string { return fmt.Sprintf("chat/%d/", userID) }

// StorageKey builds "chat/<user>/<yyyy>/<mm>/<dd>/<uuid><ext>".
func StorageKey(userID uint64, fileName string, at time.Time) string {
	ext := strings.ToLower(path.Ext(path.Base(fileName)))
	return fmt.Sprintf("%s%d/%02d/%02d/%s%s", KeyPrefix(userID), at.Year(), at.Month(), at.Day(), uuid.New(), ext)
}

// OwnsKey reports whether key sits under userID's upload folder.
func OwnsKey(userID uint64, key string) bool {
	return strings.HasPrefix(key, KeyPrefix(userID)) && !strings.Contains(key, "..")
}

func (p *S3Presigner) client(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(p.cfg.S3.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			p.cfg.S3.RootUser,
			p.cfg.S3.RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(p.cfg.S3.BaseEndpoint)
		o.UsePathStyle = true // MinIO
	})

	return newS3PresignClient(client), nil
}

// PresignUpload returns a fresh storage key and a PUT URL for it.
func (p *S3Presigner) PresignUpload(ctx context.Context, userID uint64, fileName string) (string, string, error) {
	pc, err := p.client(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := p.cfg.S3.Bucket
	key := StorageKey(userID, fileName, p.now())

	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// PresignDownload returns a GET URL for an existing key.
func (p *S3Presigner) PresignDownload(ctx context.Context, key string) (string, error) {
	pc, err := p.client(ctx)
	if err != nil {
		return "", err
	}

	bucket := p.cfg.S3.Bucket
	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
