package imagehost

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"estate-market/internal/core/config"
	"estate-market/pkg/utils"
)

const backendS3 = "s3"

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 stores photos in a bucket of any S3-compatible service (AWS, MinIO).
type S3 struct {
	client     objectPutter
	bucket     string
	publicBase string
	prefix     string
	newKey     func() string
}

var loadAWSConfig = awsconfig.LoadDefaultConfig

func NewS3(ctx context.Context, c config.S3) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")))
	}
	cfg, err := loadAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
		o.UsePathStyle = c.UsePathStyle
	})
	return newS3(client, c), nil
}

func newS3(client objectPutter, c config.S3) *S3 {
	base := strings.TrimRight(c.PublicBaseURL, "/")
	if base == "" {
		switch {
		case c.Endpoint != "":
			base = strings.TrimRight(c.Endpoint, "/") + "/" + c.Bucket
		default:
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
		}
	}
	return &S3{client: client, bucket: c.Bucket, publicBase: base, prefix: "listings", newKey: utils.NewID}
}

func (s *S3) Upload(ctx context.Context, f File, progress ProgressFunc) (res Result, err error) {
	defer func() { observe(backendS3, res.Bytes, err) }()

	key := path.Join(s.prefix, s.newKey()+path.Ext(f.Name))
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	size := int64(len(f.Data))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          newProgressReader(bytes.NewReader(f.Data), f.Name, size, progress),
		ContentType:   aws.String(ct),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return Result{}, &UploadError{Backend: backendS3, Name: f.Name, Err: err}
	}
	return Result{URL: s.publicBase + "/" + key, Key: key, Bytes: size}, nil
}
