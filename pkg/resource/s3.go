package resource

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectClient is the part of the S3 API used for inputs and outputs.
// *s3.Client satisfies it.
type ObjectClient interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options configures NewS3Client. Empty fields fall back to the SDK's
// default configuration chain (environment, shared config, instance role).
type S3Options struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint" validate:"omitempty,url"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
}

// NewS3Client builds an S3 client. A custom endpoint together with path-style
// addressing targets S3-compatible stores such as MinIO.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, opts.SessionToken),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	}), nil
}

func openS3(ctx context.Context, client ObjectClient, loc Location) (io.ReadCloser, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

// s3Upload spools writes to a temporary file and uploads it on Close, so
// the object only appears once it is complete.
type s3Upload struct {
	*bufio.Writer
	ctx    context.Context
	client ObjectClient
	loc    Location
	spool  *os.File
}

func createS3(ctx context.Context, client ObjectClient, loc Location) (io.WriteCloser, error) {
	spool, err := os.CreateTemp("", "lpa-upload-*")
	if err != nil {
		return nil, err
	}
	return &s3Upload{
		Writer: bufio.NewWriterSize(spool, 1<<20),
		ctx:    ctx,
		client: client,
		loc:    loc,
		spool:  spool,
	}, nil
}

func (u *s3Upload) Close() error {
	defer func() {
		u.spool.Close()
		os.Remove(u.spool.Name())
	}()

	if err := u.Flush(); err != nil {
		return err
	}
	size, err := u.spool.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := u.spool.Seek(0, io.SeekStart); err != nil {
		return err
	}

	_, err = u.client.PutObject(u.ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.loc.Bucket),
		Key:           aws.String(u.loc.Key),
		Body:          u.spool,
		ContentLength: aws.Int64(size),
	})
	return err
}
