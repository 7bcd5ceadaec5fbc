// Package s3publisher uploads finished archives to S3 or an S3-compatible
// store.
package s3publisher

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// ErrNoBucket is returned by New when no bucket is configured.
var ErrNoBucket = errors.New("s3 bucket not configured")

// Config contains the publisher settings. Credentials come from the
// standard AWS chain.
type Config struct {
	Bucket string
	// Prefix is prepended to object keys, e.g. "urbnews/".
	Prefix string
	// Region to use for requests. If empty, AWS defaults apply.
	Region string
	// Profile selects a named shared config profile.
	Profile string
	// Endpoint overrides the S3 endpoint for compatible providers.
	Endpoint string
	// UsePathStyle forces path-style addressing.
	UsePathStyle bool
	// PresignTTL, when positive, makes Publish return a presigned GET URL
	// valid for that long instead of an s3:// URL.
	PresignTTL time.Duration
}

// objectPutter is the subset of *s3.Client used for uploads.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// objectPresigner is the subset of *s3.PresignClient used for links.
type objectPresigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Publisher implements ports.Publisher.
type Publisher struct {
	cfg       Config
	client    objectPutter
	presigner objectPresigner
}

// New creates a publisher using the default AWS configuration chain.
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Publisher{cfg: cfg, client: client, presigner: s3.NewPresignClient(client)}, nil
}

// Key returns the object key for a local file.
func (p *Publisher) Key(localPath string) string {
	return path.Join(strings.TrimSuffix(p.cfg.Prefix, "/"), filepath.Base(localPath))
}

// Publish uploads the file at localPath and returns its location.
func (p *Publisher) Publish(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	key := p.Key(localPath)
	in := &s3.PutObjectInput{
		Bucket: aws.String(p.cfg.Bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := contentType(localPath); ct != "" {
		in.ContentType = aws.String(ct)
	}
	if _, err := p.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("upload %s to s3://%s/%s: %w", localPath, p.cfg.Bucket, key, err)
	}

	if p.cfg.PresignTTL <= 0 || p.presigner == nil {
		return fmt.Sprintf("s3://%s/%s", p.cfg.Bucket, key), nil
	}
	req, err := p.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.cfg.PresignTTL))
	if err != nil {
		return "", fmt.Errorf("presign s3://%s/%s: %w", p.cfg.Bucket, key, err)
	}
	return req.URL, nil
}

var contentTypes = map[string]string{
	".zip": "application/zip",
	".mp4": "video/mp4",
	".jpg": "image/jpeg",
}

func contentType(localPath string) string {
	ext := strings.ToLower(filepath.Ext(localPath))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return mime.TypeByExtension(ext)
}

var _ ports.Publisher = (*Publisher)(nil)
