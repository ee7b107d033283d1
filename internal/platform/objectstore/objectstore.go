// Package objectstore turns e-book asset locations into downloadable links.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrUnsupportedLocation is returned for asset URLs that are neither http(s) nor s3.
var ErrUnsupportedLocation = errors.New("unsupported asset location")

type Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	TTL       time.Duration
}

type presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Signer hands out time-limited GET links for s3:// assets and passes http(s) links through.
type Signer struct {
	presign presigner
	ttl     time.Duration
}

func New(ctx context.Context, cfg Config) (*Signer, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Signer{presign: s3.NewPresignClient(client), ttl: ttl}, nil
}

// DownloadURL resolves fileURL to a link the buyer's browser can follow.
func (s *Signer) DownloadURL(ctx context.Context, fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("parse asset url: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		return fileURL, nil
	case "s3":
		bucket := u.Host
		key := strings.TrimPrefix(u.Path, "/")
		if bucket == "" || key == "" {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedLocation, fileURL)
		}
		req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(s.ttl))
		if err != nil {
			return "", fmt.Errorf("presign %s: %w", fileURL, err)
		}
		return req.URL, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLocation, fileURL)
	}
}
