package snapshots

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/watchtowerx/wtx-backend/internal/events"
)

// Config for the MinIO-backed store. Endpoint, AccessKey, SecretKey and
// Bucket are required at startup.
type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string // optional CDN/proxy prefix for returned URLs
}

// MinioStore resolves inline snapshot data into durable object URLs.
// Implements events.SnapshotResolver.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL *url.URL
	useSSL  bool
}

func NewMinioStore(cfg Config) (*MinioStore, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("snapshots: object store credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("snapshots: bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshots: client init: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		exists, checkErr := cli.BucketExists(ctx, cfg.Bucket)
		if checkErr != nil || !exists {
			return nil, fmt.Errorf("snapshots: bucket %s: %w", cfg.Bucket, err)
		}
	}

	var base *url.URL
	if cfg.PublicBaseURL != "" {
		base, err = url.Parse(cfg.PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("snapshots: invalid public base URL: %w", err)
		}
	}

	return &MinioStore{client: cli, bucket: cfg.Bucket, baseURL: base, useSSL: cfg.UseSSL}, nil
}

// Resolve decodes a data URI, uploads the image and returns its public URL.
// A retry after failure is idempotent from the caller's view: each upload
// gets a fresh key, an orphaned object is an acceptable storage leak.
func (s *MinioStore) Resolve(ctx context.Context, dataURI string) (string, error) {
	mime, raw, err := events.ParseDataURI(dataURI)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("snapshots/%s/%s%s", time.Now().UTC().Format("2006/01/02"), uuid.New(), extensionFor(mime))

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(raw), int64(len(raw)),
		minio.PutObjectOptions{ContentType: mime})
	if err != nil {
		return "", fmt.Errorf("snapshots: put object: %w", err)
	}

	return s.objectURL(key), nil
}

func (s *MinioStore) objectURL(key string) string {
	if s.baseURL != nil {
		u := *s.baseURL
		u.Path = strings.TrimSuffix(u.Path, "/") + "/" + key
		return u.String()
	}
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.client.EndpointURL().Host, s.bucket, key)
}

func extensionFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
