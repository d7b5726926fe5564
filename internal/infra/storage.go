package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/nozzip/seccional/internal/ledger"
)

// ObjectClient is the subset of the object storage API the archive mirror uses.
type ObjectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
}

// StorageConfig holds the S3-compatible endpoint settings.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Timeout   time.Duration
}

type minioClient struct {
	*minio.Client
}

func (c minioClient) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return c.Client.GetObject(ctx, bucketName, objectName, opts)
}

// NewObjectClient builds a minio client. An empty endpoint disables the mirror.
func NewObjectClient(cfg StorageConfig) (ObjectClient, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}
	endpoint := strings.TrimPrefix(cfg.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
	}

	c, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Transport: transport,
	})
	if err != nil {
		return nil, err
	}
	return minioClient{c}, nil
}

// ArchiveStore writes one JSON object per archived day to a bucket.
// Calls go through the circuit breaker so a downed endpoint fails fast.
type ArchiveStore struct {
	client ObjectClient
	bucket string
	cb     *CircuitBreaker
}

func NewArchiveStore(client ObjectClient, bucket string, cb *CircuitBreaker) *ArchiveStore {
	if cb == nil {
		cb = NewCircuitBreaker(DefaultCBConfig())
	}
	return &ArchiveStore{client: client, bucket: bucket, cb: cb}
}

// ObjectName is the key an archived day is stored under.
func ObjectName(date string) string {
	return "archives/" + date + ".json"
}

// EnsureBucket creates the bucket when missing.
func (s *ArchiveStore) EnsureBucket(ctx context.Context) error {
	return s.cb.Execute(ctx, func(ctx context.Context) error {
		ok, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	})
}

// Put uploads the archived day as JSON.
func (s *ArchiveStore) Put(ctx context.Context, day ledger.ArchivedDay) error {
	data, err := json.Marshal(day)
	if err != nil {
		return fmt.Errorf("encode archived day: %w", err)
	}
	return s.cb.Execute(ctx, func(ctx context.Context) error {
		_, err := s.client.PutObject(ctx, s.bucket, ObjectName(day.Date), bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: "application/json"})
		return err
	})
}

// Get downloads a previously mirrored day.
func (s *ArchiveStore) Get(ctx context.Context, date string) (ledger.ArchivedDay, error) {
	var day ledger.ArchivedDay
	err := s.cb.Execute(ctx, func(ctx context.Context) error {
		obj, err := s.client.GetObject(ctx, s.bucket, ObjectName(date), minio.GetObjectOptions{})
		if err != nil {
			return err
		}
		defer obj.Close()
		return json.NewDecoder(obj).Decode(&day)
	})
	return day, err
}

// State exposes the breaker state for the health endpoint.
func (s *ArchiveStore) State() CBState { return s.cb.State() }
