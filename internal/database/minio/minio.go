package minio

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"insurance-core/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// EvidenceBucket stores claim evidence payloads. The claim row keeps only the
// object key as its evidence handle.
const EvidenceBucket = "claim-evidence"

// MinioClient wraps the MinIO client as the claim evidence store.
type MinioClient struct {
	client *minio.Client
	config config.MinioConfig
}

// EvidenceStore is implemented by the MinIO client and by test doubles.
type EvidenceStore interface {
	StoreEvidence(ctx context.Context, claimID uuid.UUID, payload []byte) (string, error)
	FetchEvidence(ctx context.Context, key string) ([]byte, error)
}

// NewMinioClient initializes a new MinIO client with the provided configuration
func NewMinioClient(cfg config.MinioConfig) (*MinioClient, error) {
	endpoint := strings.TrimPrefix(cfg.MinioURL, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	isSecure, err := strconv.ParseBool(cfg.MinioSecure)
	if err != nil {
		slog.Warn("Invalid value for MinIO secure flag, defaulting to false", "error", err)
		isSecure = false
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: isSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err = minioClient.ListBuckets(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO server: %w", err)
	}

	mc := &MinioClient{
		client: minioClient,
		config: cfg,
	}

	if err := mc.ensureBucket(ctx, EvidenceBucket); err != nil {
		return nil, fmt.Errorf("failed to ensure evidence bucket: %w", err)
	}

	slog.Info("MinIO client initialized", "endpoint", cfg.MinioURL)
	return mc, nil
}

func (mc *MinioClient) ensureBucket(ctx context.Context, bucketName string) error {
	exists, err := mc.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucketName, err)
	}
	if exists {
		return nil
	}

	err = mc.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{
		Region: mc.config.MinioLocation,
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
	}

	slog.Info("Bucket created", "bucket", bucketName)
	return nil
}

// StoreEvidence uploads an evidence payload and returns its object key.
func (mc *MinioClient) StoreEvidence(ctx context.Context, claimID uuid.UUID, payload []byte) (string, error) {
	key := fmt.Sprintf("claims/%s/%s", claimID, uuid.New())

	_, err := mc.client.PutObject(ctx, EvidenceBucket, key,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return "", fmt.Errorf("failed to store evidence for claim %s: %w", claimID, err)
	}

	return key, nil
}

// FetchEvidence downloads an evidence payload by object key.
func (mc *MinioClient) FetchEvidence(ctx context.Context, key string) ([]byte, error) {
	obj, err := mc.client.GetObject(ctx, EvidenceBucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch evidence %s: %w", key, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, fmt.Errorf("failed to read evidence %s: %w", key, err)
	}

	return buf.Bytes(), nil
}
