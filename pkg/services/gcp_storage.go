package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"sweetbox/pkg/config"
	"sweetbox/pkg/logger"
	"sweetbox/pkg/models"
)

var (
	storageClient *storage.Client
	bucketName    string
)

// InitGCPStorage initializes the GCP Storage client
func InitGCPStorage(cfg config.GCPConfig) error {
	if cfg.Bucket == "" {
		return fmt.Errorf("GCP bucket not set")
	}

	var opts []option.ClientOption
	if cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}
	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return fmt.Errorf("failed to create GCP storage client: %w", err)
	}

	bucketName = cfg.Bucket
	storageClient = client
	return nil
}

// CloseGCPStorage releases the storage client.
func CloseGCPStorage() {
	if storageClient != nil {
		_ = storageClient.Close()
		storageClient = nil
	}
}

// BackupObjectName is the object path of a snapshot taken at t.
func BackupObjectName(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("snapshots/%s/state-%s.json", t.Format("2006/01/02"), t.Format("150405.000"))
}

// BackupSnapshot uploads a JSON copy of the state tree and returns its public URL.
func BackupSnapshot(ctx context.Context, snap models.Snapshot, at time.Time) (string, error) {
	if storageClient == nil {
		return "", fmt.Errorf("GCP storage client not initialized")
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	name := BackupObjectName(at)
	writer := storageClient.Bucket(bucketName).Object(name).NewWriter(ctx)
	writer.ContentType = "application/json"

	if _, err := writer.Write(payload); err != nil {
		writer.Close()
		return "", fmt.Errorf("GCS upload failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("GCS upload finalization failed: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucketName, name), nil
}

// BackupSnapshotAsync uploads in the background when storage is configured.
func BackupSnapshotAsync(snap models.Snapshot, at time.Time) {
	if storageClient == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		url, err := BackupSnapshot(ctx, snap, at)
		if err != nil {
			logger.Log.Warn("snapshot backup failed", zap.Error(err))
			return
		}
		logger.Log.Info("snapshot backed up", zap.String("url", url))
	}()
}
