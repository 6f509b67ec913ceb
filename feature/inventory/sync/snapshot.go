package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// snapshot archives one fetched payload to object storage for later
// inspection. Best effort: failures are logged and never affect the pass.
func (o *Orchestrator) snapshot(ctx context.Context, sourceID uint, step string, payload any) {
	if o.storage == nil || o.bucket == "" {
		return
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		o.logger.Warn("snapshot encode failed", zap.String("step", step), zap.Error(err))
		return
	}

	objectName := fmt.Sprintf("snapshots/%d/%s-%s.json", sourceID, step, time.Now().UTC().Format("20060102T150405Z"))

	_, err = o.storage.PutObject(ctx, o.bucket, objectName, bytes.NewReader(encoded), int64(len(encoded)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		o.logger.Warn("snapshot upload failed",
			zap.String("object", objectName), zap.Error(err))
		return
	}

	o.logger.Debug("payload snapshot stored", zap.String("object", objectName))
}
