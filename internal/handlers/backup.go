package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/balaghcms/notification-service/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Backups must land at least every two days for the cron to count as alive.
const recentBackupWindow = 48 * time.Hour

// BackupStore is the slice of the Firestore client the backup endpoints use.
type BackupStore interface {
	GetDocument(ctx context.Context, docPath string) (store.Document, bool, error)
	PatchDocument(ctx context.Context, docPath string, fields map[string]interface{}) error
	CreateDocument(ctx context.Context, collection string, fields map[string]interface{}) error
	RunQuery(ctx context.Context, q store.Query) ([]store.Document, error)
}

type BackupHandler struct {
	store BackupStore
	log   *zap.Logger
}

func NewBackupHandler(backupStore BackupStore, log *zap.Logger) *BackupHandler {
	return &BackupHandler{store: backupStore, log: log}
}

// CronStatus reports whether scheduled backups are configured and have run
// recently.
func (b *BackupHandler) CronStatus(c *gin.Context) {
	ctx := c.Request.Context()

	configDoc, configExists, err := b.store.GetDocument(ctx, "backupConfig/settings")
	if err != nil {
		b.log.Error("failed to read backup config", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to check cron status",
		})
		return
	}

	logs, err := b.store.RunQuery(ctx, store.Query{
		Collection: "backupLogs",
		OrderBy:    "triggeredAt",
		Descending: true,
		Limit:      1,
	})
	if err != nil {
		b.log.Error("failed to read backup logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to check cron status",
		})
		return
	}

	isConfigured := configExists && configDoc.Bool("enabled")

	var lastBackup interface{}
	hasRecentBackup := false
	if len(logs) > 0 {
		if triggeredAt, ok := logs[0].Time("triggeredAt"); ok {
			lastBackup = triggeredAt
			hasRecentBackup = time.Since(triggeredAt) < recentBackupWindow
		}
	}

	cronStatus := "inactive"
	if isConfigured && hasRecentBackup {
		cronStatus = "active"
	}

	var configFields interface{}
	if configExists {
		configFields = configDoc.Fields
	}

	c.JSON(http.StatusOK, gin.H{
		"isConfigured":    isConfigured,
		"hasRecentBackup": hasRecentBackup,
		"config":          configFields,
		"lastBackup":      lastBackup,
		"cronStatus":      cronStatus,
	})
}

// TriggerBackup stamps the backup config and appends a log entry; the
// backup job itself runs elsewhere.
func (b *BackupHandler) TriggerBackup(c *gin.Context) {
	ctx := c.Request.Context()

	configDoc, exists, err := b.store.GetDocument(ctx, "backupConfig/settings")
	if err != nil {
		b.log.Error("failed to read backup config", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to trigger backup",
			"details": err.Error(),
		})
		return
	}
	if !exists || !configDoc.Bool("enabled") {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Backup not configured or disabled",
		})
		return
	}

	now := time.Now()
	if err := b.store.PatchDocument(ctx, "backupConfig/settings", map[string]interface{}{
		"lastBackup":       now,
		"lastBackupStatus": "triggered",
	}); err != nil {
		b.log.Error("failed to update backup config", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to trigger backup",
			"details": err.Error(),
		})
		return
	}

	if err := b.store.CreateDocument(ctx, "backupLogs", map[string]interface{}{
		"triggeredAt": now,
		"triggeredBy": "cron",
		"status":      "initiated",
	}); err != nil {
		b.log.Error("failed to append backup log", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to trigger backup",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Backup triggered successfully",
		"config":  configDoc.Fields,
	})
}
