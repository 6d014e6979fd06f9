package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"sweetbox/pkg/config"
	"sweetbox/pkg/engine"
	"sweetbox/pkg/logger"
	"sweetbox/pkg/models"
)

var (
	fcmClient *messaging.Client
	fcmTopic  = "inventory-alerts"
)

// InitFCM initializes Firebase Cloud Messaging
func InitFCM(cfg config.FCMConfig, credentialsFile string) error {
	if !cfg.Enabled {
		return fmt.Errorf("FCM disabled")
	}
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize FCM client: %w", err)
	}

	if cfg.Topic != "" {
		fcmTopic = cfg.Topic
	}
	fcmClient = client
	return nil
}

// StockAlertMessage builds the topic push for items that are out of stock,
// low or expiring within a week. ok is false when nothing needs attention.
func StockAlertMessage(items []models.InventoryItem, today models.Date, topic string) (*messaging.Message, bool) {
	var out, low, expiring []string
	for _, it := range items {
		if it.Archived {
			continue
		}
		switch engine.Condition(it, today) {
		case engine.ConditionOutOfStock:
			out = append(out, it.Name)
		case engine.ConditionLowStock:
			low = append(low, it.Name)
		case engine.ConditionExpiringSoon, engine.ConditionExpired:
			expiring = append(expiring, it.Name)
		}
	}
	if len(out)+len(low)+len(expiring) == 0 {
		return nil, false
	}
	sort.Strings(out)
	sort.Strings(low)
	sort.Strings(expiring)

	var parts []string
	if len(out) > 0 {
		parts = append(parts, "Out: "+strings.Join(out, ", "))
	}
	if len(low) > 0 {
		parts = append(parts, "Low: "+strings.Join(low, ", "))
	}
	if len(expiring) > 0 {
		parts = append(parts, "Expiring: "+strings.Join(expiring, ", "))
	}

	return &messaging.Message{
		Topic: topic,
		Notification: &messaging.Notification{
			Title: "Stock needs attention",
			Body:  strings.Join(parts, " | "),
		},
		Data: map[string]string{
			"type":       "stock_alert",
			"outOfStock": strconv.Itoa(len(out)),
			"lowStock":   strconv.Itoa(len(low)),
			"expiring":   strconv.Itoa(len(expiring)),
			"date":       today.String(),
		},
	}, true
}

// SendStockAlerts pushes a stock alert to the configured topic when needed.
func SendStockAlerts(ctx context.Context, items []models.InventoryItem, today models.Date) {
	if fcmClient == nil {
		return
	}
	msg, ok := StockAlertMessage(items, today, fcmTopic)
	if !ok {
		return
	}
	id, err := fcmClient.Send(ctx, msg)
	if err != nil {
		logger.Log.Warn("failed to send stock alert", zap.Error(err))
		return
	}
	logger.Log.Info("stock alert sent", zap.String("message_id", id), zap.String("topic", fcmTopic))
}

// GetServiceStatus returns FCM service connection status
func GetServiceStatus() map[string]interface{} {
	status := map[string]interface{}{
		"initialized": fcmClient != nil,
		"service":     "Firebase Cloud Messaging",
		"topic":       fcmTopic,
	}

	if fcmClient != nil {
		status["status"] = "connected"
	} else {
		status["status"] = "not initialized"
	}

	return status
}
