package client

import (
	"context"
	"net/http"

	"catalog-service/internal/domain"

	"go.uber.org/zap"
)

// NotificationServiceName identifies the notification peer in errors and metrics.
const NotificationServiceName = "notification-service"

// NotificationClient delivers alerts to the notification peer.
type NotificationClient interface {
	NotifyLowStock(ctx context.Context, notification domain.LowStockNotification) error
}

type notificationClient struct {
	peer peer
}

// NewNotificationClient creates a NotificationClient for baseURL
func NewNotificationClient(baseURL string, httpClient *http.Client, logger *zap.Logger) NotificationClient {
	return &notificationClient{peer: newPeer(NotificationServiceName, baseURL, httpClient, logger)}
}

func (c *notificationClient) NotifyLowStock(ctx context.Context, notification domain.LowStockNotification) error {
	status, body, err := c.peer.do(ctx, "low_stock", http.MethodPost, "/low-stock", notification)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return newStatusError(status, body)
	}
	return nil
}
