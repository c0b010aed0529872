package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"catalog-service/internal/domain"

	"go.uber.org/zap"
)

// InventoryServiceName identifies the inventory peer in errors and metrics.
const InventoryServiceName = "inventory-service"

// InventoryClient looks up live stock levels.
type InventoryClient interface {
	// GetStatus returns the live inventory for productID. ok is false when
	// the peer does not know the product (404).
	GetStatus(ctx context.Context, productID string) (status *domain.InventoryStatus, ok bool, err error)
}

type inventoryClient struct {
	peer peer
}

// NewInventoryClient creates an InventoryClient for baseURL
func NewInventoryClient(baseURL string, httpClient *http.Client, logger *zap.Logger) InventoryClient {
	return &inventoryClient{peer: newPeer(InventoryServiceName, baseURL, httpClient, logger)}
}

func (c *inventoryClient) GetStatus(ctx context.Context, productID string) (*domain.InventoryStatus, bool, error) {
	status, body, err := c.peer.do(ctx, "get_status", http.MethodGet, "/"+url.PathEscape(productID), nil)
	if err != nil {
		return nil, false, err
	}

	if status == http.StatusNotFound {
		return nil, false, nil
	}
	if !isSuccess(status) {
		return nil, false, newStatusError(status, body)
	}

	var inventory domain.InventoryStatus
	if err := json.Unmarshal(body, &inventory); err != nil {
		return nil, false, fmt.Errorf("failed to decode inventory status: %w", err)
	}
	return &inventory, true, nil
}
