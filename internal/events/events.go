// Package events publishes dashboard activity for downstream auditing.
package events

import (
	"context"
	"time"
)

// Event records one successful dashboard mutation
type Event struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	SellerID  string    `json:"seller_id"`
	ProductID string    `json:"product_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeProductUpdated = "product.updated"
	EventTypeProductAdded   = "product.added"
	EventTypeProductDeleted = "product.deleted"
	EventTypeSellerLogout   = "seller.logged_out"
)

// DefaultTopic receives every dashboard event
const DefaultTopic = "dashboard-activity"

// Publisher delivers events. Failures never undo the mutation that
// produced the event; callers only log them.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop discards events when no broker is configured
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
