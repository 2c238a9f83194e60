package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/commerce-insights/internal/domain"
)

// OrderEvent is the JSON payload published for each placed order.
type OrderEvent struct {
	OrderID        string    `json:"order_id"`
	CustomerID     string    `json:"customer_id"`
	ChannelID      string    `json:"channel_id"`
	PaymentMethod  string    `json:"payment_method"`
	DiscountAmount float64   `json:"discount_amount"`
	FinalAmount    float64   `json:"final_amount"`
	Timestamp      time.Time `json:"timestamp"`
}

// DecodeOrderEvent parses and validates a message value.
func DecodeOrderEvent(data []byte) (OrderEvent, error) {
	var ev OrderEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return OrderEvent{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if err := ev.Validate(); err != nil {
		return OrderEvent{}, err
	}
	return ev, nil
}

func (e OrderEvent) Validate() error {
	switch {
	case strings.TrimSpace(e.OrderID) == "":
		return fmt.Errorf("%w: order_id is required", ErrInvalidEvent)
	case strings.TrimSpace(e.CustomerID) == "":
		return fmt.Errorf("%w: customer_id is required", ErrInvalidEvent)
	case e.Timestamp.IsZero():
		return fmt.Errorf("%w: timestamp is required", ErrInvalidEvent)
	case e.FinalAmount < 0 || e.DiscountAmount < 0:
		return fmt.Errorf("%w: amounts must not be negative", ErrInvalidEvent)
	}
	return nil
}

// Order converts the event to a domain order.
func (e OrderEvent) Order() domain.Order {
	return domain.Order{
		OrderID:        e.OrderID,
		CustomerID:     e.CustomerID,
		ChannelID:      e.ChannelID,
		PaymentMethod:  e.PaymentMethod,
		DiscountAmount: e.DiscountAmount,
		FinalAmount:    e.FinalAmount,
		Timestamp:      e.Timestamp.UTC(),
	}
}
