package cart

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	CheckoutTopic   = "checkout-outbox"
	consumerGroupID = "cart-service-consumer"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type checkoutApplier interface {
	ApplyCheckout(ctx context.Context, userID, checkoutID string, quantities map[string]int) (bool, error)
}

// Consumer removes checked-out lines from a user's cart once the checkout event
// is published. Checkout already applies the event inline, so this is normally a no-op.
type Consumer struct {
	reader messageReader
	carts  checkoutApplier
	logger *zap.Logger
}

func NewConsumer(carts checkoutApplier, logger *zap.Logger, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    CheckoutTopic,
		GroupID:  consumerGroupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, carts: carts, logger: logger}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.consumeOne(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("error closing kafka reader", zap.Error(err))
	}
}

type checkoutEvent struct {
	CheckoutID string `json:"checkout_id"`
	UserID     string `json:"user_id"`
	Items      []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

func (e checkoutEvent) quantities() map[string]int {
	out := make(map[string]int, len(e.Items))
	for _, it := range e.Items {
		out[it.ProductID] += it.Quantity
	}
	return out
}

func (c *Consumer) consumeOne(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Error("error reading message", zap.Error(err))
		}
		return
	}
	c.handle(ctx, m.Value)
}

func (c *Consumer) handle(ctx context.Context, value []byte) {
	var event checkoutEvent
	if err := json.Unmarshal(value, &event); err != nil {
		c.logger.Warn("error parsing message", zap.Error(err))
		return
	}
	if event.UserID == "" || event.CheckoutID == "" {
		c.logger.Warn("incomplete checkout event",
			zap.String("user_id", event.UserID),
			zap.String("checkout_id", event.CheckoutID))
		return
	}

	applied, err := c.carts.ApplyCheckout(ctx, event.UserID, event.CheckoutID, event.quantities())
	if err != nil {
		c.logger.Error("failed to apply checkout to cart",
			zap.String("user_id", event.UserID),
			zap.String("checkout_id", event.CheckoutID),
			zap.Error(err))
		return
	}
	if !applied {
		c.logger.Debug("checkout already applied to cart",
			zap.String("user_id", event.UserID),
			zap.String("checkout_id", event.CheckoutID))
		return
	}
	c.logger.Info("checkout applied to cart",
		zap.String("user_id", event.UserID),
		zap.String("checkout_id", event.CheckoutID))
}
