package cart

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig locates the database that holds cart snapshots.
type MongoConfig struct {
	URI      string
	Database string
	// Timeout bounds connecting, server selection and the startup ping.
	Timeout  time.Duration
	PoolSize uint64
}

func (c MongoConfig) clientOptions() *options.ClientOptions {
	opts := options.Client().
		ApplyURI(c.URI).
		SetAppName("grocer-cart").
		SetConnectTimeout(c.Timeout).
		SetServerSelectionTimeout(c.Timeout).
		SetRetryWrites(true)
	if c.PoolSize > 0 {
		opts.SetMaxPoolSize(c.PoolSize)
	}
	return opts
}

// OpenMongo connects to MongoDB and waits for the primary to answer.
// The caller disconnects the returned database's client.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*mongo.Database, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("cart: mongo database name is required")
	}

	client, err := mongo.Connect(ctx, cfg.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("cart: connect mongo: %w", err)
	}

	pingCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("cart: ping mongo: %w", err)
	}
	return client.Database(cfg.Database), nil
}
