// internal/app/store/kv/connect.go
package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Backend names accepted by Options.Backend.
const (
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend string

	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// ConnectRetries bounds the number of ping retries at startup.
	ConnectRetries uint64
}

// Conn is an open backend. Exactly one of Mongo/Redis is set for the
// networked backends; both are nil for the memory backend.
type Conn struct {
	Store Store
	Mongo *mongo.Client
	Redis redis.UniversalClient
}

// ValidBackend reports whether name is a supported backend.
func ValidBackend(name string) bool {
	switch name {
	case BackendMongo, BackendRedis, BackendMemory:
		return true
	}
	return false
}

// Connect opens the configured backend and pings it, retrying with
// exponential backoff so a store that starts alongside the app is tolerated.
func Connect(ctx context.Context, opts Options, logger *zap.Logger) (*Conn, error) {
	conn := &Conn{}

	switch opts.Backend {
	case BackendMongo, "":
		clientOpts := options.Client().ApplyURI(opts.MongoURI)
		if opts.MongoMaxPoolSize > 0 {
			clientOpts.SetMaxPoolSize(opts.MongoMaxPoolSize)
		}
		client, err := mongo.Connect(ctx, clientOpts)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		conn.Mongo = client
		conn.Store = NewMongo(client.Database(opts.MongoDatabase))
	case BackendRedis:
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{opts.RedisAddr},
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		conn.Redis = client
		conn.Store = NewRedis(client, opts.RedisPrefix)
	case BackendMemory:
		conn.Store = NewMemory()
		logger.Warn("using in-memory store; data is lost on restart")
		return conn, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}

	pinger := conn.Store.(Pinger)
	retries := opts.ConnectRetries
	if retries == 0 {
		retries = 5
	}
	backoff := retry.WithMaxRetries(retries, retry.NewExponential(250*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := pinger.Ping(pingCtx); err != nil {
			logger.Warn("store ping failed; retrying",
				zap.String("backend", opts.Backend),
				zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = conn.Close(context.Background())
		return nil, fmt.Errorf("%s ping: %w", opts.Backend, err)
	}

	logger.Info("store connected", zap.String("backend", backendName(opts.Backend)))
	return conn, nil
}

// Close releases the underlying client, if any.
func (c *Conn) Close(ctx context.Context) error {
	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil {
			return fmt.Errorf("mongo disconnect: %w", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			return fmt.Errorf("redis close: %w", err)
		}
	}
	return nil
}

func backendName(b string) string {
	if b == "" {
		return BackendMongo
	}
	return b
}
