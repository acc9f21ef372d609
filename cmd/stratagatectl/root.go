package main

import (
	"context"
	"os"
	"strconv"

	"github.com/dalemusser/stratagate/internal/app/store/kv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// connectFunc opens the credential store. Tests replace it with an in-memory
// store.
type connectFunc func(ctx context.Context) (*kv.Conn, error)

type options struct {
	opts    kv.Options
	verbose bool
	connect connectFunc
}

// NewRootCmd creates the root command for the StrataGate admin CLI.
func NewRootCmd() *cobra.Command {
	o := &options{}
	o.connect = func(ctx context.Context) (*kv.Conn, error) {
		logger := zap.NewNop()
		if o.verbose {
			logger, _ = zap.NewDevelopment()
		}
		return kv.Connect(ctx, o.opts, logger)
	}
	return newRootCmd(o)
}

func newRootCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stratagatectl",
		Short: "StrataGate administration",
		Long: `stratagatectl reads and changes the StrataGate credential store
directly. Flags default to the STRATAGATE_* environment variables the
server reads.`,
		SilenceUsage: true,
	}

	f := cmd.PersistentFlags()
	f.StringVar(&o.opts.Backend, "store-backend", env("STRATAGATE_STORE_BACKEND", kv.BackendMongo), "store backend: mongo, redis or memory")
	f.StringVar(&o.opts.MongoURI, "mongo-uri", env("STRATAGATE_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	f.StringVar(&o.opts.MongoDatabase, "mongo-database", env("STRATAGATE_MONGO_DATABASE", "strata_gate"), "MongoDB database name")
	f.StringVar(&o.opts.RedisAddr, "redis-addr", env("STRATAGATE_REDIS_ADDR", "localhost:6379"), "Redis address")
	f.StringVar(&o.opts.RedisPassword, "redis-password", env("STRATAGATE_REDIS_PASSWORD", ""), "Redis password")
	f.IntVar(&o.opts.RedisDB, "redis-db", envInt("STRATAGATE_REDIS_DB", 0), "Redis database number")
	f.StringVar(&o.opts.RedisPrefix, "redis-prefix", env("STRATAGATE_REDIS_PREFIX", kv.DefaultRedisPrefix), "Redis key prefix")
	f.Uint64Var(&o.opts.ConnectRetries, "connect-retries", 2, "store ping retries")
	f.BoolVar(&o.verbose, "verbose", false, "log store connection details")

	cmd.AddCommand(newSettingsCmd(o))
	cmd.AddCommand(newUsersCmd(o))
	cmd.AddCommand(newAuditCmd(o))

	return cmd
}

// withStore opens the store, runs fn and closes the connection.
func withStore(cmd *cobra.Command, o *options, fn func(ctx context.Context, store kv.Store) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	conn, err := o.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close(context.Background()) }()
	return fn(ctx, conn.Store)
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
