package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gogotex/widgets/internal/config"
	"github.com/gogotex/widgets/internal/cosmos"
	"github.com/gogotex/widgets/internal/widget/repository"
)

const mongoConnectAttempts = 5

// openStore builds the document store named by cfg.Store.Backend. The
// returned func releases the connection.
func openStore(ctx context.Context, l log.Logger, cfg *config.Config) (repository.Store, func(), error) {
	noop := func() {}
	switch cfg.Store.Backend {
	case config.BackendMemory:
		level.Warn(l).Log("msg", "using in-memory store, data is lost on restart")
		return repository.NewMemoryRepo(), noop, nil

	case config.BackendMongo:
		// tolerate startup races with the database container
		backoff := time.Second
		var client *mongo.Client
		var err error
		for attempt := 1; attempt <= mongoConnectAttempts; attempt++ {
			client, err = repository.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.Store.Timeout)
			if err == nil {
				break
			}
			level.Warn(l).Log("msg", "failed to connect to MongoDB", "attempt", attempt, "max", mongoConnectAttempts, "err", err)
			if attempt == mongoConnectAttempts {
				break
			}
			select {
			case <-ctx.Done():
				return nil, noop, fmt.Errorf("connect to MongoDB: %w", ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		if err != nil {
			return nil, noop, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return repository.NewMongoRepo(client.Database(cfg.Store.Database), cfg.Store.Container), closeFn, nil

	case config.BackendCosmos:
		client, err := cosmos.NewClient(l, cfg.Cosmos)
		if err != nil {
			return nil, noop, err
		}
		return repository.NewCosmosRepo(client, cfg.Store.Database, cfg.Store.Container, cfg.Store.Throughput), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
