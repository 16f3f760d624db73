package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/contact"
	grpcsrv "github.com/fjod/go_cart/storefront/internal/grpc"
	"github.com/fjod/go_cart/storefront/internal/repository/kv"
	"github.com/fjod/go_cart/storefront/internal/repository/local"
	"github.com/fjod/go_cart/storefront/internal/repository/mongodb"
	"github.com/fjod/go_cart/storefront/internal/repository/sheet"
	"github.com/fjod/go_cart/storefront/internal/repository/sqldb"
	"github.com/fjod/go_cart/storefront/internal/slides"
)

// backends holds the connections the configuration asks for. Only the
// stores some component selected are opened.
type backends struct {
	sql   *sqldb.DB
	mongo *mongo.Database
	redis *redis.Client

	checks []grpcsrv.Check
}

func openBackends(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backends, error) {
	b := &backends{}

	if cfg.UsesSQL() {
		db, err := sqldb.Open(cfg.SQL.Driver, cfg.SQL.DSN)
		if err != nil {
			return nil, err
		}
		b.sql = db
		if err := db.RunMigrations(); err != nil {
			b.Close(ctx)
			return nil, err
		}
		b.checks = append(b.checks, grpcsrv.Check{Name: "sql", Ping: db.Ping})
		log.Info("connected to sql database", zap.String("driver", cfg.SQL.Driver))
	}

	if cfg.UsesMongo() {
		db, err := mongodb.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			b.Close(ctx)
			return nil, err
		}
		b.mongo = db
		if err := mongodb.CreateIndexes(ctx, db); err != nil {
			b.Close(ctx)
			return nil, err
		}
		b.checks = append(b.checks, grpcsrv.Check{Name: "mongo", Ping: func(ctx context.Context) error {
			return db.Client().Ping(ctx, nil)
		}})
		log.Info("connected to mongodb", zap.String("database", cfg.Mongo.Database))
	}

	if cfg.UsesRedis() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			b.Close(ctx)
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		b.redis = client
		b.checks = append(b.checks, grpcsrv.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
		log.Info("redis ping succeeded", zap.String("addr", cfg.Redis.Addr))
	}

	return b, nil
}

func (b *backends) Close(ctx context.Context) error {
	var errs []error
	if b.sql != nil {
		errs = append(errs, b.sql.Close())
	}
	if b.mongo != nil {
		errs = append(errs, b.mongo.Client().Disconnect(ctx))
	}
	if b.redis != nil {
		errs = append(errs, b.redis.Close())
	}
	return errors.Join(errs...)
}

// kvStore is the blob store behind carts and the local catalog.
func (b *backends) kvStore(cfg *config.Config) kv.Store {
	switch cfg.Store.Backend {
	case config.StoreRedis:
		return kv.NewRedisStore(b.redis, "", 0)
	case config.StoreSQL:
		return sqldb.NewKVStore(b.sql)
	case config.StoreMongo:
		return mongodb.NewKVStore(b.mongo)
	default:
		return kv.NewMemoryStore()
	}
}

func (b *backends) productBackend(cfg *config.Config, store kv.Store, log *zap.Logger) catalog.Backend {
	switch cfg.Catalog.Backend {
	case config.BackendMongo:
		return mongodb.NewProductRepository(b.mongo)
	case config.BackendSQL:
		return sqldb.NewProductRepository(b.sql)
	case config.BackendSheet:
		return sheet.NewFeed(cfg.Sheet.URL, cfg.Sheet.Timeout, log)
	default:
		return local.NewProductStore(store, catalog.DefaultProducts())
	}
}

func (b *backends) catalogCache(cfg *config.Config) catalog.Cache {
	if !cfg.Catalog.Cache {
		return nil
	}
	return catalog.NewStoreCache(kv.NewRedisStore(b.redis, "catalog", cfg.Catalog.CacheTTL))
}

func (b *backends) slideBackend(cfg *config.Config, store kv.Store) slides.Backend {
	switch cfg.SlidesBackend() {
	case config.BackendMongo:
		return mongodb.NewSlideRepository(b.mongo)
	case config.BackendSQL:
		return sqldb.NewSlideRepository(b.sql)
	default:
		return local.NewSlideStore(store)
	}
}

func (b *backends) orderRepository(cfg *config.Config) checkout.OrderRepository {
	if cfg.Orders.Backend == config.BackendMongo {
		return mongodb.NewOrderRepository(b.mongo)
	}
	return sqldb.NewOrderRepository(b.sql)
}

// Contact messages live next to the orders.
func (b *backends) contactStore(cfg *config.Config) contact.Store {
	if cfg.Orders.Backend == config.BackendMongo {
		return mongodb.NewContactRepository(b.mongo)
	}
	return sqldb.NewContactRepository(b.sql)
}

func newCatalog(cfg *config.Config, b *backends, store kv.Store, log *zap.Logger) *catalog.Catalog {
	opts := []catalog.Option{catalog.WithDefaultCategory(cfg.Catalog.DefaultCategory)}
	if cache := b.catalogCache(cfg); cache != nil {
		opts = append(opts, catalog.WithCache(cache))
	}
	return catalog.New(b.productBackend(cfg, store, log), log, opts...)
}
