package database

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/rental-listings/internal/config"
	"github.com/iliyamo/rental-listings/internal/docstore"
)

// OpenStore builds the document store selected by cfg.StoreDriver.  rdb may
// be nil; the MySQL store then polls for changes.  The returned func
// releases the underlying connections.
func OpenStore(ctx context.Context, cfg config.Config, rdb *redis.Client) (docstore.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		db, err := Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql: %w", err)
		}
		mctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := Migrate(mctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		if rdb == nil {
			glog.Warningf("store: redis unavailable, mysql store polls every %s", cfg.PollInterval)
		}
		s := docstore.NewMySQLStore(db, rdb, cfg.StorePrefix, cfg.PollInterval)
		return s, func() { s.Close(); db.Close() }, nil

	case config.DriverMongo:
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.Ping(cctx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("ping mongo: %w", err)
		}
		s := docstore.NewMongoStore(client.Database(cfg.MongoDB), cfg.PollInterval)
		return s, func() { s.Close() }, nil

	default:
		glog.Warningf("store: using in-memory store, data is lost on restart")
		s := docstore.NewMemoryStore()
		return s, func() { s.Close() }, nil
	}
}
