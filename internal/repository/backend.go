package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stemsi/recordclean/internal/config"
	"github.com/stemsi/recordclean/internal/database"
	"github.com/stemsi/recordclean/internal/model"
	"go.mongodb.org/mongo-driver/mongo"
)

// RecordRepository is implemented by every record store backend.
type RecordRepository interface {
	Name() string
	FetchAll(ctx context.Context) ([]model.Record, []model.SkippedRecord, error)
	ReplaceSemesters(ctx context.Context, id string, revision []byte, semesters []model.Semester) (bool, error)
	Insert(ctx context.Context, rec model.Record) (string, error)
}

// Backend owns the connection of the configured storage driver and hands
// out per-collection repositories.
type Backend struct {
	driver      string
	pool        *pgxpool.Pool
	mongoClient *mongo.Client
	mongoDB     *mongo.Database
}

// OpenBackend connects to the store selected by STORAGE_DRIVER.
func OpenBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Backend, error) {
	switch cfg.StorageDriver {
	case config.DriverMongo:
		client, db, err := database.NewMongoDatabase(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return &Backend{driver: cfg.StorageDriver, mongoClient: client, mongoDB: db}, nil
	case config.DriverPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return &Backend{driver: cfg.StorageDriver, pool: pool}, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

// Records returns the repository for one collection (table).
func (b *Backend) Records(collection string) RecordRepository {
	if b.pool != nil {
		return NewPostgresRecordRepository(b.pool, collection)
	}
	return NewMongoRecordRepository(b.mongoDB, collection)
}

func (b *Backend) Driver() string {
	return b.driver
}

// Close releases the underlying connection.
func (b *Backend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
	if b.mongoClient != nil {
		_ = b.mongoClient.Disconnect(context.Background())
	}
}
