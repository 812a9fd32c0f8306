package db

import (
	"context"

	"github.com/IntegraLedger/integra-eas-worker/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Database struct {
	DbName string
	Client *mongo.Client
	cfg    config.DbConfig
}

func New(ctx context.Context, cfg config.DbConfig) (*Database, error) {
	clientOps := options.Client().ApplyURI(cfg.Address)
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return nil, err
	}

	return &Database{
		DbName: cfg.DbName,
		Client: client,
		cfg:    cfg,
	}, nil
}

func (db *Database) Ping(ctx context.Context) error {
	err := db.Client.Ping(ctx, nil)
	if err != nil {
		return err
	}
	return nil
}

// orgDatabase resolves the requester's designated store. An empty store ref
// falls back to the service's own database.
func (db *Database) orgDatabase(storeRef string) *mongo.Database {
	if storeRef == "" {
		storeRef = db.DbName
	}
	return db.Client.Database(storeRef)
}
