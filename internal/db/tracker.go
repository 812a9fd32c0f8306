package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IntegraLedger/integra-eas-worker/internal/db/model"
)

// SaveTrackerSnapshot writes the tracker's full state as one versioned
// document, replacing any previous snapshot for the same instance.
func (db *Database) SaveTrackerSnapshot(ctx context.Context, snapshot *model.TrackerSnapshotDocument) error {
	client := db.Client.Database(db.DbName).Collection(model.TrackerSnapshotCollection)
	filter := bson.M{"_id": snapshot.Id}
	opts := options.Replace().SetUpsert(true)
	_, err := client.ReplaceOne(ctx, filter, snapshot, opts)
	return err
}

// GetTrackerSnapshot loads the snapshot for the given tracker instance. It
// returns (nil, nil) when no snapshot has been written yet.
func (db *Database) GetTrackerSnapshot(ctx context.Context, instanceName string) (*model.TrackerSnapshotDocument, error) {
	client := db.Client.Database(db.DbName).Collection(model.TrackerSnapshotCollection)
	filter := bson.M{"_id": instanceName}
	var snapshot model.TrackerSnapshotDocument
	err := client.FindOne(ctx, filter).Decode(&snapshot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}
