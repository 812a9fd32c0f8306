package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/IntegraLedger/integra-eas-worker/internal/db/model"
)

// GetWorkflow looks up a workflow definition in the shared registry by name
// and version.
func (db *Database) GetWorkflow(ctx context.Context, name, version string) (*model.WorkflowDocument, error) {
	client := db.Client.Database(db.DbName).Collection(model.WorkflowLibraryCollection)
	filter := bson.M{"name": name, "version": version}
	var workflow model.WorkflowDocument
	err := client.FindOne(ctx, filter).Decode(&workflow)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     name,
				Message: fmt.Sprintf("Workflow not found: %s v%s", name, version),
			}
		}
		return nil, err
	}
	return &workflow, nil
}
