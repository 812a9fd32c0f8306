package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IntegraLedger/integra-eas-worker/internal/db/model"
)

// SaveAttestation stores a finalized attestation record in the requester's
// designated store.
func (db *Database) SaveAttestation(ctx context.Context, storeRef string, attestation *model.AttestationDocument) error {
	client := db.orgDatabase(storeRef).Collection(model.AttestationCollection)
	_, err := client.InsertOne(ctx, attestation)
	if err != nil {
		var writeErr mongo.WriteException
		if errors.As(err, &writeErr) {
			for _, e := range writeErr.WriteErrors {
				if mongo.IsDuplicateKeyError(e) {
					return &DuplicateKeyError{
						Key:     attestation.AttestationUid,
						Message: "Attestation already exists",
					}
				}
			}
		}
		return err
	}
	return nil
}

// RevokeAttestation marks an existing attestation record as revoked.
func (db *Database) RevokeAttestation(ctx context.Context, storeRef, attestationUid string, revocationTime int64) error {
	client := db.orgDatabase(storeRef).Collection(model.AttestationCollection)
	filter := bson.M{"_id": attestationUid}
	update := bson.M{"$set": bson.M{
		"is_revoked":      true,
		"revocation_time": revocationTime,
	}}
	result, err := client.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return &NotFoundError{
			Key:     attestationUid,
			Message: fmt.Sprintf("Attestation %s not found", attestationUid),
		}
	}
	return nil
}

func (db *Database) GetAttestationByUID(ctx context.Context, storeRef, attestationUid string) (*model.AttestationDocument, error) {
	client := db.orgDatabase(storeRef).Collection(model.AttestationCollection)
	filter := bson.M{"_id": attestationUid}
	var attestation model.AttestationDocument
	err := client.FindOne(ctx, filter).Decode(&attestation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     attestationUid,
				Message: fmt.Sprintf("Attestation %s not found", attestationUid),
			}
		}
		return nil, err
	}
	return &attestation, nil
}

// GetAttestationsForDocument lists the attestations linked to a subject
// document hash, newest first.
func (db *Database) GetAttestationsForDocument(ctx context.Context, storeRef, integraHash string) ([]model.AttestationDocument, error) {
	client := db.orgDatabase(storeRef).Collection(model.AttestationCollection)
	filter := bson.M{"integra_hash": integraHash}
	opts := options.Find().SetSort(bson.M{"date_of_issue": -1}).SetLimit(db.cfg.MaxQueryLimit)
	return db.findAttestations(ctx, client, filter, opts)
}

func (db *Database) GetSentAttestations(ctx context.Context, storeRef, attesterAddress string, limit int64) ([]model.AttestationDocument, error) {
	client := db.orgDatabase(storeRef).Collection(model.AttestationCollection)
	filter := bson.M{"direction": model.DirectionSent, "attester": attesterAddress}
	opts := options.Find().SetSort(bson.M{"date_of_issue": -1}).SetLimit(db.queryLimit(limit))
	return db.findAttestations(ctx, client, filter, opts)
}

func (db *Database) GetReceivedAttestations(ctx context.Context, storeRef, recipientAddress string, limit int64) ([]model.AttestationDocument, error) {
	client := db.orgDatabase(storeRef).Collection(model.AttestationCollection)
	filter := bson.M{"direction": model.DirectionReceived, "recipient": recipientAddress}
	opts := options.Find().SetSort(bson.M{"date_of_issue": -1}).SetLimit(db.queryLimit(limit))
	return db.findAttestations(ctx, client, filter, opts)
}

func (db *Database) findAttestations(
	ctx context.Context, client *mongo.Collection, filter bson.M, opts *options.FindOptions,
) ([]model.AttestationDocument, error) {
	cursor, err := client.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var attestations []model.AttestationDocument
	if err = cursor.All(ctx, &attestations); err != nil {
		return nil, err
	}
	return attestations, nil
}

func (db *Database) queryLimit(limit int64) int64 {
	if limit <= 0 || limit > db.cfg.MaxQueryLimit {
		return db.cfg.MaxQueryLimit
	}
	return limit
}
