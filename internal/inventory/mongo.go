package inventory

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/keyvigil/keyvigil/internal/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	defaultDatabase   = "keyvigil"
	defaultCollection = "credentials"
)

// MongoStore is the document-store backed credential inventory.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to the metadata store and returns an inventory
// backed by the given database/collection (defaults: keyvigil/credentials).
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if database == "" {
		database = defaultDatabase
	}
	if collection == "" {
		collection = defaultCollection
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to inventory store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("inventory store unreachable: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Close disconnects from the metadata store.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// List implements Store.
func (s *MongoStore) List(ctx context.Context) ([]Credential, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer cursor.Close(ctx)

	var creds []Credential
	if err := cursor.All(ctx, &creds); err != nil {
		return nil, fmt.Errorf("failed to decode credentials: %w", err)
	}
	for i := range creds {
		creds[i].Kind = NormalizeKind(string(creds[i].Kind))
	}
	return creds, nil
}

// ListDue implements Store.
func (s *MongoStore) ListDue(ctx context.Context, thresholdDays int) ([]Credential, error) {
	filter := bson.M{
		"status": bson.M{"$ne": string(StatusRotating)},
		"$or": bson.A{
			bson.M{"status": bson.M{"$in": bson.A{
				string(StatusExpiring), string(StatusExpired), string(StatusFailed),
			}}},
			bson.M{"expires_in": bson.M{"$lt": thresholdDays}},
		},
	}

	cursor, err := s.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list due credentials: %w", err)
	}
	defer cursor.Close(ctx)

	var due []Credential
	if err := cursor.All(ctx, &due); err != nil {
		return nil, fmt.Errorf("failed to decode credentials: %w", err)
	}
	for i := range due {
		due[i].Kind = NormalizeKind(string(due[i].Kind))
	}
	return due, nil
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, id string) (*Credential, error) {
	var cred Credential
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&cred)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.NotFoundError{CredentialID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential '%s': %w", id, err)
	}
	cred.Kind = NormalizeKind(string(cred.Kind))
	return &cred, nil
}

// UpdateStatus implements Store.
func (s *MongoStore) UpdateStatus(ctx context.Context, id string, status Status) error {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": string(status)}},
	)
	if err != nil {
		return fmt.Errorf("failed to update status for '%s': %w", id, err)
	}
	if result.MatchedCount == 0 {
		return errors.NotFoundError{CredentialID: id}
	}
	return nil
}

// UpdateStatusIf implements Store. The status guard rides in the filter so
// the check-and-set is a single conditional write on the server.
func (s *MongoStore) UpdateStatusIf(ctx context.Context, id string, expect, next Status) (bool, error) {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(expect)},
		bson.M{"$set": bson.M{"status": string(next)}},
	)
	if err != nil {
		return false, fmt.Errorf("failed conditional status update for '%s': %w", id, err)
	}
	if result.MatchedCount == 0 {
		// Distinguish missing credential from a failed guard.
		count, err := s.collection.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return false, fmt.Errorf("failed to check credential '%s': %w", id, err)
		}
		if count == 0 {
			return false, errors.NotFoundError{CredentialID: id}
		}
		return false, nil
	}
	return true, nil
}

// UpdateAfterRotation implements Store.
func (s *MongoStore) UpdateAfterRotation(ctx context.Context, id string, update RotationUpdate) error {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"last_rotated": update.LastRotated,
			"expires_in":   update.ExpiresIn,
			"status":       string(update.Status),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to commit rotation for '%s': %w", id, err)
	}
	if result.MatchedCount == 0 {
		return errors.NotFoundError{CredentialID: id}
	}
	return nil
}

// MergeProviderMetadata implements Store.
func (s *MongoStore) MergeProviderMetadata(ctx context.Context, id string, fields map[string]string) error {
	set := bson.M{}
	for k, v := range fields {
		set["provider_meta."+k] = v
	}

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to merge provider metadata for '%s': %w", id, err)
	}
	if result.MatchedCount == 0 {
		return errors.NotFoundError{CredentialID: id}
	}
	return nil
}
