// Package mongostore maps each document collection onto a MongoDB collection.
package mongostore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/repository"
)

type Store struct {
	db *mongo.Database
}

type record struct {
	ID        string    `bson:"_id"`
	Doc       bson.Raw  `bson:"doc"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func Connect(ctx context.Context, uri, database string) (*Store, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(50)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := ping(ctx, client); err != nil {
		return nil, err
	}

	return &Store{db: client.Database(database)}, nil
}

type pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
	Disconnect(ctx context.Context) error
}

// ping checks the connection and disconnects the client when it fails.
func ping(ctx context.Context, client pinger) error {
	err := client.Ping(ctx, nil)
	if err == nil {
		return nil
	}
	disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if derr := client.Disconnect(disconnectCtx); derr != nil {
		return fmt.Errorf("failed to ping MongoDB: %w (disconnect: %v)", err, derr)
	}
	return fmt.Errorf("failed to ping MongoDB: %w", err)
}

// CreateIndexes adds the created_at index List sorts on.
func (s *Store) CreateIndexes(ctx context.Context, collections ...string) error {
	for _, name := range collections {
		_, err := s.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "created_at", Value: 1}},
		})
		if err != nil {
			return fmt.Errorf("create index on %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	var rec record
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.NotFound(collection, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find %s/%s: %v", domain.ErrPersistence, collection, id, err)
	}
	return toJSON(rec.Doc)
}

func (s *Store) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find %s: %v", domain.ErrPersistence, collection, err)
	}
	defer cursor.Close(ctx)

	docs := []json.RawMessage{}
	for cursor.Next(ctx) {
		var rec record
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrPersistence, collection, err)
		}
		doc, err := toJSON(rec.Doc)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: cursor %s: %v", domain.ErrPersistence, collection, err)
	}
	return docs, nil
}

func (s *Store) Put(ctx context.Context, collection, id string, doc json.RawMessage) error {
	var body bson.D
	if err := bson.UnmarshalExtJSON(doc, false, &body); err != nil {
		return fmt.Errorf("%w: convert %s/%s: %v", domain.ErrPersistence, collection, id, err)
	}

	now := time.Now().UTC()
	update := bson.M{
		"$set":         bson.M{"doc": body, "updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%w: upsert %s/%s: %v", domain.ErrPersistence, collection, id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%w: delete %s/%s: %v", domain.ErrPersistence, collection, id, err)
	}
	if res.DeletedCount == 0 {
		return repository.NotFound(collection, id)
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.db.Client().Disconnect(ctx)
}

func toJSON(doc bson.Raw) (json.RawMessage, error) {
	out, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return nil, fmt.Errorf("%w: encode document: %v", domain.ErrPersistence, err)
	}
	return out, nil
}
