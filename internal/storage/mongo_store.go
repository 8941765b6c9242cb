package storage

import (
	"context"
	"crypto/tls"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewMongoClient connects and pings once. The returned client is shared by
// every MongoContainer of the process and disconnected on shutdown.
// Cosmos DB for MongoDB requires TLS, so useTLS is normally true.
func NewMongoClient(ctx context.Context, mongoURI string, useTLS bool) (*mongo.Client, error) {
	// Nested documents in field groups and carried-over keys decode as maps,
	// so they encode back to JSON objects.
	opts := options.Client().
		ApplyURI(mongoURI).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	if useTLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tls.VersionTLS12,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

// MongoContainer stores documents in one collection with the id as _id.
// Documents must map their id field to bson "_id".
type MongoContainer struct {
	col *mongo.Collection
}

func NewMongoContainer(client *mongo.Client, dbName, collection string) *MongoContainer {
	return &MongoContainer{col: client.Database(dbName).Collection(collection)}
}

func (c *MongoContainer) Read(ctx context.Context, id string, out interface{}) error {
	err := c.col.FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (c *MongoContainer) Upsert(ctx context.Context, id string, doc interface{}) error {
	_, err := c.col.ReplaceOne(
		ctx,
		bson.M{"_id": id},
		doc,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (c *MongoContainer) Create(ctx context.Context, id string, doc interface{}) error {
	_, err := c.col.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}
