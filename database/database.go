package database

import (
	"context"
	"time"

	"pixels/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo bundles the client and the collection handles the application
// uses. It is constructed once in main and injected into the services,
// never reached through package globals.
type Mongo struct {
	Client *mongo.Client

	Users         *mongo.Collection
	Media         *mongo.Collection
	Ads           *mongo.Collection
	Interactions  *mongo.Collection
	Subscriptions *mongo.Collection
}

func Connect(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(cfg.MongoDB)
	m := &Mongo{
		Client:        client,
		Users:         db.Collection("users"),
		Media:         db.Collection("media"),
		Ads:           db.Collection("ads"),
		Interactions:  db.Collection("interactions"),
		Subscriptions: db.Collection("push_subscriptions"),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.Users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	// Interaction rows carry an idempotency key so a retried write of the
	// same reward event cannot double-record.
	_, err = m.Interactions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "idempotencyKey", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = m.Subscriptions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (m *Mongo) Disconnect(ctx context.Context) error {
	if m.Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.Client.Disconnect(ctx)
}
