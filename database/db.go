package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	connectTimeout = 10 * time.Second
	connectRetries = 3
)

var (
	MongoClient *mongo.Client
	DB          *mongo.Database
)

func clientOptions(uri string) *options.ClientOptions {
	return options.Client().
		ApplyURI(uri).
		SetAppName("storefront-service").
		SetServerSelectionTimeout(connectTimeout).
		SetMaxPoolSize(50).
		SetRetryWrites(true)
}

// ConnectWithConfig connects to uri and selects dbName, retrying the initial
// ping so the service survives a database that starts after it.
func ConnectWithConfig(uri, dbName string) error {
	client, err := mongo.Connect(context.Background(), clientOptions(uri))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}

	var pingErr error
	for attempt := 1; attempt <= connectRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		pingErr = client.Ping(ctx, readpref.Primary())
		cancel()
		if pingErr == nil {
			break
		}
		zap.L().Warn("MongoDB not reachable yet", zap.Int("attempt", attempt), zap.Error(pingErr))
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	if pingErr != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("mongo ping after %d attempts: %w", connectRetries, pingErr)
	}

	MongoClient = client
	DB = client.Database(dbName)
	zap.L().Info("Connected to MongoDB", zap.String("database", dbName))
	return nil
}

func Close() error {
	if MongoClient == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := MongoClient.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongo disconnect: %w", err)
	}
	MongoClient, DB = nil, nil
	return nil
}
