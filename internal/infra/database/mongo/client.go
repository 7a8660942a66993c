package mongox

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

// Connect создаёт один общий клиент на весь процесс. Клиент потокобезопасен и держит пул соединений.
func Connect(ctx context.Context, logger *log.Logger, uri string) (*mongo.Client, error) {
	logger.Println("connecting to MongoDB...")
	opts := options.Client().
		ApplyURI(uri).
		SetAppName("ionia-img")

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Println("MongoDB connection established")
	return client, nil
}
