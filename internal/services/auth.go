package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/rajiknows/dcex-project/internal/config"
	"github.com/rajiknows/dcex-project/internal/models"
)

var (
	ErrInvalidAPIKey  = errors.New("invalid API key")
	ErrInactiveAPIKey = errors.New("API key is inactive")
	ErrDatabaseError  = errors.New("database error")
)

// AuthService validates API keys against MongoDB. Each valid key resolves
// to the custodial user whose wallet the key vault will sign with.
type AuthService struct {
	client     *mongo.Client
	collection *mongo.Collection
	config     *config.MongoDBConfig
}

// NewAuthService connects to MongoDB and returns an authentication service.
func NewAuthService(cfg *config.MongoDBConfig) (*AuthService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)
	clientOptions.SetMaxPoolSize(cfg.MaxPoolSize)
	clientOptions.SetConnectTimeout(cfg.ConnectTimeout)
	clientOptions.SetServerSelectionTimeout(5 * time.Second)
	clientOptions.SetRetryReads(true)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &AuthService{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.APIKeyCollection),
		config:     cfg,
	}, nil
}

// ValidateAPIKey looks up a key and returns the record, including the
// owning user ID, when the key exists and is active.
func (s *AuthService) ValidateAPIKey(ctx context.Context, key string) (*models.APIKey, error) {
	var apiKey models.APIKey
	err := s.collection.FindOne(ctx, bson.M{"key": key}).Decode(&apiKey)
	if err == mongo.ErrNoDocuments {
		return nil, ErrInvalidAPIKey
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	if !apiKey.Active {
		return nil, ErrInactiveAPIKey
	}

	// Best-effort usage marker; a write failure must not block the request.
	go func() {
		updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		now := time.Now().UTC()
		_, _ = s.collection.UpdateOne(updateCtx,
			bson.M{"_id": apiKey.ID},
			bson.M{"$set": bson.M{"last_used": now}},
		)
	}()

	return &apiKey, nil
}

// Ping verifies the MongoDB connection, for readiness probes.
func (s *AuthService) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client.
func (s *AuthService) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
