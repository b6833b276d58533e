package keyvault

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rajiknows/dcex-project/internal/config"
)

// MongoRepository reads wallet records from MongoDB.
type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	config     *config.MongoDBConfig
}

// NewMongoRepository connects to MongoDB and returns a wallet repository.
func NewMongoRepository(cfg *config.MongoDBConfig) (*MongoRepository, error) {
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

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoRepository{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.WalletCollection),
		config:     cfg,
	}, nil
}

// FindByUserID implements Repository.
func (r *MongoRepository) FindByUserID(ctx context.Context, userID string) (*Wallet, error) {
	var wallet Wallet
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&wallet)
	if err == mongo.ErrNoDocuments {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("wallet lookup failed: %w", err)
	}
	return &wallet, nil
}

// Insert stores a freshly provisioned wallet. Used by the provisioning tool,
// never by the serving path.
func (r *MongoRepository) Insert(ctx context.Context, wallet *Wallet) error {
	_, err := r.collection.InsertOne(ctx, wallet)
	if err != nil {
		return fmt.Errorf("wallet insert failed: %w", err)
	}
	return nil
}

// EnsureIndexes creates the unique user_id index backing the one-wallet-per-
// user invariant.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Close disconnects the underlying client.
func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}
