// Command dbsetup initializes the MongoDB schema and provisions users: it
// creates the required indexes, mints an API key, and generates the per-user
// custodial wallets. Wallet secret keys go straight into the database and are
// never printed.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rajiknows/dcex-project/internal/config"
	"github.com/rajiknows/dcex-project/internal/keyvault"
	"github.com/rajiknows/dcex-project/internal/models"
)

func main() {
	var (
		initDB    = flag.Bool("init", false, "Create collections and indexes")
		provision = flag.Bool("provision", false, "Provision a user: API key plus wallets")
		userID    = flag.String("user", "", "User ID to provision (required with -provision)")
		keyName   = flag.String("key-name", "provisioned key", "Display name for the minted API key")
		airdrop   = flag.Bool("airdrop", false, "Request a devnet airdrop for the provisioned wallet")
	)
	flag.Parse()

	cfg := config.LoadConfig()

	if !*initDB && !*provision {
		fmt.Println("Database Setup Utility")
		fmt.Println("Usage:")
		fmt.Println("  -init              Create collections and indexes")
		fmt.Println("  -provision -user <id>  Mint an API key and generate wallets for a user")
		fmt.Println("  -key-name <name>   Display name for the minted API key")
		fmt.Println("  -airdrop           Request 2 SOL on devnet for the new wallet (best effort)")
		fmt.Println()
		fmt.Println("Environment Variables:")
		fmt.Println("  MONGODB_URI               MongoDB connection string")
		fmt.Println("  MONGODB_DATABASE          Database name")
		fmt.Println("  MONGODB_APIKEY_COLLECTION API key collection name")
		fmt.Println("  MONGODB_WALLET_COLLECTION Wallet collection name")
		os.Exit(1)
	}

	if *initDB {
		if err := initializeDatabase(cfg); err != nil {
			log.Fatalf("Database initialization failed: %v", err)
		}
	}

	if *provision {
		if *userID == "" {
			log.Fatal("-provision requires -user <id>")
		}
		if err := provisionUser(cfg, *userID, *keyName, *airdrop); err != nil {
			log.Fatalf("Provisioning failed: %v", err)
		}
	}

	log.Println("Database setup completed successfully!")
}

func initializeDatabase(cfg *config.Config) error {
	log.Println("Setting up database schema...")

	client, db, err := connect(&cfg.MongoDB)
	if err != nil {
		return err
	}
	defer disconnect(client)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	apiKeys := db.Collection(cfg.MongoDB.APIKeyCollection)
	for _, model := range []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "key", Value: 1}, {Key: "active", Value: 1}},
		},
	} {
		if _, err := apiKeys.Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("failed to create api key index: %w", err)
		}
	}

	walletRepo, err := keyvault.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("failed to connect wallet repository: %w", err)
	}
	defer walletRepo.Close()

	if err := walletRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create wallet indexes: %w", err)
	}

	log.Println("Database schema setup completed")
	return nil
}

func provisionUser(cfg *config.Config, userID, keyName string, airdrop bool) error {
	log.Printf("Provisioning user %q...", userID)

	client, db, err := connect(&cfg.MongoDB)
	if err != nil {
		return err
	}
	defer disconnect(client)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	apiKey, err := mintAPIKey()
	if err != nil {
		return fmt.Errorf("failed to mint api key: %w", err)
	}

	record := models.APIKey{
		Key:       apiKey,
		Name:      keyName,
		UserID:    userID,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := db.Collection(cfg.MongoDB.APIKeyCollection).InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert api key: %w", err)
	}

	wallet, err := keyvault.NewWallet(userID)
	if err != nil {
		return fmt.Errorf("failed to generate wallets: %w", err)
	}

	walletRepo, err := keyvault.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("failed to connect wallet repository: %w", err)
	}
	defer walletRepo.Close()

	if err := walletRepo.Insert(ctx, wallet); err != nil {
		return fmt.Errorf("failed to insert wallet: %w", err)
	}

	log.Printf("API key (store this, it is not shown again): %s", apiKey)
	log.Printf("Mainnet wallet: %s", wallet.Mainnet.PublicKey)
	log.Printf("Devnet wallet:  %s", wallet.Devnet.PublicKey)

	if airdrop {
		requestDevnetAirdrop(cfg, wallet.Devnet.PublicKey)
	}
	return nil
}

// requestDevnetAirdrop funds the fresh devnet wallet so swaps can be tried
// immediately. Failures are logged and ignored; the faucet is unreliable.
func requestDevnetAirdrop(cfg *config.Config, address string) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		log.Printf("Airdrop skipped, bad address: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := rpc.New(cfg.Networks.DevnetRPC)
	sig, err := client.RequestAirdrop(ctx, pubkey, 2*solana.LAMPORTS_PER_SOL, rpc.CommitmentConfirmed)
	if err != nil {
		log.Printf("Devnet airdrop failed (continuing): %v", err)
		return
	}
	log.Printf("Devnet airdrop requested: %s", sig)
}

func mintAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func connect(cfg *config.MongoDBConfig) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)
	clientOptions.SetMaxPoolSize(cfg.MaxPoolSize)
	clientOptions.SetConnectTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, client.Database(cfg.Database), nil
}

func disconnect(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = client.Disconnect(ctx)
}
