package keyvault

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rajiknows/dcex-project/internal/network"
)

// WalletKey is one network's key pair. SecretKey is the fixed-length raw
// key material (see SecretKeyLength); it is stored as bytes, never as a
// delimited numeric string, and never travels through a generic JSON field.
type WalletKey struct {
	PublicKey string `bson:"public_key"`
	SecretKey []byte `bson:"secret_key"`
}

// Wallet is a per-user record holding one independently generated key pair
// per network. Created once at provisioning time; never mutated after.
type Wallet struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Mainnet   WalletKey          `bson:"mainnet"`
	Devnet    WalletKey          `bson:"devnet"`
	CreatedAt time.Time          `bson:"created_at"`
}

// KeyFor returns the key pair for the selected network.
func (w *Wallet) KeyFor(n network.Network) WalletKey {
	if n == network.NetworkDevnet {
		return w.Devnet
	}
	return w.Mainnet
}

// NewWallet provisions a wallet for a user. Each network's key pair is
// generated independently, not derived from the other.
func NewWallet(userID string) (*Wallet, error) {
	mainnet, err := newWalletKey()
	if err != nil {
		return nil, err
	}
	devnet, err := newWalletKey()
	if err != nil {
		return nil, err
	}

	return &Wallet{
		UserID:    userID,
		Mainnet:   mainnet,
		Devnet:    devnet,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func newWalletKey() (WalletKey, error) {
	priv, err := solana.NewRandomPrivateKey()
	if err != nil {
		return WalletKey{}, err
	}
	secret := make([]byte, len(priv))
	copy(secret, priv)

	return WalletKey{
		PublicKey: priv.PublicKey().String(),
		SecretKey: secret,
	}, nil
}
