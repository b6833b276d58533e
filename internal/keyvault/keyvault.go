// Package keyvault resolves custodial users to their per-network Solana key
// pairs. Wallet records are created once at provisioning time and read-only
// afterwards; secret key material stays inside the process and is never
// logged or serialized into any response payload.
package keyvault

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rajiknows/dcex-project/internal/network"
)

var (
	// ErrWalletNotFound means no wallet record exists for the user.
	ErrWalletNotFound = errors.New("wallet not found for user")
	// ErrKeyMaterialMissing means the wallet exists but the selected
	// network's key pair was never provisioned.
	ErrKeyMaterialMissing = errors.New("key material missing for network")
)

// SecretKeyLength is the size of a stored ed25519 key pair: 32-byte seed
// followed by the 32-byte public key.
const SecretKeyLength = 64

// Repository is the persistence collaborator supplying wallet records.
type Repository interface {
	// FindByUserID returns the user's wallet or ErrWalletNotFound.
	FindByUserID(ctx context.Context, userID string) (*Wallet, error)
}

// Keypair is what the transaction executor needs to sign: the public key
// and the raw secret key material. Secret is a private copy owned by the
// caller, which must discard it as soon as signing completes.
type Keypair struct {
	PublicKey solana.PublicKey
	Secret    []byte
}

// Zero overwrites the secret key material in place.
func (k *Keypair) Zero() {
	for i := range k.Secret {
		k.Secret[i] = 0
	}
}

// Vault resolves (user, network) to a key pair. Read-only; no side effects.
type Vault struct {
	repo Repository
}

// New creates a Vault over the given wallet repository.
func New(repo Repository) *Vault {
	return &Vault{repo: repo}
}

// Resolve looks up the user's wallet and returns the key pair for the
// selected network. Fails with ErrWalletNotFound or ErrKeyMaterialMissing;
// anything else is a repository error.
func (v *Vault) Resolve(ctx context.Context, userID string, net network.Network) (Keypair, error) {
	wallet, err := v.repo.FindByUserID(ctx, userID)
	if err != nil {
		return Keypair{}, err
	}

	key := wallet.KeyFor(net)
	if key.PublicKey == "" || len(key.SecretKey) == 0 {
		return Keypair{}, fmt.Errorf("%w: %s", ErrKeyMaterialMissing, net)
	}

	pub, err := solana.PublicKeyFromBase58(key.PublicKey)
	if err != nil {
		return Keypair{}, fmt.Errorf("%w: stored public key unparsable: %v", ErrKeyMaterialMissing, err)
	}

	secret := make([]byte, len(key.SecretKey))
	copy(secret, key.SecretKey)

	return Keypair{PublicKey: pub, Secret: secret}, nil
}
