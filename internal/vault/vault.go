package vault

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/google/uuid"
	"github.com/hiveflow/hiveflow/internal/core"
	"github.com/hiveflow/hiveflow/internal/domain"
	"github.com/hiveflow/hiveflow/internal/engine"
)

// CredentialRepo defines the credential persistence the vault needs,
// matching repository.CredentialRepository.
type CredentialRepo interface {
	FindByName(ownerID string, name string) (*domain.Credential, error)
	Save(c *domain.Credential) error
	Delete(ownerID string, name string) error
}

// Vault seals credential values with secretbox and hands decrypted values
// only to the resolution moment; nothing else ever sees plaintext.
type Vault struct {
	credentials CredentialRepo
	clock       core.Clock
	key         [32]byte
}

// New builds a vault from a 64 hex character key.
func New(credentials CredentialRepo, clock core.Clock, hexKey string) (*Vault, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("vault key is not valid hex: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("vault key must be 32 bytes, got %d", len(raw))
	}
	v := &Vault{credentials: credentials, clock: clock}
	copy(v.key[:], raw)
	return v, nil
}

// Store seals a plaintext secret under (owner, name).
func (v *Vault) Store(ctx context.Context, ownerID string, name string, value string) error {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(value), &nonce, &v.key)
	cred := &domain.Credential{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Name:       name,
		Ciphertext: base64.StdEncoding.EncodeToString(sealed),
		Created:    v.clock.Now().UTC(),
	}
	return v.credentials.Save(cred)
}

// Decrypt implements engine.Vault.
func (v *Vault) Decrypt(ctx context.Context, ownerID string, name string) (string, error) {
	cred, err := v.credentials.FindByName(ownerID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", &engine.CredentialNotFoundError{Name: name}
		}
		return "", fmt.Errorf("load credential %s: %w", name, err)
	}

	sealed, err := base64.StdEncoding.DecodeString(cred.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("credential %s has invalid ciphertext encoding: %w", name, err)
	}
	if len(sealed) < 24 {
		return "", fmt.Errorf("credential %s has truncated ciphertext", name)
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, &v.key)
	if !ok {
		return "", fmt.Errorf("credential %s cannot be opened with the configured key", name)
	}
	return string(plain), nil
}

// Delete removes a credential record.
func (v *Vault) Delete(ctx context.Context, ownerID string, name string) error {
	return v.credentials.Delete(ownerID, name)
}

var _ engine.Vault = (*Vault)(nil)
