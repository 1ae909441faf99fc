// Package vault seals per-account secrets with a single process-wide key.
//
// Ciphertext is URL-safe base64 of nonce||sealed, where sealed is the
// XChaCha20-Poly1305 output. Changing the key makes every stored
// ciphertext unreadable; there is no rotation support.
package vault

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/SscSPs/wallet_ledger/internal/apperrors"
	"github.com/SscSPs/wallet_ledger/internal/core/ports/services"
	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the raw key length in bytes.
const KeySize = chacha20poly1305.KeySize

var errNoKey = errors.New("vault has no key")

var encoding = base64.URLEncoding

// Vault implements services.CredentialVault.
// The zero value is usable but refuses to encrypt or decrypt.
type Vault struct {
	key []byte
}

var _ services.CredentialVault = (*Vault)(nil)

// New builds a vault from a base64-encoded 32-byte key.
// Standard and URL-safe alphabets are both accepted.
func New(encodedKey string) (*Vault, error) {
	encodedKey = strings.TrimSpace(encodedKey)
	if encodedKey == "" {
		return nil, fmt.Errorf("%w: encryption key is not configured", apperrors.ErrEncryption)
	}
	key, err := decodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: encryption key is not valid base64: %v", apperrors.ErrEncryption, err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: encryption key must be %d bytes, got %d", apperrors.ErrEncryption, KeySize, len(key))
	}
	return &Vault{key: key}, nil
}

func decodeKey(s string) ([]byte, error) {
	if key, err := base64.URLEncoding.DecodeString(s); err == nil {
		return key, nil
	}
	return base64.StdEncoding.DecodeString(s)
}

// GenerateKey returns a fresh random key in the encoding New expects.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return encoding.EncodeToString(key), nil
}

// Encrypt seals plaintext with a fresh random nonce, so equal inputs
// produce different ciphertexts.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if v == nil || len(v.key) == 0 {
		return "", fmt.Errorf("%w: %v", apperrors.ErrEncryption, errNoKey)
	}
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrEncryption, err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%w: failed to generate nonce: %v", apperrors.ErrEncryption, err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return encoding.EncodeToString(sealed), nil
}

// Decrypt opens ciphertext produced by Encrypt under the same key.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	if v == nil || len(v.key) == 0 {
		return "", fmt.Errorf("%w: %v", apperrors.ErrDecryption, errNoKey)
	}
	raw, err := encoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: malformed ciphertext: %v", apperrors.ErrDecryption, err)
	}

	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrDecryption, err)
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", apperrors.ErrDecryption)
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrDecryption, err)
	}
	return string(plaintext), nil
}
