package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
)

// encPrefix marks a config value as encrypted. Values without it are
// treated as plaintext so hand-edited config files keep working.
const encPrefix = "enc:"

// credentialKeySize is the AES-256 key length.
const credentialKeySize = 32

// CredentialCipher encrypts credentials at rest with AES-256-GCM. The
// key is a machine-local random secret, created on first use next to
// the config file, so a synced or backed-up config file alone does not
// expose stored passwords.
type CredentialCipher struct {
	aead cipher.AEAD
}

// NewCredentialCipher loads the key from keyPath, generating and
// persisting a fresh one if the file does not exist.
func NewCredentialCipher(keyPath string) (*CredentialCipher, error) {
	key, err := loadOrCreateKey(keyPath)
	if err != nil {
		return nil, err
	}
	return NewCredentialCipherWithKey(key)
}

// NewCredentialCipherWithKey builds a cipher around an explicit key.
func NewCredentialCipherWithKey(key []byte) (*CredentialCipher, error) {
	if len(key) != credentialKeySize {
		return nil, fmt.Errorf("%w: credential key must be %d bytes", domain.ErrInvalidInput, credentialKeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}
	return &CredentialCipher{aead: aead}, nil
}

// Encrypt seals a plaintext credential into the prefixed, base64
// stored form. Empty input stays empty.
func (c *CredentialCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return encPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a stored credential. Values without the encrypted
// prefix pass through unchanged.
func (c *CredentialCipher) Decrypt(stored string) (string, error) {
	if !strings.HasPrefix(stored, encPrefix) {
		return stored, nil
	}
	sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, encPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: malformed credential: %v", domain.ErrInvalidInput, err)
	}
	if len(sealed) < c.aead.NonceSize() {
		return "", fmt.Errorf("%w: credential too short", domain.ErrInvalidInput)
	}
	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: credential does not decrypt with this machine's key", domain.ErrInvalidInput)
	}
	return string(plaintext), nil
}

func loadOrCreateKey(keyPath string) ([]byte, error) {
	key, err := os.ReadFile(keyPath)
	if err == nil {
		if len(key) != credentialKeySize {
			return nil, fmt.Errorf("%w: key file %s is corrupt", domain.ErrStorage, keyPath)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	key = make([]byte, credentialKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(keyPath), 0o700); err != nil {
		return nil, fmt.Errorf("creating key directory: %w", err)
	}
	if err := os.WriteFile(keyPath, key, 0o600); err != nil {
		return nil, fmt.Errorf("writing key file: %w", err)
	}
	return key, nil
}
