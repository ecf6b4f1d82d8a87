// Package credentials keeps the ledger API key on disk, encrypted with a key
// derived from a local passphrase.
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/argon2"
	"invoicedesk/internal/logger"
)

const (
	fileVersion = 1

	saltSize = 16
	keySize  = 32

	// Argon2id parameters.
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var (
	// ErrEncryptionUnavailable is returned when no passphrase is configured.
	ErrEncryptionUnavailable = errors.New("encryption not available: set INVOICEDESK_STORE_PASSPHRASE")

	// ErrDecrypt is returned when the stored secret cannot be decrypted,
	// usually because the passphrase changed.
	ErrDecrypt = errors.New("stored credentials could not be decrypted")

	// ErrEmptySecret is returned when saving an empty secret.
	ErrEmptySecret = errors.New("secret is empty")
)

// Store is an encrypted single-secret file store.
type Store struct {
	path       string
	passphrase string
	log        zerolog.Logger
}

// sealedFile is the on-disk format.
type sealedFile struct {
	Version    int       `json:"version"`
	Salt       []byte    `json:"salt"`
	Nonce      []byte    `json:"nonce"`
	Ciphertext []byte    `json:"ciphertext"`
	SavedAt    time.Time `json:"saved_at"`
}

// NewStore creates a store at path. An empty passphrase leaves the store
// unable to save or load secrets.
func NewStore(path, passphrase string) *Store {
	return &Store{
		path:       path,
		passphrase: passphrase,
		log:        logger.WithComponent("credentials"),
	}
}

// DefaultPath returns the store location under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "invoicedesk", "credentials.json"), nil
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Available reports whether secrets can be encrypted.
func (s *Store) Available() bool {
	return s.passphrase != ""
}

// Save encrypts secret and replaces the stored one.
func (s *Store) Save(secret string) error {
	const op = "Save"

	if !s.Available() {
		return ErrEncryptionUnavailable
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return ErrEmptySecret
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("%s: failed to generate salt: %w", op, err)
	}

	aead, err := s.aead(salt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("%s: failed to generate nonce: %w", op, err)
	}

	data, err := json.Marshal(sealedFile{
		Version:    fileVersion,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, []byte(secret), nil),
		SavedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%s: failed to encode credentials: %w", op, err)
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().Str("path", s.path).Msg("Stored API key")
	return nil
}

// Load returns the stored secret. ok is false when nothing is stored.
func (s *Store) Load() (secret string, ok bool, err error) {
	const op = "Load"

	if !s.Available() {
		return "", false, ErrEncryptionUnavailable
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%s: failed to read credentials: %w", op, err)
	}

	var sealed sealedFile
	if err := json.Unmarshal(data, &sealed); err != nil {
		return "", false, fmt.Errorf("%s: malformed credentials file: %w", op, err)
	}
	if sealed.Version != fileVersion {
		return "", false, fmt.Errorf("%s: unsupported credentials file version %d", op, sealed.Version)
	}

	aead, err := s.aead(sealed.Salt)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	if len(sealed.Nonce) != aead.NonceSize() {
		return "", false, fmt.Errorf("%s: %w", op, ErrDecrypt)
	}

	plaintext, err := aead.Open(nil, sealed.Nonce, sealed.Ciphertext, nil)
	if err != nil {
		s.log.Warn().Str("path", s.path).Msg("Failed to decrypt stored API key")
		return "", false, fmt.Errorf("%s: %w", op, ErrDecrypt)
	}

	return string(plaintext), true, nil
}

// Clear removes the stored secret. Clearing an empty store is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("Clear: failed to remove credentials: %w", err)
	}
	s.log.Info().Str("path", s.path).Msg("Cleared stored API key")
	return nil
}

func (s *Store) aead(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(s.passphrase), salt, argonTime, argonMemory, argonThreads, keySize)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to restrict credentials permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace credentials: %w", err)
	}
	return nil
}

// MaskKey shows the first 8 and last 4 characters of key.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 12 {
		return strings.Repeat("*", len(key))
	}
	return key[:8] + "..." + key[len(key)-4:]
}
