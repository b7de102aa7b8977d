package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// sealPrefix marks values produced by Sealer so unsealed legacy values can be told apart.
// '$' never starts a token, a JSON profile or a URL, the values stored in plain form.
const sealPrefix = "$tcs1$"

var (
	// ErrInvalidKey is returned when the seal key is empty or cannot be loaded.
	ErrInvalidKey = errors.New("invalid key")
	// ErrNotSealed is returned by Open for values without the seal prefix.
	ErrNotSealed = errors.New("security: value is not sealed")
	// ErrCorrupt is returned when a sealed value fails to decode or authenticate.
	ErrCorrupt = errors.New("security: sealed value is corrupt")
)

// LoadSecret returns the key material in s. A "file:" prefix reads the material from that path;
// anything else is used inline.
func LoadSecret(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKey
	}
	if path, ok := strings.CutPrefix(s, "file:"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		b = []byte(strings.TrimSpace(string(b)))
		if len(b) == 0 {
			return nil, ErrInvalidKey
		}
		return b, nil
	}
	return []byte(s), nil
}

// Sealer encrypts short values at rest with XChaCha20-Poly1305.
// The AEAD key is derived from the secret with HKDF-SHA256.
type Sealer struct {
	key []byte
}

// NewSealer derives a Sealer from secret. secret may be inline or "file:<path>" (see LoadSecret).
func NewSealer(secret string) (*Sealer, error) {
	material, err := LoadSecret(secret)
	if err != nil {
		return nil, err
	}
	h := hkdf.New(sha256.New, material, nil, []byte("traccar-client-storage"))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, fmt.Errorf("security: derive key: %w", err)
	}
	return &Sealer{key: key}, nil
}

// Seal encrypts plaintext. additional binds the ciphertext to a context (e.g. the storage key)
// so a value cannot be moved between keys.
func (s *Sealer) Seal(plaintext, additional string) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := aead.Seal(nonce, nonce, []byte(plaintext), []byte(additional))
	return sealPrefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal with the same additional data.
func (s *Sealer) Open(sealed, additional string) (string, error) {
	encoded, ok := strings.CutPrefix(sealed, sealPrefix)
	if !ok {
		return "", ErrNotSealed
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrCorrupt
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", ErrCorrupt
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, []byte(additional))
	if err != nil {
		return "", ErrCorrupt
	}
	return string(plain), nil
}
