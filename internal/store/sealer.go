package store

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var errShortCiphertext = errors.New("sealed value too short")

// Sealer encrypts values with XChaCha20-Poly1305. The entry key is bound as
// associated data so values cannot be swapped between keys.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the AEAD key from passphrase with HKDF-SHA256.
func NewSealer(passphrase string) (*Sealer, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, []byte(passphrase), []byte("electrum-core/cache"), []byte("cache-v1"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive cache key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cache cipher: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal returns nonce||ciphertext.
func (s *Sealer) Seal(key string, plain []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plain, []byte(key)), nil
}

// Open reverses Seal.
func (s *Sealer) Open(key string, sealed []byte) ([]byte, error) {
	ns := s.aead.NonceSize()
	if len(sealed) < ns+s.aead.Overhead() {
		return nil, errShortCiphertext
	}
	return s.aead.Open(nil, sealed[:ns], sealed[ns:], []byte(key))
}
