// Package store is the local key/value store behind the transaction cache and
// the user preferences. Cache values are sealed at rest; preferences are not.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fd1az/electrum-core/internal/apperror"
	"github.com/fd1az/electrum-core/internal/config"
	"github.com/fd1az/electrum-core/internal/logger"
)

// Namespace partitions keys inside a backend.
type Namespace string

const (
	// NamespaceCache holds sealed query results.
	NamespaceCache Namespace = "cache"
	// NamespacePrefs holds plain user preferences.
	NamespacePrefs Namespace = "prefs"
)

// ErrNotFound is returned by backends for a missing key.
var ErrNotFound = errors.New("store: key not found")

// KV is one entry of a batch write.
type KV struct {
	Key   string
	Value []byte
}

// Backend is a namespaced byte store. PutBatch must be atomic.
type Backend interface {
	Get(ctx context.Context, ns Namespace, key string) ([]byte, error)
	PutBatch(ctx context.Context, ns Namespace, entries []KV) error
	Delete(ctx context.Context, ns Namespace, key string) error
	Close() error
}

// Store seals cache entries on top of a Backend.
type Store struct {
	backend Backend
	sealer  *Sealer
	log     logger.LoggerInterface
}

// Open opens the backend named in cfg.
func Open(cfg config.CacheConfig, log logger.LoggerInterface) (*Store, error) {
	var (
		backend Backend
		err     error
	)

	switch cfg.Backend {
	case "sqlite":
		backend, err = OpenSQLite(cfg.Path)
	case "memory":
		backend = NewMemory()
	default:
		backend, err = OpenBolt(cfg.Path)
	}
	if err != nil {
		return nil, apperror.New(apperror.CodeStoreOpenFailed,
			apperror.WithContext(filepath.Base(cfg.Path)),
			apperror.WithCause(err))
	}

	return New(backend, cfg.Passphrase, log)
}

// New wraps an already opened backend.
func New(backend Backend, passphrase string, log logger.LoggerInterface) (*Store, error) {
	sealer, err := NewSealer(passphrase)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return &Store{backend: backend, sealer: sealer, log: log}, nil
}

// Get returns the opened cache value for key. A missing key yields
// CodeCacheMiss; a value that fails to open yields CodeStoreSealFailed.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.backend.Get(ctx, NamespaceCache, key)
	if errors.Is(err, ErrNotFound) {
		return nil, apperror.New(apperror.CodeCacheMiss, apperror.WithContext(key))
	}
	if err != nil {
		return nil, apperror.New(apperror.CodeStoreReadFailed, apperror.WithContext(key), apperror.WithCause(err))
	}

	plain, err := s.sealer.Open(key, sealed)
	if err != nil {
		return nil, apperror.New(apperror.CodeStoreSealFailed,
			apperror.WithContext(key),
			apperror.WithKind(apperror.KindCache),
			apperror.WithCause(err))
	}
	return plain, nil
}

// PutBatch seals and writes all entries in one transaction.
func (s *Store) PutBatch(ctx context.Context, entries []KV) error {
	if len(entries) == 0 {
		return nil
	}

	sealed := make([]KV, len(entries))
	for i, e := range entries {
		v, err := s.sealer.Seal(e.Key, e.Value)
		if err != nil {
			return apperror.New(apperror.CodeStoreSealFailed, apperror.WithContext(e.Key), apperror.WithCause(err))
		}
		sealed[i] = KV{Key: e.Key, Value: v}
	}

	if err := s.backend.PutBatch(ctx, NamespaceCache, sealed); err != nil {
		return apperror.New(apperror.CodeStoreWriteFailed,
			apperror.WithContext(fmt.Sprintf("%d entries", len(entries))),
			apperror.WithCause(err))
	}

	s.log.Debug(ctx, "cache batch written", "entries", len(entries))
	return nil
}

// Pref returns a preference value, or "" when unset.
func (s *Store) Pref(ctx context.Context, key string) (string, error) {
	v, err := s.backend.Get(ctx, NamespacePrefs, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", apperror.New(apperror.CodeStoreReadFailed, apperror.WithContext(key), apperror.WithCause(err))
	}
	return string(v), nil
}

// SetPref stores a preference. An empty value removes it.
func (s *Store) SetPref(ctx context.Context, key, value string) error {
	var err error
	if value == "" {
		err = s.backend.Delete(ctx, NamespacePrefs, key)
	} else {
		err = s.backend.PutBatch(ctx, NamespacePrefs, []KV{{Key: key, Value: []byte(value)}})
	}
	if err != nil {
		return apperror.New(apperror.CodeStoreWriteFailed, apperror.WithContext(key), apperror.WithCause(err))
	}
	return nil
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
