// Package txcache keeps transaction lookups in the encrypted local store.
package txcache

import (
	"context"
	"encoding/json"

	"github.com/fd1az/electrum-core/business/electrum/domain"
	"github.com/fd1az/electrum-core/internal/apperror"
	"github.com/fd1az/electrum-core/internal/logger"
	"github.com/fd1az/electrum-core/internal/store"
)

// KV is the subset of the store used by the cache.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	PutBatch(ctx context.Context, entries []store.KV) error
}

// Cache implements app.TxCache.
type Cache struct {
	kv  KV
	log logger.LoggerInterface
}

// New creates a new Cache.
func New(kv KV, log logger.LoggerInterface) *Cache {
	return &Cache{kv: kv, log: log}
}

// Key returns the cache key for a lookup.
func Key(txid string, verbose bool) string {
	if verbose {
		return txid + "_verbose"
	}
	return txid + "_non_verbose"
}

// Lookup returns cached results. Entries that cannot be read or parsed
// count as misses.
func (c *Cache) Lookup(ctx context.Context, txids []string, verbose bool) (map[string]domain.TxResult, []string) {
	hits := make(map[string]domain.TxResult, len(txids))
	var misses []string

	for _, id := range txids {
		r, err := c.get(ctx, id, verbose)
		if err != nil {
			if apperror.GetCode(err) != apperror.CodeCacheMiss {
				c.log.Warn(ctx, "cache entry unusable", "txid", id, "error", err)
			}
			misses = append(misses, id)
			continue
		}
		hits[id] = r
	}
	return hits, misses
}

func (c *Cache) get(ctx context.Context, txid string, verbose bool) (domain.TxResult, error) {
	b, err := c.kv.Get(ctx, Key(txid, verbose))
	if err != nil {
		return domain.TxResult{}, err
	}

	if verbose {
		var tx domain.Transaction
		if err := json.Unmarshal(b, &tx); err != nil {
			return domain.TxResult{}, apperror.New(apperror.CodeCacheCorrupt, apperror.WithCause(err))
		}
		return domain.TxResult{Verbose: &tx}, nil
	}

	var raw string
	if err := json.Unmarshal(b, &raw); err != nil || raw == "" {
		return domain.TxResult{}, apperror.New(apperror.CodeCacheCorrupt, apperror.WithCause(err))
	}
	return domain.TxResult{Raw: raw}, nil
}

// StoreVerbose caches decoded transactions with enough confirmations to be
// final. Shallower ones are skipped.
func (c *Cache) StoreVerbose(ctx context.Context, txs map[string]*domain.Transaction) error {
	entries := make([]store.KV, 0, len(txs))
	for id, tx := range txs {
		if tx == nil || tx.Confirmations < domain.MinCacheConfirmations {
			continue
		}
		b, err := json.Marshal(tx)
		if err != nil {
			return apperror.Internal(apperror.CodeStoreWriteFailed, id, err)
		}
		entries = append(entries, store.KV{Key: Key(id, true), Value: b})
	}
	return c.put(ctx, entries)
}

// StoreRaw caches raw transaction hex.
func (c *Cache) StoreRaw(ctx context.Context, txs map[string]string) error {
	entries := make([]store.KV, 0, len(txs))
	for id, raw := range txs {
		b, err := json.Marshal(raw)
		if err != nil {
			return apperror.Internal(apperror.CodeStoreWriteFailed, id, err)
		}
		entries = append(entries, store.KV{Key: Key(id, false), Value: b})
	}
	return c.put(ctx, entries)
}

func (c *Cache) put(ctx context.Context, entries []store.KV) error {
	if len(entries) == 0 {
		return nil
	}
	if err := c.kv.PutBatch(ctx, entries); err != nil {
		return err
	}
	c.log.Debug(ctx, "transactions cached", "count", len(entries))
	return nil
}
