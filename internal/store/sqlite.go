package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"
)

type cacheRow struct {
	bun.BaseModel `bun:"table:cache"`

	Key   string `bun:"cache_key,pk"`
	Value []byte `bun:"cache_value,notnull"`
}

type prefRow struct {
	bun.BaseModel `bun:"table:prefs"`

	Key   string `bun:"pref_key,pk"`
	Value []byte `bun:"pref_value,notnull"`
}

// SQLite is a bun/modernc-sqlite Backend with one table per namespace.
type SQLite struct {
	db *bun.DB
}

// OpenSQLite opens or creates the database at dsn (a path or ":memory:").
func OpenSQLite(dsn string) (*SQLite, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	// A single connection keeps ":memory:" databases coherent and serializes writers.
	sqlDB.SetMaxOpenConns(1)

	db := bun.NewDB(sqlDB, sqlitedialect.New())

	ctx := context.Background()
	for _, model := range []any{(*cacheRow)(nil), (*prefRow)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("create table: %w", err)
		}
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, ns Namespace, key string) ([]byte, error) {
	switch ns {
	case NamespacePrefs:
		row := new(prefRow)
		if err := s.db.NewSelect().Model(row).Where("pref_key = ?", key).Scan(ctx); err != nil {
			return nil, notFound(err)
		}
		return row.Value, nil
	default:
		row := new(cacheRow)
		if err := s.db.NewSelect().Model(row).Where("cache_key = ?", key).Scan(ctx); err != nil {
			return nil, notFound(err)
		}
		return row.Value, nil
	}
}

func (s *SQLite) PutBatch(ctx context.Context, ns Namespace, entries []KV) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, e := range entries {
			var q *bun.InsertQuery
			if ns == NamespacePrefs {
				q = tx.NewInsert().Model(&prefRow{Key: e.Key, Value: e.Value}).
					On("CONFLICT (pref_key) DO UPDATE").
					Set("pref_value = EXCLUDED.pref_value")
			} else {
				q = tx.NewInsert().Model(&cacheRow{Key: e.Key, Value: e.Value}).
					On("CONFLICT (cache_key) DO UPDATE").
					Set("cache_value = EXCLUDED.cache_value")
			}
			if _, err := q.Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLite) Delete(ctx context.Context, ns Namespace, key string) error {
	var err error
	if ns == NamespacePrefs {
		_, err = s.db.NewDelete().Model((*prefRow)(nil)).Where("pref_key = ?", key).Exec(ctx)
	} else {
		_, err = s.db.NewDelete().Model((*cacheRow)(nil)).Where("cache_key = ?", key).Exec(ctx)
	}
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
