package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolscope/internal/model"
	"poolscope/internal/storage"
)

// Store provides Postgres persistence for normalized records and store
// snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertPools inserts or updates pool identity records.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				pool_address, token0, token1, fee, tick_spacing, creation_trx, created_block, log_ordinal, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
			ON CONFLICT (pool_address)
			DO UPDATE SET
				token0 = EXCLUDED.token0,
				token1 = EXCLUDED.token1,
				fee = EXCLUDED.fee,
				tick_spacing = EXCLUDED.tick_spacing,
				creation_trx = EXCLUDED.creation_trx,
				created_block = LEAST(pools.created_block, EXCLUDED.created_block),
				updated_at = now()
		`,
			pool.Address,
			pool.Token0Address,
			pool.Token1Address,
			int64(pool.Fee),
			pool.TickSpacing,
			pool.CreationTransactionID,
			int64(pool.BlockNum),
			int64(pool.LogOrdinal),
		)
	}
	return s.send(ctx, batch, len(pools))
}

// UpsertTokens inserts or updates token metadata records.
func (s *Store) UpsertTokens(ctx context.Context, tokens []model.Token) error {
	if len(tokens) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, token := range tokens {
		batch.Queue(`
			INSERT INTO tokens (
				token_address, name, symbol, decimals, created_at, updated_at
			) VALUES ($1, $2, $3, $4, now(), now())
			ON CONFLICT (token_address)
			DO UPDATE SET
				name = EXCLUDED.name,
				symbol = EXCLUDED.symbol,
				decimals = EXCLUDED.decimals,
				updated_at = now()
		`,
			token.Address,
			token.Name,
			token.Symbol,
			int64(token.Decimals),
		)
	}
	return s.send(ctx, batch, len(tokens))
}

// UpsertSnapshot upserts exported store values, keyed by store name and key.
func (s *Store) UpsertSnapshot(ctx context.Context, entries []storage.SnapshotEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, entry := range entries {
		batch.Queue(`
			INSERT INTO store_values (
				store_name, key, ordinal, value, created_at, updated_at
			) VALUES ($1, $2, $3, $4, now(), now())
			ON CONFLICT (store_name, key)
			DO UPDATE SET
				ordinal = EXCLUDED.ordinal,
				value = EXCLUDED.value,
				updated_at = now()
		`,
			entry.Store,
			entry.Key,
			int64(entry.Ordinal),
			entry.Value,
		)
	}
	return s.send(ctx, batch, len(entries))
}

func (s *Store) send(ctx context.Context, batch *pgx.Batch, queued int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < queued; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
