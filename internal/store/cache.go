// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Get returns the cached response for key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var response string
	err := s.db.QueryRowContext(ctx, `SELECT response FROM llm_cache WHERE key = ?`, key).Scan(&response)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading cache: %w", err)
	}
	return response, true, nil
}

// Put stores a response under key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key, provider, model, response string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO llm_cache (key, provider, model, response, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET response = excluded.response, created_at = excluded.created_at`,
		key, provider, model, response, s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// ClearCache deletes every cached response and returns how many were removed.
func (s *Store) ClearCache(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM llm_cache`)
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	return res.RowsAffected()
}
