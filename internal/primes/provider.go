package primes

import (
	"context"
	"errors"
	"os"
	"time"

	apperrors "github.com/agbru/pm1factor/internal/errors"
	"github.com/agbru/pm1factor/internal/logging"
)

// Source tells where a table returned by LoadOrGenerate came from.
type Source string

const (
	SourceCache     Source = "cache"
	SourceGenerated Source = "generated"
)

// LoadOrGenerate returns the first count primes, reading them from the cache
// at path when it holds enough valid entries and otherwise generating them
// and rewriting the cache. A cache that cannot be written is logged and does
// not fail the call; only generation failures are returned, as
// apperrors.PrimeTableError.
func LoadOrGenerate(ctx context.Context, path string, count int, logger logging.Logger) (Table, Source, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	if path != "" {
		table, err := Load(path, count)
		if err == nil {
			logger.Debug("prime table loaded from cache",
				logging.String("path", path), logging.Int("count", count))
			return table, SourceCache, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("prime cache not found", logging.String("path", path))
		} else {
			logger.Info("prime cache unusable, regenerating",
				logging.String("path", path), logging.Err(err))
		}
	}

	start := time.Now()
	table, err := Generate(ctx, count)
	if err != nil {
		if apperrors.IsContextError(err) {
			return nil, "", err
		}
		return nil, "", apperrors.PrimeTableError{Cause: err}
	}
	logger.Info("prime table generated",
		logging.Int("count", count),
		logging.Uint64("largest", uint64(table.Last())),
		logging.Duration("elapsed", time.Since(start)))

	if path != "" {
		if err := Save(path, table); err != nil {
			logger.Error("failed to save prime cache", err, logging.String("path", path))
		}
	}
	return table, SourceGenerated, nil
}
