// Package numerator provides document auto-numbering service.
// Numbers are sequential per owner, per document type, per year.
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"gespro/internal/core/appctx"
)

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict uses UPSERT ... RETURNING for every number.
	// Guarantees sequential numbers without gaps.
	// Slower, suitable for receipts and accounting documents.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory.
	// Much faster, but may produce gaps if application restarts.
	// Suitable for internal codes (clients, products).
	StrategyCached
)

// Options configuration for number generation.
type Options struct {
	// Strategy to use for number generation
	Strategy Strategy
	// RangeSize is the number of IDs to allocate at once in Cached strategy.
	// Default is 50.
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{
		Strategy: StrategyStrict,
	}
}

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type cachedRange struct {
	current int64
	max     int64
}

// Service provides document numbering functionality.
type Service struct {
	querier Querier

	// cacheMu protects ranges map. Cache keys include the owner ID so a
	// shared Service instance never mixes sequences between accounts.
	cacheMu sync.Mutex
	ranges  map[string]*cachedRange
}

// New creates a new numerator service.
func New(querier Querier) *Service {
	return &Service{
		querier: querier,
		ranges:  make(map[string]*cachedRange),
	}
}

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "VTE", "CMD", "REC")
	Prefix string

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	// ResetPeriod: "year", "month", "never"
	ResetPeriod string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}

// GetNextNumber generates the next document number.
// Pattern: PREFIX-YEAR-XXXXX (e.g., VTE-2026-00001)
func (s *Service) GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	if opts == nil {
		opts = DefaultOptions()
	}

	key := s.buildKey(cfg, period)
	cacheKey := key
	if owner := appctx.GetUserID(ctx); owner != "" {
		cacheKey = owner + ":" + key
	}

	var num int64
	var err error

	switch opts.Strategy {
	case StrategyCached:
		num, err = s.getNextCached(ctx, key, cacheKey, opts)
	case StrategyStrict:
		fallthrough
	default:
		num, err = s.getNextStrict(ctx, key)
	}

	if err != nil {
		return "", err
	}

	return s.formatNumber(cfg, period, num), nil
}

// getNextStrict fetches the next number directly from DB using UPSERT + RETURNING.
func (s *Service) getNextStrict(ctx context.Context, key string) (int64, error) {
	var num int64
	err := s.querier.QueryRow(ctx, `
        INSERT INTO sys_sequences (owner_id, sequence_key, current_val)
        VALUES ($1, $2, 1)
        ON CONFLICT (owner_id, sequence_key) DO UPDATE SET current_val = sys_sequences.current_val + 1
        RETURNING current_val`,
		appctx.GetUserID(ctx), key,
	).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("next number for %s: %w", key, err)
	}
	return num, nil
}

// getNextCached allocates a range of numbers and serves from memory.
func (s *Service) getNextCached(ctx context.Context, key, cacheKey string, opts *Options) (int64, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if r, ok := s.ranges[cacheKey]; ok && r.current < r.max {
		r.current++
		return r.current, nil
	}

	rangeSize := opts.RangeSize
	if rangeSize <= 0 {
		rangeSize = 50
	}

	var max int64
	err := s.querier.QueryRow(ctx, `
        INSERT INTO sys_sequences (owner_id, sequence_key, current_val)
        VALUES ($1, $2, $3)
        ON CONFLICT (owner_id, sequence_key) DO UPDATE SET current_val = sys_sequences.current_val + $3
        RETURNING current_val`,
		appctx.GetUserID(ctx), key, rangeSize,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("allocate range for %s: %w", key, err)
	}

	r := &cachedRange{current: max - rangeSize + 1, max: max}
	s.ranges[cacheKey] = r
	return r.current, nil
}

// buildKey produces the sequence key honoring the reset period.
func (s *Service) buildKey(cfg Config, period time.Time) string {
	switch cfg.ResetPeriod {
	case "month":
		return fmt.Sprintf("%s_%d_%02d", cfg.Prefix, period.Year(), period.Month())
	case "never":
		return cfg.Prefix
	default: // year
		return fmt.Sprintf("%s_%d", cfg.Prefix, period.Year())
	}
}

// formatNumber renders the final number string.
func (s *Service) formatNumber(cfg Config, period time.Time, num int64) string {
	pad := cfg.PadWidth
	if pad <= 0 {
		pad = 5
	}
	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%d-%0*d", cfg.Prefix, period.Year(), pad, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, pad, num)
}
