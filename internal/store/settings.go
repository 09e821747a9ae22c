package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/rezonia/einvoice/internal/model"
)

// SettingsSource loads per-owner configuration
type SettingsSource interface {
	Load(ctx context.Context, ownerID string) (model.ComplianceConfiguration, error)
}

// SQLSettings stores owner configurations as JSON rows
type SQLSettings struct {
	db      *sql.DB
	dialect Dialect
	clock   func() time.Time
}

// NewSQLSettings constructs a SQL settings store. Call Migrate before first use.
func NewSQLSettings(db *sql.DB, dialect Dialect) *SQLSettings {
	return &SQLSettings{db: db, dialect: dialect, clock: time.Now}
}

// Migrate creates the tables if they are missing
func (s *SQLSettings) Migrate(ctx context.Context) error {
	return migrate(ctx, s.db, s.dialect)
}

// Load returns the owner's configuration, or the default when none is stored
func (s *SQLSettings) Load(ctx context.Context, ownerID string) (model.ComplianceConfiguration, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT config FROM compliance_settings WHERE owner_id = ?`), ownerID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultConfiguration(ownerID), nil
	}
	if err != nil {
		return model.ComplianceConfiguration{}, fmt.Errorf("load settings: %w", err)
	}
	return decodeConfig(ownerID, []byte(raw))
}

// Put inserts or replaces the configuration under cfg.OwnerID
func (s *SQLSettings) Put(ctx context.Context, cfg model.ComplianceConfiguration) error {
	if cfg.OwnerID == "" {
		return model.MissingField("owner_id")
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO compliance_settings (owner_id, config, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (owner_id) DO UPDATE SET
			config = EXCLUDED.config,
			updated_at = EXCLUDED.updated_at`),
		cfg.OwnerID, string(raw), s.clock().UTC(),
	)
	if err != nil {
		return fmt.Errorf("store settings: %w", err)
	}
	return nil
}

const settingsKeyPrefix = "einvoice:settings:"

// RedisSettings stores owner configurations as JSON values in redis
type RedisSettings struct {
	client *redis.Client
}

// NewRedisSettings constructs a redis-backed settings store
func NewRedisSettings(client *redis.Client) *RedisSettings {
	return &RedisSettings{client: client}
}

// Load returns the owner's configuration, or the default when none is stored
func (s *RedisSettings) Load(ctx context.Context, ownerID string) (model.ComplianceConfiguration, error) {
	raw, err := s.client.Get(ctx, settingsKeyPrefix+ownerID).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.DefaultConfiguration(ownerID), nil
	}
	if err != nil {
		return model.ComplianceConfiguration{}, fmt.Errorf("load settings: %w", err)
	}
	return decodeConfig(ownerID, raw)
}

// Put stores the configuration without expiry
func (s *RedisSettings) Put(ctx context.Context, cfg model.ComplianceConfiguration) error {
	if cfg.OwnerID == "" {
		return model.MissingField("owner_id")
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return s.client.Set(ctx, settingsKeyPrefix+cfg.OwnerID, raw, 0).Err()
}

func decodeConfig(ownerID string, raw []byte) (model.ComplianceConfiguration, error) {
	var cfg model.ComplianceConfiguration
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return model.ComplianceConfiguration{}, fmt.Errorf("decode settings for %s: %w", ownerID, err)
	}
	cfg.OwnerID = ownerID
	return cfg, nil
}

// CachedSettings keeps loaded configurations for a TTL in front of a
// slower source. Load errors are not cached.
type CachedSettings struct {
	source SettingsSource
	cache  *cache.Cache
}

// NewCachedSettings wraps source with a cache of the given TTL
func NewCachedSettings(source SettingsSource, ttl time.Duration) *CachedSettings {
	return &CachedSettings{
		source: source,
		cache:  cache.New(ttl, 2*ttl),
	}
}

// Load returns the cached configuration or loads it from the source
func (c *CachedSettings) Load(ctx context.Context, ownerID string) (model.ComplianceConfiguration, error) {
	if v, ok := c.cache.Get(ownerID); ok {
		return v.(model.ComplianceConfiguration), nil
	}
	cfg, err := c.source.Load(ctx, ownerID)
	if err != nil {
		return model.ComplianceConfiguration{}, err
	}
	c.cache.SetDefault(ownerID, cfg)
	return cfg, nil
}

// Invalidate drops the cached configuration of an owner
func (c *CachedSettings) Invalidate(ownerID string) {
	c.cache.Delete(ownerID)
}
