package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/solpass/solpass/internal/storage"
)

const (
	keySession      = "session"
	keyLastActivity = "last_activity"
	keyPreferences  = "preferences"
)

// StoreConfig holds configuration for the session store
type StoreConfig struct {
	// Prefix namespaces every key in the shared key-value space.
	Prefix string

	// DefaultExpiry applies when CreateSession or ExtendSession is called
	// without an explicit duration.
	DefaultExpiry time.Duration
}

// DefaultStoreConfig returns default configuration
func DefaultStoreConfig() *StoreConfig {
	return &StoreConfig{
		Prefix:        "solpass_wallet_",
		DefaultExpiry: DefaultExpiry,
	}
}

// Store is the single writer of session and preference data. It holds no state
// between calls beyond its backend handle: every operation reads storage fresh.
// Expiry is lazy, enforced on read, never by a background sweep.
type Store struct {
	kv     storage.Store
	logger *slog.Logger
	config StoreConfig

	now func() time.Time
}

// NewStore creates a session store over the given key-value backend.
func NewStore(kv storage.Store, logger *slog.Logger, config *StoreConfig) *Store {
	if config == nil {
		config = DefaultStoreConfig()
	}

	return &Store{
		kv:     kv,
		logger: logger,
		config: *config,
		now:    time.Now,
	}
}

func (s *Store) key(name string) string {
	return s.config.Prefix + name
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// CreateSession writes a fresh authenticated session for walletAddress,
// unconditionally replacing any prior record. A non-positive expiry falls back
// to the configured default. Returns nil only when the storage write fails.
func (s *Store) CreateSession(ctx context.Context, walletAddress string, expiry time.Duration) *Record {
	if expiry <= 0 {
		expiry = s.config.DefaultExpiry
	}

	now := s.nowMillis()
	record := Record{
		WalletAddress:   walletAddress,
		CreatedAt:       now,
		ExpiresAt:       now + expiry.Milliseconds(),
		LastActivity:    now,
		IsAuthenticated: true,
	}

	if !s.writeRecord(ctx, record) {
		s.logger.Warn("failed to persist new session", "wallet", walletAddress)
		return nil
	}

	s.logger.Debug("session created", "wallet", walletAddress, "expires_at", record.ExpiresAt)
	return &record
}

// GetSession returns the stored session, or nil when none exists. A record past
// its expiry is deleted on the spot and reported as absent; an unparseable
// record is treated the same way.
func (s *Store) GetSession(ctx context.Context) *Record {
	raw, ok := s.kv.Get(ctx, s.key(keySession))
	if !ok {
		return nil
	}

	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		s.logger.Warn("stored session is corrupt, discarding", "error", err)
		s.removeRecord(ctx)
		return nil
	}

	if record.ExpiresAt <= s.nowMillis() {
		s.logger.Debug("session expired, evicting", "wallet", record.WalletAddress)
		s.removeRecord(ctx)
		return nil
	}

	return &record
}

// HasValidSession reports whether an unexpired authenticated session exists.
func (s *Store) HasValidSession(ctx context.Context) bool {
	record := s.GetSession(ctx)
	return record != nil && record.IsAuthenticated
}

// UpdateLastActivity stamps the session with the current time. Returns false
// when there is no session or the write fails; the two cases are deliberately
// not distinguished, matching established caller expectations.
func (s *Store) UpdateLastActivity(ctx context.Context) bool {
	record := s.GetSession(ctx)
	if record == nil {
		return false
	}

	record.LastActivity = s.nowMillis()
	return s.writeRecord(ctx, *record)
}

// ExtendSession pushes the expiry out to now + additional and stamps activity.
// A non-positive duration falls back to the configured default. Returns nil
// when no session exists or the write fails.
func (s *Store) ExtendSession(ctx context.Context, additional time.Duration) *Record {
	if additional <= 0 {
		additional = s.config.DefaultExpiry
	}

	record := s.GetSession(ctx)
	if record == nil {
		return nil
	}

	now := s.nowMillis()
	record.ExpiresAt = now + additional.Milliseconds()
	record.LastActivity = now

	if !s.writeRecord(ctx, *record) {
		return nil
	}

	s.logger.Debug("session extended", "wallet", record.WalletAddress, "expires_at", record.ExpiresAt)
	return record
}

// TimeRemaining returns how long the session stays valid, zero when none.
func (s *Store) TimeRemaining(ctx context.Context) time.Duration {
	record := s.GetSession(ctx)
	if record == nil {
		return 0
	}

	remaining := record.ExpiresAt - s.nowMillis()
	if remaining < 0 {
		return 0
	}
	return time.Duration(remaining) * time.Millisecond
}

// IsExpiringSoon reports whether the session is inside the warning window. A
// non-positive threshold falls back to the default.
func (s *Store) IsExpiringSoon(ctx context.Context, threshold time.Duration) bool {
	if threshold <= 0 {
		threshold = DefaultExpiringSoonThreshold
	}

	remaining := s.TimeRemaining(ctx)
	return remaining > 0 && remaining <= threshold
}

// ClearSession removes the session record and its legacy activity marker.
func (s *Store) ClearSession(ctx context.Context) bool {
	return s.removeRecord(ctx)
}

// SaveUserPreferences shallow-merges patch into the stored preferences,
// last write wins per key.
func (s *Store) SaveUserPreferences(ctx context.Context, patch PreferencesPatch) bool {
	prefs := s.GetUserPreferences(ctx)
	prefs = patch.applyTo(prefs)

	return s.writePreferences(ctx, prefs)
}

// GetUserPreferences returns the stored preferences, falling back to defaults
// when absent or corrupt. It never fails. The first read assigns a stable
// install identifier and persists it best-effort.
func (s *Store) GetUserPreferences(ctx context.Context) Preferences {
	prefs := DefaultPreferences()

	raw, ok := s.kv.Get(ctx, s.key(keyPreferences))
	if ok {
		if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
			s.logger.Warn("stored preferences are corrupt, using defaults", "error", err)
			prefs = DefaultPreferences()
		}
	}

	if !prefs.Theme.IsValid() {
		prefs.Theme = ThemeSystem
	}

	if prefs.InstallID == "" {
		prefs.InstallID = uuid.NewString()
		s.writePreferences(ctx, prefs)
	}

	return prefs
}

// ClearAllSessionData removes the session and, unless keepPreferences is set,
// the preferences as well.
func (s *Store) ClearAllSessionData(ctx context.Context, keepPreferences bool) bool {
	ok := s.removeRecord(ctx)

	if !keepPreferences {
		if !s.kv.Remove(ctx, s.key(keyPreferences)) {
			ok = false
		}
	}

	return ok
}

func (s *Store) writeRecord(ctx context.Context, record Record) bool {
	data, err := json.Marshal(record)
	if err != nil {
		s.logger.Warn("failed to marshal session record", "error", err)
		return false
	}

	if !s.kv.Set(ctx, s.key(keySession), string(data)) {
		return false
	}

	// Legacy marker kept for older client versions that read it directly.
	s.kv.Set(ctx, s.key(keyLastActivity), formatMillis(record.LastActivity))

	return true
}

func (s *Store) removeRecord(ctx context.Context) bool {
	ok := s.kv.Remove(ctx, s.key(keySession))
	s.kv.Remove(ctx, s.key(keyLastActivity))
	return ok
}

func (s *Store) writePreferences(ctx context.Context, prefs Preferences) bool {
	data, err := json.Marshal(prefs)
	if err != nil {
		s.logger.Warn("failed to marshal preferences", "error", err)
		return false
	}

	return s.kv.Set(ctx, s.key(keyPreferences), string(data))
}

func formatMillis(millis int64) string {
	return time.UnixMilli(millis).UTC().Format(time.RFC3339Nano)
}
