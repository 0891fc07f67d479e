package session

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/solpass/solpass/internal/storage"
)

type fakeClock struct {
	current time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

// downStore simulates an unavailable storage backend.
type downStore struct{}

func (downStore) Get(context.Context, string) (string, bool) { return "", false }
func (downStore) Set(context.Context, string, string) bool   { return false }
func (downStore) Remove(context.Context, string) bool        { return false }
func (downStore) Ping(context.Context) error                 { return errors.New("storage down") }
func (downStore) Close() error                               { return nil }

func newTestStore(t *testing.T) (*Store, *storage.MemoryStore, *fakeClock) {
	t.Helper()

	kv := storage.NewMemoryStore()
	clock := newFakeClock()

	store := NewStore(kv, slog.New(slog.NewTextHandler(testWriter{t}, nil)), nil)
	store.now = clock.Now

	return store, kv, clock
}

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestStore_CreateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("expiry matches requested duration", func(t *testing.T) {
		store, _, _ := newTestStore(t)

		record := store.CreateSession(ctx, "W1", time.Hour)
		if record == nil {
			t.Fatal("expected a session record")
		}

		if got := record.ExpiresAt - record.CreatedAt; got != time.Hour.Milliseconds() {
			t.Fatalf("expected expiry delta %d, got %d", time.Hour.Milliseconds(), got)
		}
		if !record.IsAuthenticated {
			t.Fatal("new session should be authenticated")
		}
		if record.CreatedAt > record.LastActivity {
			t.Fatal("createdAt must not exceed lastActivity")
		}
	})

	t.Run("zero expiry falls back to default", func(t *testing.T) {
		store, _, _ := newTestStore(t)

		record := store.CreateSession(ctx, "W1", 0)
		if record == nil {
			t.Fatal("expected a session record")
		}
		if got := record.ExpiresAt - record.CreatedAt; got != DefaultExpiry.Milliseconds() {
			t.Fatalf("expected default expiry delta, got %d", got)
		}
	})

	t.Run("replaces a prior session unconditionally", func(t *testing.T) {
		store, _, _ := newTestStore(t)

		store.CreateSession(ctx, "W1", time.Hour)
		record := store.CreateSession(ctx, "W2", time.Hour)
		if record == nil || record.WalletAddress != "W2" {
			t.Fatalf("expected W2 session, got %+v", record)
		}

		stored := store.GetSession(ctx)
		if stored == nil || stored.WalletAddress != "W2" {
			t.Fatalf("expected stored session for W2, got %+v", stored)
		}
	})

	t.Run("storage failure yields nil", func(t *testing.T) {
		store := NewStore(downStore{}, slog.New(slog.NewTextHandler(testWriter{t}, nil)), nil)

		if record := store.CreateSession(ctx, "W1", time.Hour); record != nil {
			t.Fatalf("expected nil record on storage failure, got %+v", record)
		}
	})
}

func TestStore_GetSession(t *testing.T) {
	ctx := context.Background()

	t.Run("returns nil when nothing stored", func(t *testing.T) {
		store, _, _ := newTestStore(t)

		if record := store.GetSession(ctx); record != nil {
			t.Fatalf("expected nil, got %+v", record)
		}
	})

	t.Run("evicts expired session and removes the key", func(t *testing.T) {
		store, kv, clock := newTestStore(t)

		store.CreateSession(ctx, "W1", 100*time.Millisecond)
		clock.Advance(150 * time.Millisecond)

		if store.HasValidSession(ctx) {
			t.Fatal("session past expiry must not be valid")
		}
		if record := store.GetSession(ctx); record != nil {
			t.Fatalf("expected nil after expiry, got %+v", record)
		}
		if _, ok := kv.Get(ctx, "solpass_wallet_session"); ok {
			t.Fatal("expired session key must be removed from storage")
		}
	})

	t.Run("exact expiry boundary counts as expired", func(t *testing.T) {
		store, _, clock := newTestStore(t)

		store.CreateSession(ctx, "W1", 100*time.Millisecond)
		clock.Advance(100 * time.Millisecond)

		if record := store.GetSession(ctx); record != nil {
			t.Fatalf("expected eviction at expiresAt == now, got %+v", record)
		}
	})

	t.Run("corrupt record is discarded and removed", func(t *testing.T) {
		store, kv, _ := newTestStore(t)

		kv.Set(ctx, "solpass_wallet_session", "{not json")

		if record := store.GetSession(ctx); record != nil {
			t.Fatalf("expected nil for corrupt record, got %+v", record)
		}
		if _, ok := kv.Get(ctx, "solpass_wallet_session"); ok {
			t.Fatal("corrupt session key must be removed from storage")
		}
	})
}

func TestStore_UpdateLastActivity(t *testing.T) {
	ctx := context.Background()

	t.Run("no session is a false no-op", func(t *testing.T) {
		store, _, _ := newTestStore(t)

		if store.UpdateLastActivity(ctx) {
			t.Fatal("expected false with no session")
		}
	})

	t.Run("stamps activity without touching expiry", func(t *testing.T) {
		store, _, clock := newTestStore(t)

		created := store.CreateSession(ctx, "W1", time.Hour)
		clock.Advance(time.Minute)

		if !store.UpdateLastActivity(ctx) {
			t.Fatal("expected update to succeed")
		}
		if !store.UpdateLastActivity(ctx) {
			t.Fatal("expected repeated update to succeed")
		}

		record := store.GetSession(ctx)
		if record.ExpiresAt != created.ExpiresAt {
			t.Fatalf("expiry changed: %d -> %d", created.ExpiresAt, record.ExpiresAt)
		}
		if record.LastActivity != clock.Now().UnixMilli() {
			t.Fatalf("expected lastActivity %d, got %d", clock.Now().UnixMilli(), record.LastActivity)
		}
	})
}

func TestStore_ExtendSession(t *testing.T) {
	ctx := context.Background()

	t.Run("no session yields nil", func(t *testing.T) {
		store, _, _ := newTestStore(t)

		if record := store.ExtendSession(ctx, time.Hour); record != nil {
			t.Fatalf("expected nil, got %+v", record)
		}
	})

	t.Run("pushes expiry out from now", func(t *testing.T) {
		store, _, clock := newTestStore(t)

		store.CreateSession(ctx, "W1", time.Hour)
		clock.Advance(30 * time.Minute)

		record := store.ExtendSession(ctx, 2*time.Hour)
		if record == nil {
			t.Fatal("expected extended record")
		}

		want := clock.Now().UnixMilli() + (2 * time.Hour).Milliseconds()
		if record.ExpiresAt != want {
			t.Fatalf("expected expiresAt %d, got %d", want, record.ExpiresAt)
		}
		if record.LastActivity != clock.Now().UnixMilli() {
			t.Fatal("extension must stamp activity")
		}
	})
}

func TestStore_TimeRemaining(t *testing.T) {
	ctx := context.Background()

	t.Run("zero when no session", func(t *testing.T) {
		store, _, _ := newTestStore(t)

		if got := store.TimeRemaining(ctx); got != 0 {
			t.Fatalf("expected 0, got %s", got)
		}
	})

	t.Run("non-increasing as time passes", func(t *testing.T) {
		store, _, clock := newTestStore(t)

		store.CreateSession(ctx, "W1", time.Hour)

		first := store.TimeRemaining(ctx)
		second := store.TimeRemaining(ctx)
		if second > first {
			t.Fatalf("remaining increased without extension: %s -> %s", first, second)
		}

		clock.Advance(10 * time.Minute)
		third := store.TimeRemaining(ctx)
		if third >= second {
			t.Fatalf("remaining must decrease after time passes: %s -> %s", second, third)
		}
	})
}

func TestStore_IsExpiringSoon(t *testing.T) {
	ctx := context.Background()
	threshold := 5 * time.Minute

	t.Run("inside the warning window", func(t *testing.T) {
		store, _, _ := newTestStore(t)

		store.CreateSession(ctx, "W1", 4*time.Minute)
		if !store.IsExpiringSoon(ctx, threshold) {
			t.Fatal("4m remaining with 5m threshold should warn")
		}
	})

	t.Run("outside the warning window", func(t *testing.T) {
		store, _, _ := newTestStore(t)

		store.CreateSession(ctx, "W1", 6*time.Minute)
		if store.IsExpiringSoon(ctx, threshold) {
			t.Fatal("6m remaining with 5m threshold should not warn")
		}
	})

	t.Run("no session never warns", func(t *testing.T) {
		store, _, _ := newTestStore(t)

		if store.IsExpiringSoon(ctx, threshold) {
			t.Fatal("no session should not warn")
		}
	})
}

func TestStore_Preferences(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults when nothing stored", func(t *testing.T) {
		store, _, _ := newTestStore(t)

		prefs := store.GetUserPreferences(ctx)
		if prefs.Theme != ThemeSystem || !prefs.ShowBalance || !prefs.Notifications {
			t.Fatalf("unexpected defaults: %+v", prefs)
		}
		if prefs.InstallID == "" {
			t.Fatal("first read must assign an install id")
		}
	})

	t.Run("install id is stable across reads", func(t *testing.T) {
		store, _, _ := newTestStore(t)

		first := store.GetUserPreferences(ctx).InstallID
		second := store.GetUserPreferences(ctx).InstallID
		if first != second {
			t.Fatalf("install id changed between reads: %s -> %s", first, second)
		}
	})

	t.Run("patch merges shallowly", func(t *testing.T) {
		store, _, _ := newTestStore(t)

		dark := ThemeDark
		if !store.SaveUserPreferences(ctx, PreferencesPatch{Theme: &dark}) {
			t.Fatal("expected save to succeed")
		}

		prefs := store.GetUserPreferences(ctx)
		if prefs.Theme != ThemeDark {
			t.Fatalf("expected dark theme, got %s", prefs.Theme)
		}
		if !prefs.ShowBalance || !prefs.Notifications || !prefs.HapticFeedback {
			t.Fatalf("untouched fields must keep defaults: %+v", prefs)
		}

		off := false
		store.SaveUserPreferences(ctx, PreferencesPatch{Notifications: &off})

		prefs = store.GetUserPreferences(ctx)
		if prefs.Theme != ThemeDark {
			t.Fatal("later patch must not reset earlier keys")
		}
		if prefs.Notifications {
			t.Fatal("notifications should be off")
		}
	})

	t.Run("corrupt preferences fall back to defaults", func(t *testing.T) {
		store, kv, _ := newTestStore(t)

		kv.Set(ctx, "solpass_wallet_preferences", "###")

		prefs := store.GetUserPreferences(ctx)
		if prefs.Theme != ThemeSystem {
			t.Fatalf("expected defaults for corrupt preferences, got %+v", prefs)
		}
	})

	t.Run("storage failure degrades to defaults", func(t *testing.T) {
		store := NewStore(downStore{}, slog.New(slog.NewTextHandler(testWriter{t}, nil)), nil)

		prefs := store.GetUserPreferences(ctx)
		if prefs.Theme != ThemeSystem {
			t.Fatalf("expected defaults, got %+v", prefs)
		}
		if store.SaveUserPreferences(ctx, PreferencesPatch{}) {
			t.Fatal("save must report false when storage is down")
		}
	})
}

func TestStore_ClearAllSessionData(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps preferences by default", func(t *testing.T) {
		store, _, _ := newTestStore(t)

		store.CreateSession(ctx, "W1", time.Hour)
		dark := ThemeDark
		store.SaveUserPreferences(ctx, PreferencesPatch{Theme: &dark})

		if !store.ClearAllSessionData(ctx, true) {
			t.Fatal("expected clear to succeed")
		}

		if store.GetSession(ctx) != nil {
			t.Fatal("session must be gone")
		}
		if store.GetUserPreferences(ctx).Theme != ThemeDark {
			t.Fatal("preferences must survive session end")
		}
	})

	t.Run("full reset clears preferences too", func(t *testing.T) {
		store, _, _ := newTestStore(t)

		store.CreateSession(ctx, "W1", time.Hour)
		dark := ThemeDark
		store.SaveUserPreferences(ctx, PreferencesPatch{Theme: &dark})

		if !store.ClearAllSessionData(ctx, false) {
			t.Fatal("expected clear to succeed")
		}

		if store.GetUserPreferences(ctx).Theme != ThemeSystem {
			t.Fatal("full reset must drop stored preferences")
		}
	})
}
