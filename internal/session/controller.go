package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/solpass/solpass/internal/wallet"
)

// State is the session snapshot published to the UI layer. Session is nil when
// no valid session is cached; treat the record as read-only.
type State struct {
	Restoring     bool
	Session       *Record
	Preferences   Preferences
	TimeRemaining time.Duration
	ExpiringSoon  bool
}

// ControllerConfig holds configuration for the session controller
type ControllerConfig struct {
	PollInterval          time.Duration
	ExpiringSoonThreshold time.Duration
}

// DefaultControllerConfig returns default configuration
func DefaultControllerConfig() *ControllerConfig {
	return &ControllerConfig{
		PollInterval:          DefaultPollInterval,
		ExpiringSoonThreshold: DefaultExpiringSoonThreshold,
	}
}

// Controller turns the passive store into live observable state. It restores
// the persisted session once per instance, follows wallet connectivity,
// re-validates on foreground transitions, and polls expiry while a session is
// cached. The cached state is for display only: anything that matters is
// re-validated through the store, whose most recent read always wins.
type Controller struct {
	store  *Store
	wallet wallet.Capability
	logger *slog.Logger
	config ControllerConfig

	mu        sync.Mutex
	state     State
	restored  bool
	closed    bool
	listeners []func(State)
	pollStop  chan struct{}
}

// NewController creates a controller over store. The wallet capability may be
// nil for hosts that always pass addresses explicitly.
func NewController(store *Store, walletCap wallet.Capability, logger *slog.Logger, config *ControllerConfig) *Controller {
	if config == nil {
		config = DefaultControllerConfig()
	}

	return &Controller{
		store:  store,
		wallet: walletCap,
		logger: logger,
		config: *config,
		state: State{
			Preferences: DefaultPreferences(),
		},
	}
}

// OnStateChange registers a listener invoked after every published state
// change. Listeners are called outside the controller lock.
func (c *Controller) OnStateChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listeners = append(c.listeners, fn)
}

// State returns the current published snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Restore loads persisted session state into the controller. It runs at most
// once per controller instance; repeated calls are no-ops.
func (c *Controller) Restore(ctx context.Context) {
	c.mu.Lock()
	if c.restored || c.closed {
		c.mu.Unlock()
		return
	}
	c.restored = true
	c.state.Restoring = true
	snapshot, listeners := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot, listeners)

	c.logger.Debug("restoring persisted session state")
	c.refresh(ctx, func(state *State) {
		state.Restoring = false
	})
}

// SyncWallet reconciles the stored session with the externally reported wallet
// connection. A new or different address replaces the session outright; the
// same address counts as continued activity.
func (c *Controller) SyncWallet(ctx context.Context, connected bool, address string) {
	if !connected || address == "" {
		return
	}

	record := c.store.GetSession(ctx)
	if record == nil || record.WalletAddress != address {
		c.logger.Info("wallet connection changed, replacing session", "wallet", address)
		c.CreateNewSession(ctx, address)
		return
	}

	c.store.UpdateLastActivity(ctx)
	c.Refresh(ctx)
}

// HandleForeground re-validates the cached session when the host app returns
// to the foreground. A session that expired while backgrounded is dropped
// immediately instead of waiting for the next poll.
func (c *Controller) HandleForeground(ctx context.Context) {
	c.mu.Lock()
	cached := c.state.Session
	c.mu.Unlock()

	if cached == nil {
		return
	}

	if c.store.GetSession(ctx) == nil {
		c.logger.Debug("session expired while backgrounded, evicting")
		c.dropCachedSession()
		return
	}

	c.store.UpdateLastActivity(ctx)
	c.Refresh(ctx)
}

// CreateNewSession starts a session for address, falling back to the connected
// wallet's address when none is given. Returns nil, with a warning, when no
// address is available or the store write fails.
func (c *Controller) CreateNewSession(ctx context.Context, address string) *Record {
	if address == "" && c.wallet != nil && c.wallet.Connected() {
		address = c.wallet.Address()
	}

	if address == "" {
		c.logger.Warn("no wallet address available, session not created")
		return nil
	}

	record := c.store.CreateSession(ctx, address, 0)
	if record == nil {
		return nil
	}

	c.Refresh(ctx)
	return record
}

// EndSession clears the session, keeping preferences unless a full reset is
// requested.
func (c *Controller) EndSession(ctx context.Context, keepPreferences bool) {
	c.store.ClearAllSessionData(ctx, keepPreferences)
	c.Refresh(ctx)
}

// ExtendCurrentSession pushes the expiry out by additional (default when
// non-positive). Returns nil when no session exists.
func (c *Controller) ExtendCurrentSession(ctx context.Context, additional time.Duration) *Record {
	record := c.store.ExtendSession(ctx, additional)
	if record == nil {
		return nil
	}

	c.Refresh(ctx)
	return record
}

// UpdatePreferences merges patch into the stored preferences and republishes.
func (c *Controller) UpdatePreferences(ctx context.Context, patch PreferencesPatch) bool {
	if !c.store.SaveUserPreferences(ctx, patch) {
		return false
	}

	c.Refresh(ctx)
	return true
}

// Refresh forces a full re-read of the store into published state.
func (c *Controller) Refresh(ctx context.Context) {
	c.refresh(ctx, nil)
}

// Close tears the controller down, stopping the expiry poll. Further state
// changes are not published.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.stopPollingLocked()
}

func (c *Controller) refresh(ctx context.Context, mutate func(*State)) {
	record := c.store.GetSession(ctx)
	prefs := c.store.GetUserPreferences(ctx)
	remaining := c.store.TimeRemaining(ctx)
	expiringSoon := c.store.IsExpiringSoon(ctx, c.config.ExpiringSoonThreshold)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.state.Session = record
	c.state.Preferences = prefs
	c.state.TimeRemaining = remaining
	c.state.ExpiringSoon = expiringSoon
	if mutate != nil {
		mutate(&c.state)
	}

	if record != nil {
		c.ensurePollingLocked()
	} else {
		c.stopPollingLocked()
	}

	snapshot, listeners := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot, listeners)
}

func (c *Controller) dropCachedSession() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.state.Session = nil
	c.state.TimeRemaining = 0
	c.state.ExpiringSoon = false
	c.stopPollingLocked()
	snapshot, listeners := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot, listeners)
}

// ensurePollingLocked starts the expiry poll if it is not already running.
// Callers must hold c.mu.
func (c *Controller) ensurePollingLocked() {
	if c.pollStop != nil {
		return
	}

	stop := make(chan struct{})
	c.pollStop = stop
	go c.pollLoop(stop)
}

// stopPollingLocked cancels the expiry poll. Callers must hold c.mu.
func (c *Controller) stopPollingLocked() {
	if c.pollStop == nil {
		return
	}

	close(c.pollStop)
	c.pollStop = nil
}

func (c *Controller) pollLoop(stop chan struct{}) {
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.pollTick(context.Background())
		}
	}
}

func (c *Controller) pollTick(ctx context.Context) {
	remaining := c.store.TimeRemaining(ctx)
	if remaining <= 0 {
		c.logger.Info("session expired, clearing")
		c.store.ClearSession(ctx)
		c.dropCachedSession()
		return
	}

	expiringSoon := c.store.IsExpiringSoon(ctx, c.config.ExpiringSoonThreshold)

	c.mu.Lock()
	if c.closed || c.state.Session == nil {
		c.mu.Unlock()
		return
	}
	c.state.TimeRemaining = remaining
	c.state.ExpiringSoon = expiringSoon
	snapshot, listeners := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot, listeners)
}

// snapshotLocked copies the published state and listener list. Callers must
// hold c.mu.
func (c *Controller) snapshotLocked() (State, []func(State)) {
	listeners := make([]func(State), len(c.listeners))
	copy(listeners, c.listeners)
	return c.state, listeners
}

func (c *Controller) notify(state State, listeners []func(State)) {
	for _, fn := range listeners {
		fn(state)
	}
}
