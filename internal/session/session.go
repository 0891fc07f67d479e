// Package session owns the locally persisted wallet session and user
// preferences, plus the controller that keeps both in sync with wallet
// connectivity and app lifecycle events.
package session

import "time"

const (
	// DefaultExpiry is the session lifetime applied when a caller does not
	// supply one.
	DefaultExpiry = 24 * time.Hour

	// DefaultExpiringSoonThreshold marks the window before expiry in which the
	// UI should warn the user.
	DefaultExpiringSoonThreshold = 5 * time.Minute

	// DefaultPollInterval is how often the controller re-checks expiry while a
	// session is cached.
	DefaultPollInterval = 10 * time.Second
)

// Record is the persisted session. Timestamps are epoch milliseconds to stay
// wire-compatible with records written by earlier client versions.
type Record struct {
	WalletAddress   string `json:"walletAddress"`
	CreatedAt       int64  `json:"createdAt"`
	ExpiresAt       int64  `json:"expiresAt"`
	LastActivity    int64  `json:"lastActivity"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

func (t Theme) IsValid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// Preferences are user settings with a lifecycle independent from the session:
// they survive EndSession unless a full reset is requested.
type Preferences struct {
	Theme         Theme `json:"theme"`
	ShowBalance   bool  `json:"showBalance"`
	Notifications bool  `json:"notifications"`

	// HapticFeedback is only meaningful on mobile hosts.
	HapticFeedback bool `json:"hapticFeedback"`

	// DefaultTransferAmount is only meaningful on web hosts.
	DefaultTransferAmount string `json:"defaultTransferAmount,omitempty"`

	// InstallID is a stable anonymous identifier generated on first read,
	// used by the diagnostic surface.
	InstallID string `json:"installId,omitempty"`
}

// DefaultPreferences returns the preference set used when nothing is stored or
// the stored blob is corrupt.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:          ThemeSystem,
		ShowBalance:    true,
		Notifications:  true,
		HapticFeedback: true,
	}
}

// PreferencesPatch is a shallow partial update; nil fields keep their stored
// value, set fields win.
type PreferencesPatch struct {
	Theme                 *Theme  `json:"theme,omitempty"`
	ShowBalance           *bool   `json:"showBalance,omitempty"`
	Notifications         *bool   `json:"notifications,omitempty"`
	HapticFeedback        *bool   `json:"hapticFeedback,omitempty"`
	DefaultTransferAmount *string `json:"defaultTransferAmount,omitempty"`
}

func (p PreferencesPatch) applyTo(prefs Preferences) Preferences {
	if p.Theme != nil && p.Theme.IsValid() {
		prefs.Theme = *p.Theme
	}
	if p.ShowBalance != nil {
		prefs.ShowBalance = *p.ShowBalance
	}
	if p.Notifications != nil {
		prefs.Notifications = *p.Notifications
	}
	if p.HapticFeedback != nil {
		prefs.HapticFeedback = *p.HapticFeedback
	}
	if p.DefaultTransferAmount != nil {
		prefs.DefaultTransferAmount = *p.DefaultTransferAmount
	}
	return prefs
}
