package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/solpass/solpass/internal/diag"
	"github.com/solpass/solpass/internal/health"
	"github.com/solpass/solpass/internal/session"
)

func newStatusCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session and preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*verbose)
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()

			record := e.sessions.GetSession(ctx)
			if record == nil {
				fmt.Println("session: none")
			} else {
				fmt.Printf("session: %s\n", record.WalletAddress)
				fmt.Printf("  created:        %s\n", time.UnixMilli(record.CreatedAt).Format(time.RFC3339))
				fmt.Printf("  last activity:  %s\n", time.UnixMilli(record.LastActivity).Format(time.RFC3339))
				fmt.Printf("  expires:        %s\n", time.UnixMilli(record.ExpiresAt).Format(time.RFC3339))
				fmt.Printf("  time remaining: %s\n", e.sessions.TimeRemaining(ctx).Round(time.Second))
				fmt.Printf("  expiring soon:  %t\n", e.sessions.IsExpiringSoon(ctx, e.config.Session.ExpiringSoonThreshold))
			}

			prefs := e.sessions.GetUserPreferences(ctx)
			fmt.Printf("preferences: theme=%s show_balance=%t notifications=%t haptics=%t\n",
				prefs.Theme, prefs.ShowBalance, prefs.Notifications, prefs.HapticFeedback)

			return nil
		},
	}
}

func newClearCmd(verbose *bool) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the session (and preferences with --all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*verbose)
			if err != nil {
				return err
			}
			defer e.close()

			if !e.sessions.ClearAllSessionData(cmd.Context(), !all) {
				return fmt.Errorf("failed to clear session data")
			}

			if all {
				fmt.Println("session and preferences cleared")
			} else {
				fmt.Println("session cleared")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "also clear preferences")
	return cmd
}

func newExtendCmd(verbose *bool) *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "extend",
		Short: "Extend the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*verbose)
			if err != nil {
				return err
			}
			defer e.close()

			record := e.sessions.ExtendSession(cmd.Context(), duration)
			if record == nil {
				return fmt.Errorf("no active session to extend")
			}

			fmt.Printf("session extended, expires %s\n", time.UnixMilli(record.ExpiresAt).Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().DurationVar(&duration, "for", 0, "extension duration (default: configured session expiry)")
	return cmd
}

func newPrefsCmd(verbose *bool) *cobra.Command {
	var (
		theme         string
		showBalance   string
		notifications string
	)

	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or update user preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*verbose)
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()

			var patch session.PreferencesPatch
			changed := false

			if cmd.Flags().Changed("theme") {
				t := session.Theme(theme)
				if !t.IsValid() {
					return fmt.Errorf("unknown theme %q (light, dark, system)", theme)
				}
				patch.Theme = &t
				changed = true
			}
			if cmd.Flags().Changed("show-balance") {
				v, err := parseBoolFlag("show-balance", showBalance)
				if err != nil {
					return err
				}
				patch.ShowBalance = &v
				changed = true
			}
			if cmd.Flags().Changed("notifications") {
				v, err := parseBoolFlag("notifications", notifications)
				if err != nil {
					return err
				}
				patch.Notifications = &v
				changed = true
			}

			if changed && !e.sessions.SaveUserPreferences(ctx, patch) {
				return fmt.Errorf("failed to save preferences")
			}

			prefs := e.sessions.GetUserPreferences(ctx)
			fmt.Printf("theme:          %s\n", prefs.Theme)
			fmt.Printf("show balance:   %t\n", prefs.ShowBalance)
			fmt.Printf("notifications:  %t\n", prefs.Notifications)
			fmt.Printf("haptics:        %t\n", prefs.HapticFeedback)
			fmt.Printf("install id:     %s\n", prefs.InstallID)
			return nil
		},
	}

	cmd.Flags().StringVar(&theme, "theme", "", "set theme (light, dark, system)")
	cmd.Flags().StringVar(&showBalance, "show-balance", "", "set balance visibility (true, false)")
	cmd.Flags().StringVar(&notifications, "notifications", "", "set notifications (true, false)")
	return cmd
}

func newServeCmd(verbose *bool) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local diagnostic HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*verbose)
			if err != nil {
				return err
			}
			defer e.close()

			// Graceful shutdown on interruption
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
			defer stop()

			checker := health.NewChecker(e.kv, e.sessions, e.logger)
			server := diag.NewServer(e.sessions, checker, e.logger)

			if port == 0 {
				port = e.config.Diag.Port
			}

			srvErr := make(chan error, 1)
			go func() {
				srvErr <- server.Listen(port)
			}()

			select {
			case err := <-srvErr:
				return err
			case <-ctx.Done():
				e.logger.Info("shutdown signal received")
				return server.Shutdown()
			}
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (default: configured diag port)")
	return cmd
}

func parseBoolFlag(name, value string) (bool, error) {
	switch value {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("flag --%s must be true or false", name)
}

func dirOf(path string) string {
	return filepath.Dir(path)
}
