// Package health reports backend reachability and session state for the
// diagnostic surface.
package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/solpass/solpass/internal/session"
	"github.com/solpass/solpass/internal/storage"
)

type Checker struct {
	KV       storage.Store
	Sessions *session.Store
	Logger   *slog.Logger
}

func NewChecker(kv storage.Store, sessions *session.Store, logger *slog.Logger) Checker {
	return Checker{
		KV:       kv,
		Sessions: sessions,
		Logger:   logger,
	}
}

// Status represents overall health information
type Status struct {
	Status     string                     `json:"status"`
	Timestamp  string                     `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents individual component health
type ComponentHealth struct {
	Status      string        `json:"status"`
	Message     string        `json:"message,omitempty"`
	Latency     time.Duration `json:"latency_ms"`
	LastChecked string        `json:"last_checked"`
	Critical    bool          `json:"critical"`
}

// CheckHealth checks the storage backend and reports whether a valid session
// is present. Only storage is critical: a missing session is normal state.
func (h *Checker) CheckHealth(ctx context.Context) Status {
	now := time.Now()
	components := make(map[string]ComponentHealth)

	components["storage"] = h.checkStorage(ctx)
	components["session"] = h.checkSession(ctx)

	overallStatus := "healthy"
	for _, component := range components {
		if component.Critical && component.Status != "healthy" {
			overallStatus = "unhealthy"
			break
		}
	}

	return Status{
		Status:     overallStatus,
		Timestamp:  now.UTC().Format(time.RFC3339),
		Components: components,
	}
}

func (h *Checker) checkStorage(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.KV == nil {
		return ComponentHealth{
			Status:      "unhealthy",
			Message:     "storage not configured",
			Latency:     time.Since(start),
			LastChecked: time.Now().UTC().Format(time.RFC3339),
			Critical:    true,
		}
	}

	err := h.KV.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		h.Logger.Error("storage health check failed", "error", err, "latency", latency)
		return ComponentHealth{
			Status:      "unhealthy",
			Message:     "storage unreachable: " + err.Error(),
			Latency:     latency,
			LastChecked: time.Now().UTC().Format(time.RFC3339),
			Critical:    true,
		}
	}

	return ComponentHealth{
		Status:      "healthy",
		Latency:     latency,
		LastChecked: time.Now().UTC().Format(time.RFC3339),
		Critical:    true,
	}
}

func (h *Checker) checkSession(ctx context.Context) ComponentHealth {
	start := time.Now()

	message := "no active session"
	if h.Sessions != nil && h.Sessions.HasValidSession(ctx) {
		message = "active session present"
	}

	return ComponentHealth{
		Status:      "healthy",
		Message:     message,
		Latency:     time.Since(start),
		LastChecked: time.Now().UTC().Format(time.RFC3339),
		Critical:    false,
	}
}
