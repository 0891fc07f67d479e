package tx

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	apperrors "github.com/solpass/solpass/internal/errors"
)

type fakeWallet struct {
	mu        sync.Mutex
	connected bool
	address   string
	submitFn  func(ctx context.Context, payload []byte) (string, error)
	submits   int
}

func (w *fakeWallet) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}

func (w *fakeWallet) Address() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.address
}

func (w *fakeWallet) Connect(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected = true
	return nil
}

func (w *fakeWallet) Submit(ctx context.Context, payload []byte) (string, error) {
	w.mu.Lock()
	w.submits++
	fn := w.submitFn
	w.mu.Unlock()

	if fn == nil {
		return "sig-default", nil
	}
	return fn(ctx, payload)
}

func (w *fakeWallet) submitCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submits
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestGuard(walletCap *fakeWallet) *Guard {
	return NewGuard(walletCap, slog.New(slog.NewTextHandler(discardWriter{}, nil)))
}

func TestGuard_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects when wallet is not connected", func(t *testing.T) {
		walletCap := &fakeWallet{}
		guard := newTestGuard(walletCap)

		_, err := guard.Execute(ctx, []byte("payload"))
		if apperrors.CodeOf(err) != apperrors.CodeWalletNotConnected {
			t.Fatalf("expected wallet-not-connected, got %v", err)
		}
		if walletCap.submitCount() != 0 {
			t.Fatal("precondition failure must not reach the wallet")
		}
	})

	t.Run("rejects an empty payload", func(t *testing.T) {
		walletCap := &fakeWallet{connected: true, address: "W1"}
		guard := newTestGuard(walletCap)

		_, err := guard.Execute(ctx, nil)
		if apperrors.CodeOf(err) != apperrors.CodeEmptyPayload {
			t.Fatalf("expected empty-payload, got %v", err)
		}
		if walletCap.submitCount() != 0 {
			t.Fatal("precondition failure must not reach the wallet")
		}
	})

	t.Run("returns the signature and submits exactly once", func(t *testing.T) {
		walletCap := &fakeWallet{connected: true, address: "W1"}
		walletCap.submitFn = func(context.Context, []byte) (string, error) {
			return "sig-123", nil
		}
		guard := newTestGuard(walletCap)

		signature, err := guard.Execute(ctx, []byte("payload"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if signature != "sig-123" {
			t.Fatalf("expected sig-123, got %s", signature)
		}
		if walletCap.submitCount() != 1 {
			t.Fatalf("expected exactly one submit, got %d", walletCap.submitCount())
		}
	})

	t.Run("does not retry a failed submission", func(t *testing.T) {
		walletCap := &fakeWallet{connected: true, address: "W1"}
		walletCap.submitFn = func(context.Context, []byte) (string, error) {
			return "", errors.New("rpc timeout exceeded")
		}
		guard := newTestGuard(walletCap)

		_, err := guard.Execute(ctx, []byte("payload"))
		if err == nil {
			t.Fatal("expected an error")
		}
		if walletCap.submitCount() != 1 {
			t.Fatalf("expected exactly one submit, got %d", walletCap.submitCount())
		}
	})

	t.Run("rejects a concurrent submission", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})

		walletCap := &fakeWallet{connected: true, address: "W1"}
		walletCap.submitFn = func(context.Context, []byte) (string, error) {
			close(started)
			<-release
			return "sig-slow", nil
		}
		guard := newTestGuard(walletCap)

		done := make(chan error, 1)
		go func() {
			_, err := guard.Execute(ctx, []byte("payload"))
			done <- err
		}()

		<-started
		if !guard.InFlight() {
			t.Fatal("expected an in-flight submission")
		}

		_, err := guard.Execute(ctx, []byte("payload"))
		if apperrors.CodeOf(err) != apperrors.CodeSubmitInProgress {
			t.Fatalf("expected submit-in-progress, got %v", err)
		}

		close(release)
		if err := <-done; err != nil {
			t.Fatalf("first submission should succeed: %v", err)
		}
		if guard.InFlight() {
			t.Fatal("in-flight flag must clear after completion")
		}
	})
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  string
		code string
	}{
		{"user rejection", "User rejected the request", apperrors.CodeTxCancelled},
		{"approval cancelled", "passkey approval cancelled by user", apperrors.CodeTxCancelled},
		{"approval denied", "request denied in authenticator", apperrors.CodeTxCancelled},
		{"signing failure", "failed to sign transaction", apperrors.CodeTxSigningFailed},
		{"insufficient balance", "Insufficient funds for fee", apperrors.CodeTxInsufficientFunds},
		{"oversized payload", "transaction too large: 1300 bytes", apperrors.CodeTxTooLarge},
		{"rpc timeout", "rpc timeout exceeded", apperrors.CodeTxTimeout},
		{"node timed out", "request timed out waiting for confirmation", apperrors.CodeTxTimeout},
		{"anything else", "unexpected node failure", apperrors.CodeTxUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			classified := Classify(errors.New(tc.err))
			if classified.Code != tc.code {
				t.Fatalf("expected %s, got %s", tc.code, classified.Code)
			}
			if classified.Message == "" {
				t.Fatal("classification must carry a user-facing message")
			}
		})
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	// Both "rejected" and "sign" appear; the earlier pattern decides.
	classified := Classify(errors.New("user rejected signing request"))
	if classified.Code != apperrors.CodeTxCancelled {
		t.Fatalf("expected cancellation to win, got %s", classified.Code)
	}
}

func TestGuard_ExecuteTimeoutUnaffectedByDuration(t *testing.T) {
	// The guard has no intrinsic timeout: a slow submit is still a success.
	walletCap := &fakeWallet{connected: true, address: "W1"}
	walletCap.submitFn = func(context.Context, []byte) (string, error) {
		time.Sleep(20 * time.Millisecond)
		return "sig-slow", nil
	}
	guard := newTestGuard(walletCap)

	signature, err := guard.Execute(context.Background(), []byte("payload"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signature != "sig-slow" {
		t.Fatalf("expected sig-slow, got %s", signature)
	}
}
