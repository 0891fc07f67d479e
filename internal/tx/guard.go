// Package tx wraps transaction submission through the external wallet
// capability: precondition checks, a single submit attempt per invocation, and
// one canonical classification of failures into user-facing messages. Retries
// are never implicit; the bounded Retry helper exists for idempotent reads.
package tx

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	apperrors "github.com/solpass/solpass/internal/errors"
	"github.com/solpass/solpass/internal/wallet"
)

// classification maps a substring of the underlying failure to an error code
// and a user-facing message. The list is ordered; the first match wins.
var classifications = []struct {
	substr  string
	code    string
	message string
}{
	{"rejected", apperrors.CodeTxCancelled, "Transaction was cancelled."},
	{"cancelled", apperrors.CodeTxCancelled, "Transaction was cancelled."},
	{"denied", apperrors.CodeTxCancelled, "Transaction was cancelled."},
	{"sign", apperrors.CodeTxSigningFailed, "Failed to sign the transaction. Please try again."},
	{"insufficient", apperrors.CodeTxInsufficientFunds, "Insufficient balance for this transaction."},
	{"too large", apperrors.CodeTxTooLarge, "Transaction is too large to submit."},
	{"timeout", apperrors.CodeTxTimeout, "The network took too long to respond. Please try again."},
	{"timed out", apperrors.CodeTxTimeout, "The network took too long to respond. Please try again."},
}

// Guard submits one externally built payload per Execute call through the
// wallet capability. It never retries: fund-moving submissions must not be
// repeated blindly.
type Guard struct {
	wallet wallet.Capability
	logger *slog.Logger

	inFlight atomic.Bool
}

func NewGuard(walletCap wallet.Capability, logger *slog.Logger) *Guard {
	return &Guard{
		wallet: walletCap,
		logger: logger,
	}
}

// InFlight reports whether a submission is currently running, for UI loading
// state.
func (g *Guard) InFlight() bool {
	return g.inFlight.Load()
}

// Execute submits payload through the wallet capability and returns the
// transaction signature. Precondition violations and submission failures come
// back as *apperrors.AppError carrying a user-facing message; the external
// capability is invoked exactly once, and only after preconditions pass.
func (g *Guard) Execute(ctx context.Context, payload []byte) (string, error) {
	if g.wallet == nil || !g.wallet.Connected() {
		return "", apperrors.WalletNotConnectedError()
	}

	if len(payload) == 0 {
		return "", apperrors.EmptyPayloadError("Nothing to submit.")
	}

	if !g.inFlight.CompareAndSwap(false, true) {
		return "", apperrors.SubmitInProgressError()
	}
	defer g.inFlight.Store(false)

	signature, err := g.wallet.Submit(ctx, payload)
	if err != nil {
		classified := Classify(err)
		g.logger.Warn("transaction submission failed",
			"code", classified.Code,
			"error", err,
		)
		return "", classified
	}

	g.logger.Info("transaction submitted", "signature", signature)
	return signature, nil
}

// Classify maps a submission failure onto the fixed category list by matching
// substrings of its description, first match wins. Unmatched failures come
// back as TX_UNKNOWN. The result selects a user-facing message only; callers
// should not branch on it beyond display.
func Classify(err error) *apperrors.AppError {
	description := strings.ToLower(err.Error())

	for _, c := range classifications {
		if strings.Contains(description, c.substr) {
			return apperrors.TxError(c.code, c.message, err)
		}
	}

	return apperrors.TxError(apperrors.CodeTxUnknown, "Transaction failed. Please try again.", err)
}
