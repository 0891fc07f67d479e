// Package wallet declares the external wallet capability consumed by the
// session controller and the transaction guard. The concrete implementation is
// supplied by the host's passkey wallet adapter; this package never signs or
// sends anything itself.
package wallet

import "context"

// Capability is the connected-wallet surface the core depends on. Submit signs
// and sends an already-built payload and returns the opaque transaction
// signature.
type Capability interface {
	Connected() bool
	Address() string
	Connect(ctx context.Context) error
	Submit(ctx context.Context, payload []byte) (string, error)
}
