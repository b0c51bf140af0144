// Package gate models the re-authentication challenge guarding app access
// after an idle period. The actual biometric/OS prompt is a platform binding;
// this package carries the interface plus the local credential material that
// backs a challenge.
package gate

import (
	"context"
	"errors"
)

// Authenticator is the external credential gate: a successful Authenticate
// unlocks the app, any error keeps it locked.
type Authenticator interface {
	Authenticate(ctx context.Context, prompt string) error
}

// StoreAuthenticator is an offline-friendly gate implementation: it succeeds
// whenever credential material has been provisioned. It mimics the interface
// and failure behavior so the rest of the app stays wired while a real
// biometric binding is added per platform.
type StoreAuthenticator struct {
	Store *Store
}

func (a *StoreAuthenticator) Authenticate(ctx context.Context, prompt string) error {
	if a.Store == nil || !a.Store.Provisioned() {
		return errors.New("no credential material provisioned")
	}
	return nil
}
