// Package secret obtains the password that unlocks a signer's storage.
//
// An Authorizer is asked for a Password whenever the signer needs one. The
// call may block on a human, so it takes a context: cancelling it resolves the
// pending request to Unknown instead of leaving it hanging. Variants:
//
//   - Interactive prompts on the controlling terminal.
//   - Ephemeral holds a random password for throwaway signers whose storage
//     lives in a temporary directory.
//   - Keyring reads the password from the OS keyring and falls back to
//     another Authorizer.
package secret

import (
	"context"
	"errors"
)

// ErrUnknown is returned when the plaintext of an Unknown password is used.
var ErrUnknown = errors.New("secret: password unknown")

// Authorizer produces a password on request.
//
// Implementations never fail: an unobtainable password is reported as
// Unknown and the caller decides whether to ask again or give up.
type Authorizer interface {
	Password(ctx context.Context) Password
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context) Password

// Password calls f(ctx).
func (f AuthorizerFunc) Password(ctx context.Context) Password {
	return f(ctx)
}
