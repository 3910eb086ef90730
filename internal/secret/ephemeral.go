package secret

import (
	"context"
	"fmt"
	"io"
	"math/big"
)

// ephemeralBytes is the width of the random value behind an ephemeral
// password (a 128-bit integer rendered in decimal).
const ephemeralBytes = 16

// Ephemeral serves one random password for the lifetime of a temporary
// signer. Nobody needs to remember it: the storage it protects is deleted
// with the session.
type Ephemeral struct {
	password Password
}

// NewEphemeral samples the password from rng. Pass crypto/rand.Reader in
// production and a deterministic reader in tests.
func NewEphemeral(rng io.Reader) (*Ephemeral, error) {
	var buf [ephemeralBytes]byte
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return nil, fmt.Errorf("sample ephemeral password: %w", err)
	}
	n := new(big.Int).SetBytes(buf[:])
	clear(buf[:])

	digits := n.Append(nil, 10)
	n.SetInt64(0)

	return &Ephemeral{password: KnownBytes(digits)}, nil
}

// Password returns a copy of the session password. It never prompts.
func (e *Ephemeral) Password(context.Context) Password {
	p, err := e.password.Clone()
	if err != nil {
		return Unknown()
	}
	return p
}

// Destroy wipes the session password.
func (e *Ephemeral) Destroy() {
	e.password.Destroy()
}
