package secret

import (
	"github.com/Manta-Network/cli/internal/secure"
)

// Password is the outcome of an authorization exchange: either a known
// secret (which may be the empty string) or Unknown, meaning no secret could
// be obtained. The zero value is Unknown.
type Password struct {
	sealed *secure.Sealed
}

// Known wraps value. The string's backing memory cannot be wiped by Go; use
// KnownBytes when the caller holds a mutable buffer.
func Known(value string) Password {
	return KnownBytes([]byte(value))
}

// KnownBytes seals value and wipes the caller's buffer.
func KnownBytes(value []byte) Password {
	return Password{sealed: secure.Seal(value)}
}

// Unknown returns the password that could not be obtained.
func Unknown() Password {
	return Password{}
}

// IsKnown reports whether a secret was obtained.
func (p Password) IsKnown() bool {
	return p.sealed != nil
}

// Use exposes the plaintext to fn. It fails with ErrUnknown for Unknown.
func (p Password) Use(fn func(plaintext []byte) error) error {
	if p.sealed == nil {
		return ErrUnknown
	}
	return p.sealed.Use(fn)
}

// Clone returns an independent copy. Cloning Unknown yields Unknown.
func (p Password) Clone() (Password, error) {
	if p.sealed == nil {
		return Unknown(), nil
	}
	sealed, err := p.sealed.Clone()
	if err != nil {
		return Unknown(), err
	}
	return Password{sealed: sealed}, nil
}

// Destroy wipes the secret. Destroying Unknown is a no-op.
func (p Password) Destroy() {
	if p.sealed != nil {
		p.sealed.Destroy()
	}
}

// String never reveals the secret.
func (p Password) String() string {
	if !p.IsKnown() {
		return "<unknown>"
	}
	return "[REDACTED]"
}

// GoString never reveals the secret.
func (p Password) GoString() string {
	return p.String()
}
