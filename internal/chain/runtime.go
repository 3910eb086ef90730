// Package chain names the runtimes the CLI can target.
package chain

import (
	"fmt"
	"strings"

	dserrors "github.com/Manta-Network/cli/internal/errors"
)

// Runtime is one of the Manta network runtimes.
type Runtime string

const (
	Manta    Runtime = "manta"
	Calamari Runtime = "calamari"
	Dolphin  Runtime = "dolphin"
)

// All lists every runtime in display order.
var All = []Runtime{Manta, Calamari, Dolphin}

// SignerRuntimes are the runtimes the local signer service can be started
// for. The signer cannot switch runtimes yet, so only Dolphin is accepted.
var SignerRuntimes = []Runtime{Dolphin}

func (r Runtime) String() string {
	return string(r)
}

// Parse maps a case-insensitive name onto a Runtime.
func Parse(name string) (Runtime, error) {
	candidate := Runtime(strings.ToLower(strings.TrimSpace(name)))
	for _, r := range All {
		if r == candidate {
			return r, nil
		}
	}
	return "", dserrors.New(dserrors.ValueValidation, "argument validation",
		"unsupported runtime %q (expected one of: %s)", name, Names(All))
}

// Supports reports whether r is in allowed.
func Supports(allowed []Runtime, r Runtime) bool {
	for _, a := range allowed {
		if a == r {
			return true
		}
	}
	return false
}

// ValidateSigner parses name and checks that the signer can run it.
func ValidateSigner(name string) (Runtime, error) {
	r, err := Parse(name)
	if err != nil {
		return "", err
	}
	if !Supports(SignerRuntimes, r) {
		return "", dserrors.New(dserrors.ValueValidation, "argument validation",
			"runtime %q is not supported by the signer; for the current implementation only %s is allowed",
			name, Names(SignerRuntimes))
	}
	return r, nil
}

// Names renders runtimes as a comma-separated list.
func Names(rs []Runtime) string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

// Usage describes the accepted values for help output.
func Usage() string {
	return fmt.Sprintf("runtime to use (%s)", Names(All))
}
