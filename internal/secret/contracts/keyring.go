// Package contracts defines interfaces for the secret package's platform
// clients. These interfaces enable dependency injection for testing.
package contracts

// KeyringClient abstracts OS keyring operations for testing
type KeyringClient interface {
	// Get retrieves a stored password. It returns ErrNotFound (as reported by
	// the implementation) when no entry exists.
	Get(service, account string) (string, error)

	// Set stores or replaces a password.
	Set(service, account, password string) error
}
