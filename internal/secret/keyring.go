package secret

import (
	"context"
	"errors"

	"github.com/zalando/go-keyring"

	"github.com/Manta-Network/cli/internal/logging"
	"github.com/Manta-Network/cli/internal/secret/contracts"
)

// ErrKeyringItemNotFound is returned by keyring clients when no entry exists.
var ErrKeyringItemNotFound = errors.New("keyring item not found")

// osKeyringClient implements KeyringClient on top of the platform keyring
// (macOS Keychain, Linux Secret Service, Windows Credential Manager).
type osKeyringClient struct{}

func (osKeyringClient) Get(service, account string) (string, error) {
	v, err := keyring.Get(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrKeyringItemNotFound
	}
	return v, err
}

func (osKeyringClient) Set(service, account, password string) error {
	return keyring.Set(service, account, password)
}

var _ contracts.KeyringClient = osKeyringClient{}

// Keyring looks the password up in the OS keyring and defers to a fallback
// Authorizer when there is no usable entry.
type Keyring struct {
	service  string
	account  string
	client   contracts.KeyringClient
	fallback Authorizer
	remember bool
	logger   *logging.Logger
}

// KeyringOption configures a Keyring authorizer.
type KeyringOption func(*Keyring)

// WithKeyringClient replaces the platform keyring, primarily for tests.
func WithKeyringClient(client contracts.KeyringClient) KeyringOption {
	return func(k *Keyring) { k.client = client }
}

// WithRemember stores passwords obtained from the fallback in the keyring.
func WithRemember(remember bool) KeyringOption {
	return func(k *Keyring) { k.remember = remember }
}

// WithKeyringLogger sets the logger used to report keyring failures.
func WithKeyringLogger(logger *logging.Logger) KeyringOption {
	return func(k *Keyring) { k.logger = logger }
}

// NewKeyring builds a keyring-backed authorizer for service/account.
func NewKeyring(service, account string, fallback Authorizer, opts ...KeyringOption) *Keyring {
	k := &Keyring{
		service:  service,
		account:  account,
		client:   osKeyringClient{},
		fallback: fallback,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Password implements Authorizer.
func (k *Keyring) Password(ctx context.Context) Password {
	value, err := k.client.Get(k.service, k.account)
	switch {
	case err == nil:
		k.logger.Debug("Using password from keyring entry %s/%s", k.service, k.account)
		return KnownBytes([]byte(value))
	case errors.Is(err, ErrKeyringItemNotFound):
		k.logger.Debug("No keyring entry for %s/%s", k.service, k.account)
	default:
		k.logger.Warn("Keyring lookup failed: %v", err)
	}

	if k.fallback == nil {
		return Unknown()
	}

	p := k.fallback.Password(ctx)
	if p.IsKnown() && k.remember {
		err := p.Use(func(plaintext []byte) error {
			return k.client.Set(k.service, k.account, string(plaintext))
		})
		if err != nil {
			k.logger.Warn("Unable to store password in keyring: %v", err)
		}
	}
	return p
}
