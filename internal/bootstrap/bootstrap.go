// Package bootstrap turns the signer start arguments into a running signer.
//
// All argument checks happen before anything touches the filesystem or the
// terminal. Only then is the baseline configuration built, a temporary
// storage directory acquired if one was requested, and an authorizer chosen
// to match: throwaway storage gets a random throwaway password, persistent
// storage asks the user.
package bootstrap

import (
	"context"
	"crypto/rand"
	"io"

	"github.com/Manta-Network/cli/internal/chain"
	dserrors "github.com/Manta-Network/cli/internal/errors"
	"github.com/Manta-Network/cli/internal/logging"
	"github.com/Manta-Network/cli/internal/secret"
	"github.com/Manta-Network/cli/internal/signer"
	"github.com/Manta-Network/cli/internal/tempdir"
)

// Stage names used in errors.
const (
	StageValidation    = "argument validation"
	StageConfiguration = "configuration"
	StageAuthorization = "authorization"
	StageServiceStart  = "service start"
)

// Options are the user's signer start arguments.
type Options struct {
	DataPath   string // explicit storage file, used as given
	Temp       bool   // keep storage in a directory removed on exit
	ServiceURL string // replaces the default service address, unvalidated
	Runtime    string
	UseKeyring bool
}

// Orchestrator validates Options and starts the signer service.
type Orchestrator struct {
	service   signer.Service
	defaults  func() (signer.Config, error)
	overrides signer.Overrides
	acquire   func(pattern string) (*tempdir.Dir, error)
	rand      io.Reader
	prompter  secret.Prompter
	keyring   func(fallback secret.Authorizer) secret.Authorizer
	logger    *logging.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDefaults replaces the platform default configuration source.
func WithDefaults(fn func() (signer.Config, error)) Option {
	return func(o *Orchestrator) { o.defaults = fn }
}

// WithOverrides applies config file settings on top of the defaults.
func WithOverrides(overrides signer.Overrides) Option {
	return func(o *Orchestrator) { o.overrides = overrides }
}

// WithTempAcquirer replaces how temporary storage is created.
func WithTempAcquirer(fn func(pattern string) (*tempdir.Dir, error)) Option {
	return func(o *Orchestrator) { o.acquire = fn }
}

// WithRand sets the random source for ephemeral passwords.
func WithRand(r io.Reader) Option {
	return func(o *Orchestrator) { o.rand = r }
}

// WithPrompter sets how the interactive authorizer reads a password.
func WithPrompter(p secret.Prompter) Option {
	return func(o *Orchestrator) { o.prompter = p }
}

// WithKeyring sets the constructor used when Options.UseKeyring is set. It
// receives the interactive authorizer to fall back to.
func WithKeyring(fn func(fallback secret.Authorizer) secret.Authorizer) Option {
	return func(o *Orchestrator) { o.keyring = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// New creates an orchestrator that starts service.
func New(service signer.Service, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		service:  service,
		defaults: signer.DefaultConfig,
		acquire:  tempdir.Acquire,
		rand:     rand.Reader,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate checks opts without side effects and returns the runtime.
func Validate(opts Options) (chain.Runtime, error) {
	if opts.DataPath != "" && opts.Temp {
		return "", dserrors.New(dserrors.ArgumentConflict, StageValidation,
			"cannot use the temporary storage flag with the data path argument")
	}
	return chain.ValidateSigner(opts.Runtime)
}

// Start runs the signer until it returns. Temporary storage, if any, is
// removed before Start returns.
func (o *Orchestrator) Start(ctx context.Context, opts Options) error {
	runtime, err := Validate(opts)
	if err != nil {
		return err
	}

	cfg, err := o.baseline()
	if err != nil {
		return err
	}

	switch {
	case opts.Temp:
		dir, err := o.acquire(tempdir.DefaultPattern)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := dir.Close(); cerr != nil {
				o.logger.Warn("Failed to remove temporary storage: %v", cerr)
			}
		}()
		cfg.DataPath = dir.Join(signer.StorageFile)
		o.logger.Debug("Using temporary storage at %s", dir.Path())
	case opts.DataPath != "":
		cfg.DataPath = opts.DataPath
	}

	if opts.ServiceURL != "" {
		cfg.ServiceURL = opts.ServiceURL
	}

	auth, release, err := o.authorizer(opts)
	if err != nil {
		return err
	}
	defer release()

	o.logger.Debug("Starting %s signer (storage: %s, service: %s)", runtime, cfg.DataPath, cfg.ServiceURL)
	if err := o.service.Start(ctx, cfg, auth); err != nil {
		return dserrors.Wrap(dserrors.IO, StageServiceStart, err, "unable to start signer service")
	}
	return nil
}

func (o *Orchestrator) baseline() (signer.Config, error) {
	cfg, err := o.defaults()
	if err != nil {
		if dserrors.KindOf(err) == dserrors.Config {
			return signer.Config{}, err
		}
		return signer.Config{}, dserrors.Wrap(dserrors.Config, StageConfiguration, err,
			"unable to build default signer configuration")
	}
	return cfg.Apply(o.overrides)
}

func (o *Orchestrator) authorizer(opts Options) (secret.Authorizer, func(), error) {
	if opts.Temp {
		eph, err := secret.NewEphemeral(o.rand)
		if err != nil {
			return nil, nil, dserrors.Wrap(dserrors.IO, StageAuthorization, err,
				"unable to create temporary signer password")
		}
		return eph, eph.Destroy, nil
	}

	var auth secret.Authorizer = secret.NewInteractive(o.prompter)
	if opts.UseKeyring && o.keyring != nil {
		auth = o.keyring(auth)
	}
	return auth, func() {}, nil
}
