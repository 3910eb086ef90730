package signer

import (
	"context"
	"fmt"
	"io"

	"github.com/Manta-Network/cli/internal/execenv"
	"github.com/Manta-Network/cli/internal/logging"
	"github.com/Manta-Network/cli/internal/secret"
)

// DefaultPasswordAttempts bounds how often ProcessService asks for a
// password before giving up.
const DefaultPasswordAttempts = 3

// Service runs the signer until it stops or ctx is cancelled. Start blocks
// for the lifetime of the service.
type Service interface {
	Start(ctx context.Context, cfg Config, auth secret.Authorizer) error
}

// ServiceFunc adapts a function to the Service interface.
type ServiceFunc func(ctx context.Context, cfg Config, auth secret.Authorizer) error

// Start calls f.
func (f ServiceFunc) Start(ctx context.Context, cfg Config, auth secret.Authorizer) error {
	return f(ctx, cfg, auth)
}

// ProcessService runs the external signer binary. The password is written to
// the child's stdin followed by a newline, then stdin is closed.
type ProcessService struct {
	Binary   string
	Attempts int
	Stdout   io.Writer
	Stderr   io.Writer

	executor *execenv.Executor
	logger   *logging.Logger
}

// NewProcessService creates a service that launches binary.
func NewProcessService(binary string, logger *logging.Logger) *ProcessService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ProcessService{
		Binary:   binary,
		Attempts: DefaultPasswordAttempts,
		executor: execenv.New(logger),
		logger:   logger,
	}
}

// Args returns the command line used to start the signer for cfg.
func (s *ProcessService) Args(cfg Config) []string {
	return []string{s.Binary, "--data-path", cfg.DataPath, "--service-url", cfg.ServiceURL}
}

// Start implements Service.
func (s *ProcessService) Start(ctx context.Context, cfg Config, auth secret.Authorizer) error {
	if err := execenv.ValidateCommand([]string{s.Binary}); err != nil {
		return err
	}

	password, err := s.obtainPassword(ctx, auth)
	if err != nil {
		return err
	}
	defer password.Destroy()

	stdin, stdinWriter := io.Pipe()
	go func() {
		err := password.Use(func(plaintext []byte) error {
			if _, err := stdinWriter.Write(plaintext); err != nil {
				return err
			}
			_, err := stdinWriter.Write([]byte("\n"))
			return err
		})
		_ = stdinWriter.CloseWithError(err)
	}()
	// Unblocks the writer if the child exits without reading.
	defer stdin.Close()

	s.logger.Info("Starting signer at %s (storage: %s)", cfg.ServiceURL, cfg.DataPath)
	return s.executor.Exec(ctx, execenv.ExecOptions{
		Command: s.Args(cfg),
		Stdin:   stdin,
		Stdout:  s.Stdout,
		Stderr:  s.Stderr,
	})
}

func (s *ProcessService) obtainPassword(ctx context.Context, auth secret.Authorizer) (secret.Password, error) {
	attempts := s.Attempts
	if attempts <= 0 {
		attempts = DefaultPasswordAttempts
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		p := auth.Password(ctx)
		if p.IsKnown() {
			return p, nil
		}
		if err := ctx.Err(); err != nil {
			return secret.Unknown(), fmt.Errorf("password prompt cancelled: %w", err)
		}
		s.logger.Warn("Unable to read password (attempt %d of %d)", attempt, attempts)
	}
	return secret.Unknown(), fmt.Errorf("no password after %d attempts: %w", attempts, secret.ErrUnknown)
}
