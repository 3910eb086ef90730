package errors

import (
	"errors"
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// CommandError represents a command execution error
type CommandError struct {
	Command    string
	ExitCode   int
	Message    string
	Suggestion string
}

func (e CommandError) Error() string {
	msg := fmt.Sprintf("Command '%s' failed", e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code: %d)", e.ExitCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// Kind classifies a bootstrap failure.
type Kind int

const (
	// ArgumentConflict means mutually exclusive inputs were supplied together.
	ArgumentConflict Kind = iota + 1
	// ValueValidation means an input value is outside the supported set.
	ValueValidation
	// Config means no usable baseline configuration could be built.
	Config
	// IO covers filesystem, network and dependent service failures.
	IO
	// Integrity means fetched bytes did not match their pinned checksum.
	Integrity
	// Decode means checksummed bytes could not be decoded.
	Decode
)

func (k Kind) String() string {
	switch k {
	case ArgumentConflict:
		return "argument conflict"
	case ValueValidation:
		return "value validation"
	case Config:
		return "configuration"
	case IO:
		return "i/o"
	case Integrity:
		return "integrity"
	case Decode:
		return "decode"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. A BootstrapError matches the sentinel of its Kind.
var (
	ErrArgumentConflict = &kindError{ArgumentConflict}
	ErrValueValidation  = &kindError{ValueValidation}
	ErrConfig           = &kindError{Config}
	ErrIO               = &kindError{IO}
	ErrIntegrity        = &kindError{Integrity}
	ErrDecode           = &kindError{Decode}
)

type kindError struct{ kind Kind }

func (e *kindError) Error() string { return e.kind.String() + " error" }

// Sentinel returns the errors.Is target for k.
func Sentinel(k Kind) error {
	switch k {
	case ArgumentConflict:
		return ErrArgumentConflict
	case ValueValidation:
		return ErrValueValidation
	case Config:
		return ErrConfig
	case IO:
		return ErrIO
	case Integrity:
		return ErrIntegrity
	case Decode:
		return ErrDecode
	default:
		return nil
	}
}

// BootstrapError is a fatal failure of the bootstrap pipeline. Stage names the
// step that failed so the user can tell argument validation apart from a
// checksum mismatch without reading a stack trace.
type BootstrapError struct {
	Kind    Kind
	Stage   string
	Message string
	Err     error
}

func (e *BootstrapError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String() + " error"
	}
	if e.Stage != "" {
		msg = e.Stage + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BootstrapError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *BootstrapError) Is(target error) bool {
	if k, ok := target.(*kindError); ok {
		return k.kind == e.Kind
	}
	return false
}

// New builds a BootstrapError without a cause.
func New(kind Kind, stage, format string, args ...interface{}) error {
	return &BootstrapError{
		Kind:    kind,
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap builds a BootstrapError around err. It returns nil when err is nil.
func Wrap(kind Kind, stage string, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &BootstrapError{
		Kind:    kind,
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// KindOf returns the kind of the outermost BootstrapError in err's chain, or
// zero when there is none.
func KindOf(err error) Kind {
	var be *BootstrapError
	if errors.As(err, &be) {
		return be.Kind
	}
	return 0
}

// WrapCommandNotFound wraps command not found errors with helpful suggestions
func WrapCommandNotFound(command string, err error) error {
	suggestions := map[string]string{
		"manta":        "Install the Manta node from https://github.com/Manta-Network/Manta/releases",
		"manta-signer": "Install the Manta Signer from https://github.com/Manta-Network/manta-signer/releases",
	}

	suggestion := suggestions[command]
	if suggestion == "" {
		suggestion = fmt.Sprintf("Make sure '%s' is installed and in your PATH, or set its path in the config file", command)
	}

	return CommandError{
		Command:    command,
		Message:    "command not found",
		Suggestion: suggestion,
	}
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Already a user-friendly error
	var be *BootstrapError
	if errors.As(err, &be) {
		return err
	}
	if _, ok := err.(UserError); ok {
		return err
	}
	if _, ok := err.(ConfigError); ok {
		return err
	}
	if _, ok := err.(CommandError); ok {
		return err
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	return err
}
