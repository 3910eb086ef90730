package secret

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// DefaultPrompt is shown by the interactive authorizer.
const DefaultPrompt = "Enter Password: "

// Prompter reads one secret from a human. Prompt blocks until input arrives
// or the underlying read fails.
type Prompter interface {
	Prompt(prompt string) ([]byte, error)
}

// TerminalPrompter reads a password from a terminal without echo.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer

	mu    sync.Mutex
	state *term.State
}

// NewTerminalPrompter prompts on stderr and reads from stdin.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

// Prompt implements Prompter.
func (p *TerminalPrompter) Prompt(prompt string) ([]byte, error) {
	fd := int(p.In.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("stdin is not a terminal")
	}

	state, err := term.GetState(fd)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.state = nil
		p.mu.Unlock()
	}()

	fmt.Fprint(p.Out, prompt)
	defer fmt.Fprintln(p.Out)
	return term.ReadPassword(fd)
}

// Cancel restores the terminal if a prompt is still waiting for input.
// ReadPassword disables echo and only restores it when the read returns.
func (p *TerminalPrompter) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != nil {
		_ = term.Restore(int(p.In.Fd()), p.state)
	}
}

// Interactive asks a human for the password each time it is called.
type Interactive struct {
	prompt   string
	prompter Prompter
}

// NewInteractive builds an interactive authorizer. A nil prompter uses the
// process terminal.
func NewInteractive(prompter Prompter) *Interactive {
	if prompter == nil {
		prompter = NewTerminalPrompter()
	}
	return &Interactive{prompt: DefaultPrompt, prompter: prompter}
}

type promptResult struct {
	value []byte
	err   error
}

// Password runs the blocking prompt on its own goroutine so the caller stays
// responsive to ctx. Read failures and cancellation both yield Unknown.
func (a *Interactive) Password(ctx context.Context) Password {
	if ctx.Err() != nil {
		return Unknown()
	}

	done := make(chan promptResult, 1)
	go func() {
		value, err := a.prompter.Prompt(a.prompt)
		done <- promptResult{value: value, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			clear(res.value)
			return Unknown()
		}
		return KnownBytes(res.value)
	case <-ctx.Done():
		if c, ok := a.prompter.(interface{ Cancel() }); ok {
			c.Cancel()
		}
		// The prompt goroutine cannot be interrupted; wipe whatever it
		// eventually reads.
		go func() {
			res := <-done
			clear(res.value)
		}()
		return Unknown()
	}
}
