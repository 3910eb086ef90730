package secret

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plaintext(t *testing.T, p Password) string {
	t.Helper()

	var out string
	require.NoError(t, p.Use(func(b []byte) error {
		out = string(b)
		return nil
	}))
	return out
}

func TestPassword_UnknownIsNotEmpty(t *testing.T) {
	t.Parallel()

	unknown := Unknown()
	empty := Known("")

	assert.False(t, unknown.IsKnown())
	assert.True(t, empty.IsKnown())
	assert.Equal(t, "", plaintext(t, empty))

	err := unknown.Use(func([]byte) error { return nil })
	assert.ErrorIs(t, err, ErrUnknown)

	var zero Password
	assert.False(t, zero.IsKnown(), "zero value should be Unknown")
}

func TestPassword_NeverPrintsPlaintext(t *testing.T) {
	t.Parallel()

	p := Known("hunter2-hunter2")
	defer p.Destroy()

	assert.Equal(t, "[REDACTED]", p.String())
	assert.Equal(t, "[REDACTED]", p.GoString())
	assert.Equal(t, "<unknown>", Unknown().String())
}

func TestPassword_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	p := Known("original")
	clone, err := p.Clone()
	require.NoError(t, err)

	p.Destroy()
	assert.Equal(t, "original", plaintext(t, clone))

	unknownClone, err := Unknown().Clone()
	require.NoError(t, err)
	assert.False(t, unknownClone.IsKnown())
}

func TestEphemeral_DeterministicForSeed(t *testing.T) {
	t.Parallel()

	seed := bytes.Repeat([]byte{0x01}, ephemeralBytes)
	want := new(big.Int).SetBytes(seed).String()

	a, err := NewEphemeral(bytes.NewReader(seed))
	require.NoError(t, err)
	defer a.Destroy()

	assert.Equal(t, want, plaintext(t, a.Password(context.Background())))
	// Every call serves the same session password.
	assert.Equal(t, want, plaintext(t, a.Password(context.Background())))
}

func TestEphemeral_IndependentSourcesDiffer(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 64; i++ {
		e, err := NewEphemeral(rand.Reader)
		require.NoError(t, err)

		value := plaintext(t, e.Password(context.Background()))
		_, dup := seen[value]
		require.False(t, dup, "ephemeral password repeated: %s", value)
		seen[value] = struct{}{}
		e.Destroy()
	}
}

func TestEphemeral_SourceFailure(t *testing.T) {
	t.Parallel()

	_, err := NewEphemeral(bytes.NewReader([]byte{0x01, 0x02}))
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestEphemeral_IgnoresCancellation(t *testing.T) {
	t.Parallel()

	e, err := NewEphemeral(rand.Reader)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, e.Password(ctx).IsKnown())
}

type fakePrompter struct {
	mu       sync.Mutex
	value    string
	err      error
	block    chan struct{}
	calls    int
	canceled bool
}

func (f *fakePrompter) Prompt(prompt string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.value), nil
}

func (f *fakePrompter) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled = true
}

func TestInteractive_Known(t *testing.T) {
	t.Parallel()

	prompter := &fakePrompter{value: "correct horse"}
	auth := NewInteractive(prompter)

	p := auth.Password(context.Background())
	require.True(t, p.IsKnown())
	assert.Equal(t, "correct horse", plaintext(t, p))
	assert.Equal(t, 1, prompter.calls)
}

func TestInteractive_EmptyInputIsKnown(t *testing.T) {
	t.Parallel()

	p := NewInteractive(&fakePrompter{value: ""}).Password(context.Background())
	require.True(t, p.IsKnown())
	assert.Equal(t, "", plaintext(t, p))
}

func TestInteractive_ReadFailureIsUnknown(t *testing.T) {
	t.Parallel()

	p := NewInteractive(&fakePrompter{err: io.EOF}).Password(context.Background())
	assert.False(t, p.IsKnown())
}

func TestInteractive_CancellationIsUnknown(t *testing.T) {
	t.Parallel()

	prompter := &fakePrompter{value: "too late", block: make(chan struct{})}
	auth := NewInteractive(prompter)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan Password, 1)
	go func() { result <- auth.Password(ctx) }()

	require.Eventually(t, func() bool {
		prompter.mu.Lock()
		defer prompter.mu.Unlock()
		return prompter.calls == 1
	}, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case p := <-result:
		assert.False(t, p.IsKnown())
	case <-time.After(time.Second):
		t.Fatal("Password did not return after cancellation")
	}

	prompter.mu.Lock()
	assert.True(t, prompter.canceled, "prompter should be told to restore the terminal")
	prompter.mu.Unlock()

	close(prompter.block)
}

func TestInteractive_AlreadyCanceledDoesNotPrompt(t *testing.T) {
	t.Parallel()

	prompter := &fakePrompter{value: "unused"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, NewInteractive(prompter).Password(ctx).IsKnown())
	assert.Zero(t, prompter.calls)
}

type fakeKeyring struct {
	mu      sync.Mutex
	entries map[string]string
	getErr  error
	setErr  error
}

func (f *fakeKeyring) Get(service, account string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.entries[service+"/"+account]
	if !ok {
		return "", ErrKeyringItemNotFound
	}
	return v, nil
}

func (f *fakeKeyring) Set(service, account, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	if f.entries == nil {
		f.entries = make(map[string]string)
	}
	f.entries[service+"/"+account] = password
	return nil
}

func TestKeyring_UsesStoredEntry(t *testing.T) {
	t.Parallel()

	client := &fakeKeyring{entries: map[string]string{"manta-signer/default": "from-keyring"}}
	fallback := &fakePrompter{value: "from-prompt"}
	auth := NewKeyring("manta-signer", "default", NewInteractive(fallback), WithKeyringClient(client))

	assert.Equal(t, "from-keyring", plaintext(t, auth.Password(context.Background())))
	assert.Zero(t, fallback.calls, "fallback must not prompt when the keyring has the password")
}

func TestKeyring_FallsBackAndRemembers(t *testing.T) {
	t.Parallel()

	client := &fakeKeyring{}
	auth := NewKeyring("manta-signer", "default",
		NewInteractive(&fakePrompter{value: "typed"}),
		WithKeyringClient(client),
		WithRemember(true),
	)

	assert.Equal(t, "typed", plaintext(t, auth.Password(context.Background())))
	assert.Equal(t, "typed", client.entries["manta-signer/default"])
}

func TestKeyring_LookupErrorFallsBack(t *testing.T) {
	t.Parallel()

	client := &fakeKeyring{getErr: errors.New("dbus unavailable"), setErr: errors.New("dbus unavailable")}
	auth := NewKeyring("manta-signer", "default",
		NewInteractive(&fakePrompter{value: "typed"}),
		WithKeyringClient(client),
		WithRemember(true),
	)

	p := auth.Password(context.Background())
	assert.Equal(t, "typed", plaintext(t, p))
}

func TestKeyring_NoFallbackIsUnknown(t *testing.T) {
	t.Parallel()

	auth := NewKeyring("manta-signer", "default", nil, WithKeyringClient(&fakeKeyring{}))
	assert.False(t, auth.Password(context.Background()).IsKnown())
}

func TestAuthorizerFunc(t *testing.T) {
	t.Parallel()

	var auth Authorizer = AuthorizerFunc(func(context.Context) Password { return Known("fn") })
	assert.Equal(t, "fn", plaintext(t, auth.Password(context.Background())))
}
