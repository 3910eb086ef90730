package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned when a destroyed Sealed value is used.
var ErrDestroyed = errors.New("secure: value destroyed")

// Sealed is an encrypted in-memory copy of a secret.
type Sealed struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	size      int
	destroyed bool
}

// Seal copies data into a new enclave and wipes data.
func Seal(data []byte) *Sealed {
	s := &Sealed{size: len(data)}
	// memguard.NewEnclave rejects empty input with a nil enclave; an empty
	// password is still a valid password, so it is tracked by size alone.
	if len(data) > 0 {
		s.enclave = memguard.NewEnclave(data)
	}
	memguard.WipeBytes(data)
	return s
}

// Len returns the plaintext length.
func (s *Sealed) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Use decrypts the value and passes the plaintext to fn. The plaintext is
// wiped as soon as fn returns; fn must not retain it.
func (s *Sealed) Use(fn func(plaintext []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return ErrDestroyed
	}
	if s.enclave == nil {
		return fn([]byte{})
	}

	locked, err := s.enclave.Open()
	if err != nil {
		return err
	}
	defer locked.Destroy()

	return fn(locked.Bytes())
}

// Clone returns an independent sealed copy.
func (s *Sealed) Clone() (*Sealed, error) {
	var clone *Sealed
	err := s.Use(func(plaintext []byte) error {
		buf := make([]byte, len(plaintext))
		copy(buf, plaintext)
		clone = Seal(buf)
		return nil
	})
	return clone, err
}

// Destroy drops the enclave. It is idempotent; later calls to Use fail with
// ErrDestroyed.
func (s *Sealed) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}
	s.enclave = nil
	s.size = 0
	s.destroyed = true
}

// Purge wipes all memguard-managed memory. Call once at process exit.
func Purge() {
	memguard.Purge()
}
