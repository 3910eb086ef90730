// Package secure keeps signer passwords out of ordinary Go memory.
//
// Sealed values live in a memguard enclave: encrypted at rest in memory,
// excluded from core dumps and swap where the platform allows it. Plaintext is
// only ever exposed inside a LockedBuffer that the caller must Destroy.
//
//	sealed := secure.Seal([]byte(password))
//	defer sealed.Destroy()
//
//	err := sealed.Use(func(plaintext []byte) error {
//	    return writePassword(plaintext)
//	})
//
// On Linux the mlock calls require RLIMIT_MEMLOCK headroom; when locking is
// unavailable memguard falls back to ordinary pages and sealing still works.
// Call Purge once at process exit to wipe every outstanding buffer.
package secure
