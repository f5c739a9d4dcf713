package tokencache

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pardot/logoff"
	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
	"golang.org/x/term"
)

type PassphrasePromptFunc func(prompt string) (passphrase string, err error)

// CredentialCache persists the tokens a relying party holds, keyed by issuer
// and client ID. Implementations are not required to be goroutine safe;
// Store synchronizes its own access.
type CredentialCache interface {
	// Get returns the tokens for the given issuer and clientID. Cache misses
	// are _not_ considered an error, so a miss is returned as `(nil, nil)`
	Get(issuer string, clientID string) (*logoff.TokenSet, error)
	// Set stores tokens for the given issuer and clientID.
	Set(issuer string, clientID string, tokens *logoff.TokenSet) error
	// Delete removes any tokens for the given issuer and clientID. Deleting
	// a missing entry is not an error.
	Delete(issuer string, clientID string) error
	// Available returns true if the credential cache is supported on this
	// platform or environment.
	Available() bool
}

// BestCredentialCache returns the most preferred available credential cache
// for the platform and environment.
func BestCredentialCache() CredentialCache {
	for _, c := range []CredentialCache{
		&KeychainCredentialCache{},
		&EncryptedFileCredentialCache{},
	} {
		if c.Available() {
			return c
		}
	}

	return &NullCredentialCache{}
}

// KeychainCredentialCache stores tokens as generic passwords in the macOS
// keychain.
type KeychainCredentialCache struct{}

var _ CredentialCache = &KeychainCredentialCache{}

const keychainNotFound = "could not be found"

func (k *KeychainCredentialCache) Get(issuer string, clientID string) (*logoff.TokenSet, error) {
	out, err := exec.Command(
		"/usr/bin/security",
		"find-generic-password",
		"-s", issuer,
		"-a", clientID,
		"-w",
	).CombinedOutput()
	if err != nil {
		if bytes.Contains(out, []byte(keychainNotFound)) {
			return nil, nil
		}

		return nil, errors.Wrapf(err, "%s", string(out))
	}

	var tokens logoff.TokenSet
	if err := json.Unmarshal(out, &tokens); err != nil {
		return nil, errors.Wrap(err, "failed to decode tokens")
	}

	return &tokens, nil
}

func (k *KeychainCredentialCache) Set(issuer string, clientID string, tokens *logoff.TokenSet) error {
	b, err := json.Marshal(tokens)
	if err != nil {
		return errors.Wrap(err, "failed to encode tokens")
	}

	out, err := exec.Command(
		"/usr/bin/security",
		"add-generic-password",
		"-s", issuer,
		"-a", clientID,
		"-w", string(b),
		"-U",
	).CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "%s", string(out))
	}

	return nil
}

func (k *KeychainCredentialCache) Delete(issuer string, clientID string) error {
	out, err := exec.Command(
		"/usr/bin/security",
		"delete-generic-password",
		"-s", issuer,
		"-a", clientID,
	).CombinedOutput()
	if err != nil && !bytes.Contains(out, []byte(keychainNotFound)) {
		return errors.Wrapf(err, "%s", string(out))
	}

	return nil
}

func (k *KeychainCredentialCache) Available() bool {
	if runtime.GOOS != "darwin" {
		return false
	}

	_, err := os.Stat("/usr/bin/security")

	return err == nil
}

const encryptedFileKeySize = 32
const encryptedFileNonceSize = 24
const encryptedFileSaltSize = 8

// EncryptedFileCredentialCache stores tokens in files encrypted with a key
// derived from a user supplied passphrase.
type EncryptedFileCredentialCache struct {
	// Dir is the path where encrypted cache files will be stored.
	// If empty, defaults to ~/.oidc-cache/
	Dir string

	// PassphrasePromptFunc is a function that prompts the user to enter a
	// passphrase used to encrypt and decrypt a file.
	PassphrasePromptFunc
}

var _ CredentialCache = &EncryptedFileCredentialCache{}

func (e *EncryptedFileCredentialCache) Get(issuer string, clientID string) (*logoff.TokenSet, error) {
	filename, err := e.filename(issuer, clientID)
	if err != nil {
		return nil, err
	}

	contents, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to read file %q", filename)
	}

	if len(contents) < encryptedFileNonceSize+encryptedFileSaltSize {
		return nil, fmt.Errorf("file %q missing nonce", filename)
	}

	// File structure is:
	// 24 bytes: nonce
	// 8 bytes: salt
	// N bytes: ciphertext
	var nonce [encryptedFileNonceSize]byte
	copy(nonce[:], contents)
	var salt [encryptedFileSaltSize]byte
	copy(salt[:], contents[encryptedFileNonceSize:])
	ciphertext := contents[encryptedFileNonceSize+encryptedFileSaltSize:]

	passphrase, err := e.promptFuncOrDefault()(fmt.Sprintf("Enter passphrase for decrypting %s tokens", issuer))
	if err != nil {
		return nil, err
	}

	key, err := passphraseToKey(passphrase, salt)
	if err != nil {
		return nil, err
	}

	plaintext, ok := secretbox.Open(nil, ciphertext, &nonce, &key)
	if !ok {
		// wrong passphrase, treat as a miss
		return nil, nil
	}

	tokens := new(logoff.TokenSet)
	if err := json.Unmarshal(plaintext, tokens); err != nil {
		return nil, errors.Wrap(err, "failed to decode tokens")
	}

	return tokens, nil
}

func (e *EncryptedFileCredentialCache) Set(issuer string, clientID string, tokens *logoff.TokenSet) error {
	filename, err := e.filename(issuer, clientID)
	if err != nil {
		return err
	}

	var nonce [encryptedFileNonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return errors.Wrap(err, "failed to generate nonce")
	}

	var salt [encryptedFileSaltSize]byte
	if _, err := io.ReadFull(rand.Reader, salt[:]); err != nil {
		return errors.Wrap(err, "failed to generate salt")
	}

	passphrase, err := e.promptFuncOrDefault()(fmt.Sprintf("Enter passphrase for encrypting %s tokens", issuer))
	if err != nil {
		return err
	}

	key, err := passphraseToKey(passphrase, salt)
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(tokens)
	if err != nil {
		return errors.Wrap(err, "failed to encode tokens")
	}

	ciphertext := secretbox.Seal(nil, plaintext, &nonce, &key)

	// Writes to a bytes.Buffer always succeed (or panic)
	buf := new(bytes.Buffer)
	_, _ = buf.Write(nonce[:])
	_, _ = buf.Write(salt[:])
	_, _ = buf.Write(ciphertext)

	if err := os.WriteFile(filename, buf.Bytes(), 0600); err != nil {
		return errors.Wrapf(err, "failed to write file %q", filename)
	}

	return nil
}

func (e *EncryptedFileCredentialCache) Delete(issuer string, clientID string) error {
	filename, err := e.filename(issuer, clientID)
	if err != nil {
		return err
	}

	if err := os.Remove(filename); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove file %q", filename)
	}

	return nil
}

func (e *EncryptedFileCredentialCache) Available() bool {
	return true
}

// filename returns the cache file for issuer and clientID, creating the
// cache directory if needed. A hash is used to avoid special characters in
// filenames.
func (e *EncryptedFileCredentialCache) filename(issuer string, clientID string) (string, error) {
	dir := e.Dir
	if dir == "" {
		dir = "~/.oidc-cache"
	}

	if strings.HasPrefix(dir, "~/") {
		home, err := homedir.Dir()
		if err != nil {
			return "", errors.Wrap(err, "unable to determine home directory")
		}

		dir = path.Join(home, dir[2:])
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", errors.Wrap(err, "failed to create directory")
	}

	hsh := sha256.Sum256([]byte(cacheKey(issuer, clientID)))
	return path.Join(dir, hex.EncodeToString(hsh[:])+".enc"), nil
}

func passphraseToKey(passphrase string, salt [encryptedFileSaltSize]byte) ([encryptedFileKeySize]byte, error) {
	var akey [encryptedFileKeySize]byte

	key, err := scrypt.Key([]byte(passphrase), salt[:], 1<<15, 8, 1, encryptedFileKeySize)
	if err != nil {
		return akey, err
	}

	copy(akey[:], key)
	return akey, nil
}

func (e *EncryptedFileCredentialCache) promptFuncOrDefault() PassphrasePromptFunc {
	if e.PassphrasePromptFunc != nil {
		return e.PassphrasePromptFunc
	}

	return func(prompt string) (string, error) {
		if cp := os.Getenv("OIDC_CACHE_PASSPHRASE_DO_NOT_USE"); cp != "" {
			return cp, nil
		}

		fmt.Fprintf(os.Stderr, "%s: ", prompt)
		passphrase, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return "", err
		}
		fmt.Fprintln(os.Stderr)

		return string(passphrase), nil
	}
}

// MemoryWriteThroughCredentialCache is a write-through cache for another
// underlying CredentialCache. Tokens read once from the underlying store are
// served from memory afterwards, which matters when the store prompts for a
// passphrase.
type MemoryWriteThroughCredentialCache struct {
	CredentialCache

	m map[string]*logoff.TokenSet
}

var _ CredentialCache = &MemoryWriteThroughCredentialCache{}

func (c *MemoryWriteThroughCredentialCache) Get(issuer string, clientID string) (*logoff.TokenSet, error) {
	key := cacheKey(issuer, clientID)

	if tokens := c.m[key]; tokens != nil {
		return tokens, nil
	}

	tokens, err := c.CredentialCache.Get(issuer, clientID)
	if err != nil {
		return nil, err
	}

	if c.m == nil {
		c.m = make(map[string]*logoff.TokenSet)
	}
	c.m[key] = tokens

	return tokens, nil
}

func (c *MemoryWriteThroughCredentialCache) Set(issuer string, clientID string, tokens *logoff.TokenSet) error {
	if err := c.CredentialCache.Set(issuer, clientID, tokens); err != nil {
		return err
	}

	if c.m == nil {
		c.m = make(map[string]*logoff.TokenSet)
	}
	c.m[cacheKey(issuer, clientID)] = tokens

	return nil
}

// Delete drops the in-memory copy even if the underlying delete fails, so a
// stale token is never served from memory.
func (c *MemoryWriteThroughCredentialCache) Delete(issuer string, clientID string) error {
	delete(c.m, cacheKey(issuer, clientID))
	return c.CredentialCache.Delete(issuer, clientID)
}

func (c *MemoryWriteThroughCredentialCache) Available() bool {
	return true
}

// NullCredentialCache will not cache tokens. Use it to opt out of caching.
type NullCredentialCache struct{}

var _ CredentialCache = &NullCredentialCache{}

func (c *NullCredentialCache) Get(issuer string, clientID string) (*logoff.TokenSet, error) {
	return nil, nil
}

func (c *NullCredentialCache) Set(issuer string, clientID string, tokens *logoff.TokenSet) error {
	return nil
}

func (c *NullCredentialCache) Delete(issuer string, clientID string) error {
	return nil
}

func (c *NullCredentialCache) Available() bool {
	return true
}

func cacheKey(issuer string, clientID string) string {
	return issuer + ";" + clientID
}
