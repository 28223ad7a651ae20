// Package auth holds the Nexus Mods API key credential.
//
// A Credential starts out unauthenticated; the key is attached either
// directly via [Credential.SetKey] or read from a key file with
// [LoadFromFile]. The query client consumes the key when building the
// required request headers.
package auth

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrEmptyKey is returned when a key is set to empty text.
	ErrEmptyKey = errors.New("api key must not be empty")
	// ErrKeyFileNotFound is returned by [LoadFromFile] when the path
	// does not reference an existing file.
	ErrKeyFileNotFound = errors.New("api key file not found")
)

// Credential holds an optional API key. The zero value is valid and
// means "not yet authenticated".
type Credential struct {
	key string
	set bool
}

// New returns a Credential with the given key attached.
func New(key string) (*Credential, error) {
	c := &Credential{}
	if err := c.SetKey(key); err != nil {
		return nil, err
	}

	return c, nil
}

// SetKey stores the key after validating it is non-empty text.
func (c *Credential) SetKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	c.key = key
	c.set = true

	return nil
}

// Key returns the stored key and whether one has been set.
func (c *Credential) Key() (string, bool) {
	return c.key, c.set
}

// LoadFromFile reads the full text content of the file at path and
// returns a Credential holding it as the key. The content is used
// verbatim; trailing whitespace is not stripped, so key files should
// not end with a newline.
func LoadFromFile(path string) (*Credential, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrKeyFileNotFound, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading api key file: %w", err)
	}

	return New(string(data))
}
