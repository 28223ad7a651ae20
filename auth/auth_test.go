package auth_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nexfetch/nexfetch/auth"
)

func TestCredential_SetKey(t *testing.T) {
	var c auth.Credential

	if _, ok := c.Key(); ok {
		t.Error("zero-value credential should report no key")
	}

	if err := c.SetKey(""); !errors.Is(err, auth.ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey for empty key, got: %v", err)
	}

	if err := c.SetKey("abc"); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	key, ok := c.Key()
	if !ok {
		t.Fatal("expected key to be set")
	}
	if key != "abc" {
		t.Errorf("expected key %q, got %q", "abc", key)
	}
}

func TestNew_EmptyKey(t *testing.T) {
	if _, err := auth.New(""); !errors.Is(err, auth.ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api_key.txt")
	if err := os.WriteFile(path, []byte("KEY123"), 0o600); err != nil {
		t.Fatalf("writing key file: %v", err)
	}

	c, err := auth.LoadFromFile(path)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	key, ok := c.Key()
	if !ok || key != "KEY123" {
		t.Errorf("expected key %q, got %q (set=%v)", "KEY123", key, ok)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := auth.LoadFromFile(filepath.Join(t.TempDir(), "nope.txt"))
	if !errors.Is(err, auth.ErrKeyFileNotFound) {
		t.Errorf("expected ErrKeyFileNotFound, got: %v", err)
	}
}

func TestLoadFromFile_Directory(t *testing.T) {
	_, err := auth.LoadFromFile(t.TempDir())
	if !errors.Is(err, auth.ErrKeyFileNotFound) {
		t.Errorf("expected ErrKeyFileNotFound for directory, got: %v", err)
	}
}

func TestLoadFromFile_PreservesWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api_key.txt")
	if err := os.WriteFile(path, []byte("KEY123\n"), 0o600); err != nil {
		t.Fatalf("writing key file: %v", err)
	}

	c, err := auth.LoadFromFile(path)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if key, _ := c.Key(); key != "KEY123\n" {
		t.Errorf("expected verbatim content %q, got %q", "KEY123\n", key)
	}
}
