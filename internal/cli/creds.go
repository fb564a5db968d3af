package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"estate-market/internal/domain"
)

// creds is what survives between invocations after signing in.
type creds struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user,omitempty"`
}

func loadCreds(path string) (creds, error) {
	var c creds
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, err
	}
	err = json.Unmarshal(b, &c)
	return c, err
}

func saveCreds(path string, c creds) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func clearCreds(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
