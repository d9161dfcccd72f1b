package daemon

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// LoadOrCreateToken returns the token stored at tokenPath, generating and
// persisting a new one on first run. The file is kept at mode 0600.
func LoadOrCreateToken(tokenPath string) (string, error) {
	token, err := ReadToken(tokenPath)
	switch {
	case err == nil && token != "":
		_ = os.Chmod(tokenPath, 0o600)
		return token, nil
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return "", err
	}

	token, err = generateToken()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(tokenPath), 0o700); err != nil {
		return "", err
	}
	if err := os.WriteFile(tokenPath, []byte(token+"\n"), 0o600); err != nil {
		return "", err
	}
	_ = os.Chmod(tokenPath, 0o600)
	return token, nil
}

// ReadToken reads the token file without creating it.
func ReadToken(tokenPath string) (string, error) {
	data, err := os.ReadFile(tokenPath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
