package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SecretsFile is the path of the admin secrets, relative to the platform path.
const SecretsFile = "secrets/tricot.json"

// ClusterSecrets maps a cluster host to the admin client credentials used on it.
//
//	{
//	  "gc.platform.youwol.com": {"clientId": "...", "clientSecret": "...", "scope": "email profile"}
//	}
type ClusterSecrets map[string]Credentials

// LoadClusterSecrets reads a secrets file. Entries lacking an id or a secret
// are dropped.
func LoadClusterSecrets(path string) (ClusterSecrets, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted settings
	if err != nil {
		return nil, fmt.Errorf("read secrets file: %w", err)
	}

	var raw ClusterSecrets
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse secrets file: %w", err)
	}

	secrets := make(ClusterSecrets, len(raw))
	for host, c := range raw {
		if c.ID != "" && c.Secret != "" {
			secrets[host] = c
		}
	}
	return secrets, nil
}

// ErrNoClusterSecret is returned when the secrets file has no entry for a cluster.
var ErrNoClusterSecret = errors.New("no secret for cluster")

// For returns the credentials of host.
func (s ClusterSecrets) For(host string) (Credentials, error) {
	c, ok := s[host]
	if !ok {
		return Credentials{}, fmt.Errorf("%w %s", ErrNoClusterSecret, host)
	}
	return c, nil
}

// SaveClusterSecret adds or replaces the entry of host in the secrets file,
// creating the file if needed. The file is replaced atomically.
func SaveClusterSecret(path, host string, creds Credentials) error {
	secrets := ClusterSecrets{}
	if _, err := os.Stat(path); err == nil {
		existing, err := LoadClusterSecrets(path)
		if err != nil {
			return err
		}
		secrets = existing
	}
	secrets[host] = creds

	data, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return fmt.Errorf("encode secrets file: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create secrets directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".secrets-*")
	if err != nil {
		return fmt.Errorf("create temp secrets file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write secrets file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod secrets file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close secrets file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace secrets file: %w", err)
	}
	return nil
}
