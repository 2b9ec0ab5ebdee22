package auth

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// credential is the persisted key/value record stored alongside the vault.
type credential struct {
	Username        string `yaml:"username"`
	PasswordChanged bool   `yaml:"passwordChanged"`
	PasswordHash    string `yaml:"passwordHash,omitempty"`
	PasswordSalt    string `yaml:"passwordSalt,omitempty"`
	VaultID         string `yaml:"vaultID,omitempty"`
}

func defaultCredential() credential {
	return credential{
		Username:        BootstrapUsername,
		PasswordChanged: false,
	}
}

func loadCredential(path string) (credential, error) {
	var cred credential

	data, err := os.ReadFile(path)
	if err != nil {
		return cred, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cred); err != nil {
		return cred, fmt.Errorf("failed to parse config: %w", err)
	}
	if cred.Username == "" {
		cred.Username = BootstrapUsername
	}
	return cred, nil
}

// saveCredential persists the record with write-then-rename so a crash
// mid-write never leaves a truncated config behind.
func saveCredential(path string, cred credential) error {
	data, err := yaml.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Chmod(FilePermSecure); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}
