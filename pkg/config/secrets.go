package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the keyring service the SMTP password is stored under,
// keyed by SMTP username.
const KeyringService = "digestmail"

// ResolveSecrets fills the SMTP password from the OS keyring when requested
// and not already set.
func (c *Config) ResolveSecrets() error {
	if c.SMTP.Password != "" || !c.SMTP.PasswordFromKeyring {
		return nil
	}
	if c.SMTP.Username == "" {
		return errors.New("smtp.passwordFromKeyring requires smtp.username")
	}
	password, err := keyring.Get(KeyringService, c.SMTP.Username)
	if err != nil {
		return fmt.Errorf("failed to read smtp password for %s from keyring: %w", c.SMTP.Username, err)
	}
	c.SMTP.Password = password
	return nil
}

// StorePassword saves an SMTP password in the OS keyring.
func StorePassword(username, password string) error {
	if err := keyring.Set(KeyringService, username, password); err != nil {
		return fmt.Errorf("failed to store smtp password for %s: %w", username, err)
	}
	return nil
}
