package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackieclzheng/AiBuildIp/pkg/config"
)

// NewSecretCommand stores the SMTP password in the OS keyring so the config
// file can set smtp.passwordFromKeyring instead of carrying it.
func NewSecretCommand() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Store the SMTP password in the OS keyring (read from stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if username == "" {
				username = rt.cfg.SMTP.Username
			}
			if username == "" {
				return errors.New("--username is required when smtp.username is not configured")
			}
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				return errors.New("empty password")
			}
			if err := config.StorePassword(username, password); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Password for %s stored in keyring service %q.\n", username, config.KeyringService)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "SMTP username (defaults to smtp.username)")

	return cmd
}
