package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/aapslab/report-atlas/pkg/services/config"
	"github.com/spf13/cobra"
)

// PasswordEnv is read when --password is not given.
const PasswordEnv = config.EnvPrefix + "_PASSWORD"

type LoginCmd struct {
	username string
	password string
	status   bool
	env      Env
}

func NewLoginCmd(env Env) *cobra.Command {
	lc := &LoginCmd{env: env}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Obtain and store an API token",
		RunE:  lc.run,
	}

	cmd.Flags().StringVar(&lc.username, "username", "", "API user name")
	cmd.Flags().StringVar(&lc.password, "password", "", "API password (default $"+PasswordEnv+")")
	cmd.Flags().BoolVar(&lc.status, "status", false, "Only report whether a token is stored")

	return cmd
}

func (lc *LoginCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := lc.env.App(ctx)
	if err != nil {
		return err
	}

	if lc.status {
		_, err := a.Token(ctx)
		switch {
		case err == nil:
			fmt.Fprintf(cmd.OutOrStdout(), "Token stored for profile %s\n", a.Settings.CredentialsProfile)
		case errors.Is(err, config.ErrNoToken):
			fmt.Fprintf(cmd.OutOrStdout(), "No token stored for profile %s\n", a.Settings.CredentialsProfile)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "No credentials for profile %s: %v\n", a.Settings.CredentialsProfile, err)
		}
		return nil
	}

	password := lc.password
	if password == "" {
		password = os.Getenv(PasswordEnv)
	}
	if lc.username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}

	if err := a.Login(ctx, lc.username, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in, token stored for profile %s\n", a.Settings.CredentialsProfile)
	return nil
}
