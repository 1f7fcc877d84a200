// cli/auth.go
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ViniZap4/lumi-notes/auth"
	"github.com/ViniZap4/lumi-notes/domain"
)

// readPassword takes the password flag, or the first line of stdin.
func readPassword(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return "", errors.New("password is required")
	}
	return line, nil
}

func signedIn(cmd *cobra.Command, sess domain.Session) {
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", sess.User.Name, sess.User.Email)
}

func newLoginCmd(o *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the notes API",
		Long: `Sign in and keep the session on this device.

Examples:
  lumi login --email ada@example.com
  echo "$PASSWORD" | lumi login --email ada@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := o.load(cmd)
			if err != nil {
				return err
			}
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			sess, err := app.Auth.Login(cmd.Context(), email, pw)
			if err != nil {
				return err
			}
			signedIn(cmd, sess)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "account password (read from stdin when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCmd(o *options) *cobra.Command {
	var in auth.RegisterInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := o.load(cmd)
			if err != nil {
				return err
			}
			if in.Password, err = readPassword(cmd, in.Password); err != nil {
				return err
			}
			sess, err := app.Auth.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			signedIn(cmd, sess)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&in.Password, "password", "", "account password (read from stdin when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := o.load(cmd)
			if err != nil {
				return err
			}
			if err := app.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newLogoutAllCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout-all",
		Short: "Sign out everywhere",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := o.load(cmd)
			if err != nil {
				return err
			}
			if err := app.Auth.LogoutAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out of every session")
			return nil
		},
	}
}

func newRefreshCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Renew the access token",
		Long:  "Renew the access token. A failed refresh signs you out.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := o.load(cmd)
			if err != nil {
				return err
			}
			if _, err := app.Auth.Refresh(cmd.Context()); err != nil {
				return fmt.Errorf("session ended: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session refreshed")
			return nil
		},
	}
}

func newWhoamiCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := o.load(cmd)
			if err != nil {
				return err
			}
			sess := app.Auth.Session()
			if !sess.IsAuthenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", sess.User.Name, sess.User.Email, sess.User.ID)
			if !app.Sessions.Secure() {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: no secure keychain, refresh token kept in plain storage")
			}
			return nil
		},
	}
}
