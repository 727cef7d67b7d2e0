package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/valter-silva-au/planwise/internal/integration"
	"github.com/valter-silva-au/planwise/pkg/models"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the backend session",
	Long: `Log in to the PlanWise backend and manage the stored bearer token.

The token is kept in session.yaml in the PlanWise home directory, readable
by the owner only.`,
}

var authLoginEmail string

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password",
	Long: `Log in and store the returned bearer token. The password is read from
the terminal without echo, or from the first line of stdin when it is not a
terminal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Backend == nil || Session == nil {
			return fmt.Errorf("backend client not initialized")
		}
		if authLoginEmail == "" {
			return &models.ValidationError{Problems: []string{"--email is required"}}
		}

		password, err := readPassword(cmd)
		if err != nil {
			return err
		}
		if password == "" {
			return &models.ValidationError{Problems: []string{"password must not be empty"}}
		}

		resp, err := Backend.Login(cmd.Context(), authLoginEmail, password)
		if err != nil {
			return err
		}

		Session.Set(models.Session{
			Token:    resp.AccessToken,
			UserID:   resp.User.ID,
			Email:    resp.User.Email,
			Username: resp.User.Username,
		})
		if err := Session.Save(); err != nil {
			return err
		}

		name := resp.User.Username
		if name == "" {
			name = authLoginEmail
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", name)
		return nil
	},
}

var authTokenCmd = &cobra.Command{
	Use:   "token <bearer-token>",
	Short: "Store a bearer token obtained elsewhere",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Session == nil {
			return fmt.Errorf("session store not initialized")
		}
		token := strings.TrimSpace(args[0])
		if err := integration.CheckTokenExpiry(token, time.Now()); err != nil {
			return err
		}

		Session.Set(models.Session{Token: token, UserID: integration.TokenSubject(token)})
		if err := Session.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Token saved.")
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Session == nil {
			return fmt.Errorf("session store not initialized")
		}
		if err := Session.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Session == nil {
			return fmt.Errorf("session store not initialized")
		}
		printSessionStatus(cmd.OutOrStdout(), Session.Get(), time.Now())
		return nil
	},
}

func printSessionStatus(w io.Writer, s models.Session, now time.Time) {
	if !s.IsAuthenticated() {
		fmt.Fprintln(w, "Not logged in. Run 'pw auth login --email <email>'.")
		return
	}

	who := s.Username
	if who == "" {
		who = s.Email
	}
	if who == "" {
		who = s.UserID
	}
	if who != "" {
		fmt.Fprintf(w, "Logged in as %s\n", who)
	} else {
		fmt.Fprintln(w, "Logged in")
	}
	if s.Email != "" && s.Email != who {
		fmt.Fprintf(w, "  Email:   %s\n", s.Email)
	}
	if !s.SavedAt.IsZero() {
		fmt.Fprintf(w, "  Since:   %s\n", s.SavedAt.Local().Format(time.DateTime))
	}

	exp, ok := integration.TokenExpiry(s.Token)
	switch {
	case !ok:
		fmt.Fprintln(w, "  Expires: unknown")
	case now.Before(exp):
		fmt.Fprintf(w, "  Expires: %s (in %s)\n", exp.Local().Format(time.DateTime), exp.Sub(now).Round(time.Minute))
	default:
		fmt.Fprintf(w, "  Expired: %s, run 'pw auth login'\n", exp.Local().Format(time.DateTime))
	}
}

func readPassword(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	authLoginCmd.Flags().StringVar(&authLoginEmail, "email", "", "Account email")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authTokenCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
