package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/planwise/pkg/models"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "pw",
	Short: "PlanWise - keep your task list in sync with the PlanWise backend",
	Long: `PlanWise (pw) manages your PlanWise task list from the terminal.

Every change is sent to the backend and the list is reloaded afterwards, so
what you see is always what the server has. Tasks can be filtered, searched,
completed, deleted and reordered, from single commands or from the
interactive list started by 'pw tui'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pw %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command. An interrupt cancels in-flight requests.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// ExitCode maps a command error to the process exit status: 2 when the
// failure could not be classified, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if models.KindOf(err) == models.KindUnknown {
		return 2
	}
	return 1
}

// FormatError renders a command error with its kind when it has one.
func FormatError(err error) string {
	var ke models.KindedError
	if errors.As(err, &ke) {
		return fmt.Sprintf("Error: %v [%s]", err, ke.ErrorKind())
	}
	return fmt.Sprintf("Error: %v", err)
}
