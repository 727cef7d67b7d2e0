package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// shellCompletion describes how to generate and install completions for one
// shell. An empty dir means automatic install is not supported.
type shellCompletion struct {
	generate func(w io.Writer) error
	dir      []string // relative to the home directory
	file     string
	session  string
	after    []string
}

var shells = map[string]shellCompletion{
	"bash": {
		generate: func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
		dir:      []string{".local", "share", "bash-completion", "completions"},
		file:     "pw",
		session:  `eval "$(pw completion bash)"`,
		after:    []string{"Restart your shell or run: source %s"},
	},
	"zsh": {
		generate: rootCmd.GenZshCompletion,
		dir:      []string{".local", "share", "zsh", "site-functions"},
		file:     "_pw",
		session:  `eval "$(pw completion zsh)"`,
		after: []string{
			"Ensure the directory of %s is in your fpath, then run:",
			"  autoload -Uz compinit && compinit",
		},
	},
	"fish": {
		generate: func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
		dir:      []string{".config", "fish", "completions"},
		file:     "pw.fish",
		session:  "pw completion fish | source",
		after:    []string{"Completions from %s load in new fish sessions."},
	},
	"powershell": {
		generate: rootCmd.GenPowerShellCompletionWithDesc,
		session:  "pw completion powershell | Out-String | Invoke-Expression",
	},
}

var completionInstall bool

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Set up shell completions for pw",
	Long: `Print or install tab-completions for pw commands, flags and task IDs.

Supported shells: bash, zsh, fish, powershell

  pw completion bash --install
  eval "$(pw completion zsh)"

Task IDs are completed from the snapshot saved by the last successful
reload, so completion never waits on the backend.`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		sh, ok := shells[args[0]]
		if !ok {
			return fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, powershell)", args[0])
		}

		if completionInstall {
			return installCompletion(cmd.OutOrStdout(), args[0], sh)
		}
		// Hints go to stderr so the script can be piped.
		fmt.Fprintf(cmd.ErrOrStderr(), "# To load completions in your current session:\n#   %s\n", sh.session)
		return sh.generate(cmd.OutOrStdout())
	},
}

func installCompletion(out io.Writer, name string, sh shellCompletion) error {
	if len(sh.dir) == 0 {
		return fmt.Errorf("automatic install is not supported for %s; add the output of 'pw completion %s' to your profile", name, name)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("detecting home directory: %w", err)
	}

	dir := filepath.Join(append([]string{home}, sh.dir...)...)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}
	target := filepath.Join(dir, sh.file)
	if err := writeCompletionFile(target, sh.generate); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s completions installed to %s\n", name, target)
	for _, line := range sh.after {
		if strings.Contains(line, "%s") {
			line = fmt.Sprintf(line, target)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

// writeCompletionFile creates target and writes the script into it,
// propagating close errors.
func writeCompletionFile(target string, generate func(io.Writer) error) error {
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating completion file %s: %w", target, err)
	}

	writeErr := generate(f)
	closeErr := f.Close()
	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing completion file %s: %w", target, closeErr)
	}
	return nil
}

// completeTaskIDs offers the IDs of the cached task list, titles as
// descriptions, for commands taking a single task ID.
func completeTaskIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 || Snapshot == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	snap, err := Snapshot.LoadTasks()
	if err != nil || snap == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var out []string
	for _, t := range snap.Tasks {
		if strings.HasPrefix(t.ID, toComplete) {
			out = append(out, t.ID+"\t"+t.Title)
		}
	}
	sort.Strings(out)
	return out, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false,
		"Install completions into your shell profile")

	for _, c := range []*cobra.Command{taskShowCmd, taskEditCmd, taskDoneCmd, taskDeleteCmd} {
		c.ValidArgsFunction = completeTaskIDs
	}

	// Replace Cobra's default completion command with ours.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}
