package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestCompletionReplacesDefaultCommand(t *testing.T) {
	if !rootCmd.CompletionOptions.DisableDefaultCmd {
		t.Error("expected Cobra default completion command to be disabled")
	}
	if cmd, _, err := rootCmd.Find([]string{"completion"}); err != nil || cmd != completionCmd {
		t.Error("completion command not registered on root")
	}
}

func TestCompletionNoArgsShowsHelp(t *testing.T) {
	out, _, err := runCommand(t, "", "completion")
	if err != nil {
		t.Fatalf("completion with no args should show help: %v", err)
	}
	if !strings.Contains(out, "pw completion bash --install") {
		t.Errorf("help should show install instructions:\n%s", out)
	}
}

func TestCompletionScripts(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{"bash", "__start_pw"},
		{"zsh", "compdef"},
		{"fish", "complete"},
		{"powershell", "Register-ArgumentCompleter"},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			out, errOut, err := runCommand(t, "", "completion", tt.shell)
			if err != nil {
				t.Fatalf("completion %s: %v", tt.shell, err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("script should contain %q", tt.want)
			}
			if strings.Contains(out, "To load completions") || !strings.Contains(errOut, "To load completions") {
				t.Error("hints belong on stderr")
			}
		})
	}
}

func TestCompletionUnsupportedShell(t *testing.T) {
	if _, _, err := runCommand(t, "", "completion", "nushell"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}

func TestCompletionInstall(t *testing.T) {
	tests := []struct {
		shell  string
		target []string
		want   string
	}{
		{"bash", []string{".local", "share", "bash-completion", "completions", "pw"}, "__start_pw"},
		{"zsh", []string{".local", "share", "zsh", "site-functions", "_pw"}, "compdef"},
		{"fish", []string{".config", "fish", "completions", "pw.fish"}, "complete"},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			home := t.TempDir()
			t.Setenv("HOME", home)
			t.Setenv("USERPROFILE", home)

			out, _, err := runCommand(t, "", "completion", tt.shell, "--install")
			if err != nil {
				t.Fatalf("completion %s --install: %v", tt.shell, err)
			}

			target := filepath.Join(append([]string{home}, tt.target...)...)
			data, err := os.ReadFile(target)
			if err != nil {
				t.Fatalf("expected completion file at %s: %v", target, err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("completion file should contain %q", tt.want)
			}
			if !strings.Contains(out, target) {
				t.Errorf("output should name the file: %q", out)
			}
		})
	}
}

func TestCompletionInstallPowershellFails(t *testing.T) {
	_, _, err := runCommand(t, "", "completion", "powershell", "--install")
	if err == nil || !strings.Contains(err.Error(), "not supported") {
		t.Errorf("expected unsupported install error, got %v", err)
	}
}

func TestCompleteTaskIDs(t *testing.T) {
	f := setupCLI(t)

	got, directive := completeTaskIDs(taskDoneCmd, nil, "")
	if len(got) != 0 || directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("no snapshot: got %v, %v", got, directive)
	}

	if err := f.snapshot.SaveTasks(sampleTasks()); err != nil {
		t.Fatal(err)
	}
	got, _ = completeTaskIDs(taskDoneCmd, nil, "")
	if strings.Join(got, "|") != "a\tWrite report|b\tRead book|c\tGym" {
		t.Errorf("completions = %q", got)
	}

	got, _ = completeTaskIDs(taskDoneCmd, nil, "b")
	if len(got) != 1 || !strings.HasPrefix(got[0], "b\t") {
		t.Errorf("prefix b: %q", got)
	}

	if got, _ := completeTaskIDs(taskDoneCmd, []string{"a"}, ""); len(got) != 0 {
		t.Errorf("second argument should not complete: %q", got)
	}
}

func TestTaskCommandsCompleteIDs(t *testing.T) {
	for _, c := range []*cobra.Command{taskShowCmd, taskEditCmd, taskDoneCmd, taskDeleteCmd} {
		if c.ValidArgsFunction == nil {
			t.Errorf("%s has no task ID completion", c.CommandPath())
		}
	}
}
