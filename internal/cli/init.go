package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/planwise/internal/core"
	"github.com/valter-silva-au/planwise/pkg/models"
)

var (
	initAPIURL string
	initScope  string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a .planwise.yaml with the default settings",
	Long: `Write a .planwise.yaml configuration file into path (default: the
PlanWise home directory). pw looks for this file in the working directory
and its parents, so a project directory can carry its own backend settings.

An existing file is left alone unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := BasePath
		if len(args) > 0 {
			dir = args[0]
		}
		if dir == "" {
			dir = "."
		}
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		cfg := core.DefaultGlobalConfig()
		if initAPIURL != "" {
			cfg.API.BaseURL = initAPIURL
		}
		if initScope != "" {
			cfg.Sync.ReorderScope = models.ReorderScope(initScope)
		}
		cm := core.NewConfigurationManager(absDir)
		if err := cm.ValidateConfig(cfg); err != nil {
			return err
		}

		target := filepath.Join(absDir, core.ConfigFileName+".yaml")
		if _, err := os.Stat(target); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", target)
		}

		data, err := core.MarshalConfigFile(cfg)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(absDir, 0o750); err != nil {
			return fmt.Errorf("creating %s: %w", absDir, err)
		}
		if err := os.WriteFile(target, data, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", target)
		fmt.Fprintf(cmd.OutOrStdout(), "  Backend: %s\n", cfg.API.BaseURL)
		fmt.Fprintf(cmd.OutOrStdout(), "  Reorder scope: %s\n", cfg.Sync.ReorderScope)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initAPIURL, "api-url", "", "Backend base URL (default http://localhost:8000/api)")
	initCmd.Flags().StringVar(&initScope, "scope", "", "Reorder scope: visible or global")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
	rootCmd.AddCommand(initCmd)
}
