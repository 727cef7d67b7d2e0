package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	pwmcp "github.com/valter-silva-au/planwise/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the PlanWise MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the PlanWise MCP server on stdio",
	Long: `Start the PlanWise MCP server on stdio transport.

The server exposes the task list as MCP tools that AI assistants can call:
list_tasks, move_task, toggle_task, delete_task, create_task, get_metrics,
get_alerts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTasks(); err != nil {
			return err
		}

		srv := pwmcp.NewServer(Tasks, MetricsCalc, AlertEngine, appVersion)
		if err := srv.Run(cmd.Context()); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}
		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
