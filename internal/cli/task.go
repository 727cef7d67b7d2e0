package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/valter-silva-au/planwise/internal/core"
	"github.com/valter-silva-au/planwise/internal/observability"
	"github.com/valter-silva-au/planwise/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks (list, show, add, edit, done, delete, move)",
	Long: `Task commands talk to the PlanWise backend directly.

Each change is sent first and the full list is reloaded afterwards, so the
output always reflects what the backend stored.`,
}

// taskFields holds the field flags shared by "task add" and "task edit".
type taskFields struct {
	title       string
	description string
	category    string
	priority    string
	duration    int
	load        int
	deepWork    bool
}

func (f *taskFields) register(fs *pflag.FlagSet, withTitle bool) {
	if withTitle {
		fs.StringVar(&f.title, "title", "", "Task title")
	}
	fs.StringVar(&f.description, "description", "", "Longer description")
	fs.StringVar(&f.category, "category", "", "Category: "+joinNames(models.Categories))
	fs.StringVar(&f.priority, "priority", "", "Priority: "+joinNames(models.Priorities))
	fs.IntVar(&f.duration, "duration", 0, "Estimated duration in minutes")
	fs.IntVar(&f.load, "load", 0, "Cognitive load from 1 to 10")
	fs.BoolVar(&f.deepWork, "deep-work", false, "Task needs uninterrupted focus")
}

func (f *taskFields) create(title string) models.TaskCreate {
	return models.TaskCreate{
		Title:             title,
		Description:       f.description,
		Category:          models.Category(strings.ToLower(f.category)),
		Priority:          models.Priority(strings.ToLower(f.priority)),
		EstimatedDuration: f.duration,
		CognitiveLoad:     f.load,
		IsDeepWork:        f.deepWork,
	}
}

// patch builds a TaskPatch from the flags the user actually set.
func (f *taskFields) patch(fs *pflag.FlagSet) models.TaskPatch {
	var p models.TaskPatch
	if fs.Changed("title") {
		p.Title = &f.title
	}
	if fs.Changed("description") {
		p.Description = &f.description
	}
	if fs.Changed("category") {
		c := models.Category(strings.ToLower(f.category))
		p.Category = &c
	}
	if fs.Changed("priority") {
		pr := models.Priority(strings.ToLower(f.priority))
		p.Priority = &pr
	}
	if fs.Changed("duration") {
		p.EstimatedDuration = &f.duration
	}
	if fs.Changed("load") {
		p.CognitiveLoad = &f.load
	}
	if fs.Changed("deep-work") {
		p.IsDeepWork = &f.deepWork
	}
	return p
}

var (
	taskListFilter  string
	taskListSearch  string
	taskListOffline bool
	taskListJSON    bool
)

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks in display order",
	Long: `Reload the task list from the backend and print it in display order.

--filter selects all, active or completed tasks; --search matches title and
description case-insensitively. Positions in the first column are the ones
'pw task move' expects for the same filter and search.

With --offline the list is read from the snapshot saved by the last
successful reload instead of the backend.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := viewQuery(taskListFilter, taskListSearch)
		if err != nil {
			return err
		}

		var tasks []models.Task
		if taskListOffline {
			tasks, err = offlineTasks(cmd, q)
		} else {
			tasks, err = onlineTasks(cmd.Context(), q)
		}
		if err != nil {
			return err
		}

		if taskListJSON {
			data, err := sonic.MarshalIndent(tasks, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting tasks as JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		printTaskTable(cmd.OutOrStdout(), tasks, q.Search != "")
		flushNotices(cmd)
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a single task as stored by the backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Backend == nil {
			return fmt.Errorf("backend client not initialized")
		}
		task, err := Backend.GetTask(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printTaskDetail(cmd.OutOrStdout(), *task)
		return nil
	},
}

var taskAddFields taskFields

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Long: `Create a task with the given title. Unset fields take the backend
defaults: category other, priority medium, 30 minutes, cognitive load 5.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTasks(); err != nil {
			return err
		}
		res, err := Tasks.Create(cmd.Context(), taskAddFields.create(strings.Join(args, " ")))
		if err != nil {
			return err
		}

		t := res.Task
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created task %s\n", t.ID)
		fmt.Fprintf(out, "  Title:    %s\n", t.Title)
		fmt.Fprintf(out, "  Category: %s\n", t.Category)
		fmt.Fprintf(out, "  Priority: %s\n", t.Priority)
		fmt.Fprintf(out, "  Points:   %d\n", core.TaskPoints(*t))
		flushNotices(cmd)
		return nil
	},
}

var taskEditFields taskFields

var taskEditCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Change fields of a task",
	Long: `Send a partial update. Only the flags given on the command line are
changed; everything else is left as the backend has it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTasks(); err != nil {
			return err
		}
		res, err := Tasks.Update(cmd.Context(), args[0], taskEditFields.patch(cmd.Flags()))
		if err != nil {
			return err
		}
		if res.Task != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s (%s)\n", res.Task.ID, res.Task.Title)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s\n", args[0])
		}
		flushNotices(cmd)
		return nil
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Toggle a task between completed and not completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTasks(); err != nil {
			return err
		}
		if err := reloadTasks(cmd.Context()); err != nil {
			return err
		}
		res, err := Tasks.ToggleComplete(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch {
		case res.Task == nil:
			fmt.Fprintf(out, "Toggled task %s\n", args[0])
		case res.Task.Completed:
			fmt.Fprintf(out, "Completed %q (+%d points)\n", res.Task.Title, core.TaskPoints(*res.Task))
		default:
			fmt.Fprintf(out, "Reopened %q\n", res.Task.Title)
		}
		flushNotices(cmd)
		return nil
	},
}

var taskDeleteYes bool

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Long: `Delete a task permanently. You are asked to confirm unless --yes is
given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTasks(); err != nil {
			return err
		}
		id := args[0]
		if !taskDeleteYes {
			ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Delete task %s?", id))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
		}

		if _, err := Tasks.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", id)
		flushNotices(cmd)
		return nil
	},
}

var (
	taskMoveFilter string
	taskMoveSearch string
)

var taskMoveCmd = &cobra.Command{
	Use:   "move <from> <to>",
	Short: "Move a task to another position",
	Long: `Move the task at position <from> to position <to>. Positions are
1-based and refer to the list as printed by 'pw task list' with the same
--filter and --search.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTasks(); err != nil {
			return err
		}
		from, err := parsePosition(args[0])
		if err != nil {
			return err
		}
		to, err := parsePosition(args[1])
		if err != nil {
			return err
		}
		q, err := viewQuery(taskMoveFilter, taskMoveSearch)
		if err != nil {
			return err
		}

		if err := reloadTasks(cmd.Context()); err != nil {
			return err
		}
		res, err := Tasks.Reorder(cmd.Context(), q, from-1, to-1)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if res.NoOp {
			fmt.Fprintf(out, "Task already at position %d, nothing to do.\n", to)
			return nil
		}
		fmt.Fprintf(out, "Moved %q from position %d to %d\n", res.View[to-1].Title, from, to)
		flushNotices(cmd)
		return nil
	},
}

func requireTasks() error {
	if Tasks == nil {
		return fmt.Errorf("task service not initialized")
	}
	return nil
}

// reloadTasks refreshes the store. Losing to a newer reload is fine.
func reloadTasks(ctx context.Context) error {
	err := Tasks.Reload(ctx)
	if errors.Is(err, core.ErrStaleReload) {
		return nil
	}
	return err
}

func onlineTasks(ctx context.Context, q models.ViewQuery) ([]models.Task, error) {
	if err := requireTasks(); err != nil {
		return nil, err
	}
	if err := reloadTasks(ctx); err != nil {
		if models.KindOf(err) == models.KindNetwork {
			return nil, fmt.Errorf("%w (use --offline to show the cached list)", err)
		}
		return nil, err
	}
	return Tasks.View(q), nil
}

func offlineTasks(cmd *cobra.Command, q models.ViewQuery) ([]models.Task, error) {
	if Snapshot == nil {
		return nil, fmt.Errorf("task snapshot not initialized")
	}
	snap, err := Snapshot.LoadTasks()
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("no cached task list; run 'pw task list' while online first")
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Showing cached list from %s\n", snap.SavedAt.Local().Format("2006-01-02 15:04"))
	return core.Project(snap.Tasks, q), nil
}

func viewQuery(filter, search string) (models.ViewQuery, error) {
	if filter == "" && Config != nil {
		filter = string(Config.DefaultFilter)
	}
	status, err := core.ParseStatusFilter(filter)
	if err != nil {
		return models.ViewQuery{}, err
	}
	return models.ViewQuery{Status: status, Search: search}, nil
}

func parsePosition(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, &models.ValidationError{Problems: []string{fmt.Sprintf("position %q must be a positive number", s)}}
	}
	return n, nil
}

// confirm asks a yes/no question on w and reads the answer from r. Anything
// but y or yes counts as no.
func confirm(r io.Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprintf(w, "%s [y/N] ", question)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// flushNotices prints queued warnings, such as a reload that failed after a
// successful change. Errors are returned by the command itself.
func flushNotices(cmd *cobra.Command) {
	if Notices == nil {
		return
	}
	for _, n := range Notices.Drain() {
		if n.Level == models.NoticeError {
			continue
		}
		fmt.Fprintln(cmd.ErrOrStderr(), observability.FormatNotice(n))
	}
}

func joinNames[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func init() {
	taskListCmd.Flags().StringVar(&taskListFilter, "filter", "", "Show all, active or completed tasks (default from tui.default_filter)")
	taskListCmd.Flags().StringVar(&taskListSearch, "search", "", "Only tasks whose title or description contains this text")
	taskListCmd.Flags().BoolVar(&taskListOffline, "offline", false, "Read the cached snapshot instead of the backend")
	taskListCmd.Flags().BoolVar(&taskListJSON, "json", false, "Output tasks as JSON")

	taskAddFields.register(taskAddCmd.Flags(), false)
	taskEditFields.register(taskEditCmd.Flags(), true)

	taskDeleteCmd.Flags().BoolVarP(&taskDeleteYes, "yes", "y", false, "Delete without asking")

	taskMoveCmd.Flags().StringVar(&taskMoveFilter, "filter", "", "Filter the positions refer to")
	taskMoveCmd.Flags().StringVar(&taskMoveSearch, "search", "", "Search the positions refer to")

	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskEditCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskMoveCmd)
	rootCmd.AddCommand(taskCmd)
}
