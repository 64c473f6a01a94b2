// Package cmd implements the CLI command structure for tasksync.
package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasksync/internal/api"
	"github.com/nibzard/tasksync/internal/config"
	"github.com/nibzard/tasksync/internal/logging"
	"github.com/nibzard/tasksync/internal/metrics"
	"github.com/nibzard/tasksync/internal/output"
	"github.com/nibzard/tasksync/internal/todo"
	"github.com/nibzard/tasksync/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// app carries what every subcommand needs.
type app struct {
	cws    *config.ConfigWithSources
	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *log.Logger

	// newService builds the backend client.
	newService func(cfg *config.Config, logger *log.Logger) (api.Service, error)
}

// Run executes the tasksync CLI.
func Run(ctx context.Context, args []string) error {
	return RunWithIO(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

// RunWithIO executes the CLI with explicit standard streams.
func RunWithIO(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("tasksync", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, stdout)
		return nil
	}

	a := &app{
		cws:    cws,
		cfg:    cws.Config,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logger: logging.NewConsoleLogger(stderr, logOptions(cws.Config)),
		newService: func(cfg *config.Config, logger *log.Logger) (api.Service, error) {
			return api.NewFromConfig(cfg, logger)
		},
	}
	if *showVersion {
		return a.versionCommand()
	}

	// Determine the subcommand
	subcommand := "tui"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "version":
		return a.versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	case "config":
		return a.configCommand(remainingArgs)
	case "tail":
		return a.tailCommand(ctx, remainingArgs)
	}

	if a.cfg.MetricsAddr != "" {
		go a.serveMetrics(ctx)
	}

	switch subcommand {
	case "tui":
		return a.tuiCommand(ctx, remainingArgs)
	case "ls", "list":
		return a.lsCommand(ctx, remainingArgs)
	case "show":
		return a.showCommand(ctx, remainingArgs)
	case "add":
		return a.addCommand(ctx, remainingArgs)
	case "edit":
		return a.editCommand(ctx, remainingArgs)
	case "toggle":
		return a.toggleCommand(ctx, remainingArgs)
	case "rm", "delete":
		return a.rmCommand(ctx, remainingArgs)
	case "doctor":
		return a.doctorCommand(ctx, remainingArgs)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

func logOptions(cfg *config.Config) logging.Options {
	return logging.OptionsFrom(cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller)
}

func (a *app) service() (api.Service, error) {
	svc, err := a.newService(a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return svc, nil
}

func (a *app) format() output.Format {
	f, err := output.ParseFormat(a.cfg.Output)
	if err != nil {
		return output.Text
	}
	return f
}

func (a *app) serveMetrics(ctx context.Context) {
	if err := metrics.Serve(ctx, a.cfg.MetricsAddr, a.logger); err != nil {
		a.logger.Error("metrics server stopped", "addr", a.cfg.MetricsAddr, "err", err)
	}
}

// newFlagSet returns a subcommand flag set that reports to stderr.
func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("tasksync "+name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parseInterspersed parses flags that may appear after positional
// arguments, as in "add buy milk -d tomorrow".
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// singleID extracts the one task id a command expects.
func singleID(name string, args []string) (todo.ID, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%s: missing task id", name)
	}
	if len(args) > 1 {
		return "", fmt.Errorf("unexpected arguments: %v", args[1:])
	}
	id := strings.TrimSpace(args[0])
	if id == "" {
		return "", fmt.Errorf("%s: missing task id", name)
	}
	return todo.ID(id), nil
}

// tuiCommand launches the interactive task list.
func (a *app) tuiCommand(ctx context.Context, args []string) error {
	fs := a.newFlagSet("tui")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := a.cfg.Filter
	if rest := fs.Args(); len(rest) > 0 {
		if len(rest) > 1 {
			return fmt.Errorf("unexpected arguments: %v", rest[1:])
		}
		f, err := todo.ParseFilter(rest[0])
		if err != nil {
			return err
		}
		filter = f
	}

	if !ui.IsTTY(a.stdout) {
		return fmt.Errorf("tui requires a TTY; use 'tasksync ls' instead")
	}

	// The screen belongs to the UI, so diagnostics go to a file.
	runLog, err := logging.NewRunLogger(a.cfg.LogDir, a.cfg.BaseURL, logOptions(a.cfg))
	if err != nil {
		return fmt.Errorf("creating run log: %w", err)
	}
	defer runLog.Close()

	svc, err := a.newService(a.cfg, runLog.Logger)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	runLog.Logger.Info("session started", "base_url", a.cfg.BaseURL, "filter", filter, "run_id", runLog.RunID)

	err = ui.RunTUI(ctx, svc, runLog.Logger, filter, ui.WithTitle("tasksync · "+a.cfg.BaseURL))
	runLog.Logger.Info("session ended", "err", err)
	fmt.Fprintf(a.stderr, "Log: %s\n", runLog.LogPath)
	return err
}

// lsCommand prints the tasks matching a filter.
func (a *app) lsCommand(ctx context.Context, args []string) error {
	fs := a.newFlagSet("ls")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := a.cfg.Filter
	remaining := fs.Args()
	if len(remaining) > 1 {
		return fmt.Errorf("unexpected arguments: %v", remaining[1:])
	}
	if len(remaining) == 1 {
		f, err := todo.ParseFilter(remaining[0])
		if err != nil {
			return err
		}
		filter = f
	}

	svc, err := a.service()
	if err != nil {
		return err
	}
	tasks, err := svc.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}
	return output.WriteTasks(a.stdout, a.format(), tasks)
}

// showCommand prints one task.
func (a *app) showCommand(ctx context.Context, args []string) error {
	fs := a.newFlagSet("show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := singleID("show", fs.Args())
	if err != nil {
		return err
	}

	svc, err := a.service()
	if err != nil {
		return err
	}
	task, err := svc.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("getting task %s: %w", id, err)
	}
	return output.WriteTask(a.stdout, a.format(), task)
}

// addCommand creates a task from the remaining words.
func (a *app) addCommand(ctx context.Context, args []string) error {
	fs := a.newFlagSet("add")
	description := fs.String("d", "", "Task description")
	fs.StringVar(description, "description", "", "Task description")

	words, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	title := strings.TrimSpace(strings.Join(words, " "))
	if title == "" {
		return errors.New("add: title is required")
	}

	svc, err := a.service()
	if err != nil {
		return err
	}
	draft := todo.Draft{Title: title, Description: strings.TrimSpace(*description)}
	task, err := svc.Create(ctx, draft)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}
	if task.ID == "" {
		// The backend acknowledged without echoing the task.
		task = todo.Task{Title: draft.Title, Description: draft.Description, Status: todo.StatusActive}
		return a.reportf(task, "Created task: %s\n", task.Title)
	}
	return a.reportf(task, "Created task %s: %s\n", task.ID, task.Title)
}

// editCommand sends a partial update with only the flags that were given.
func (a *app) editCommand(ctx context.Context, args []string) error {
	fs := a.newFlagSet("edit")
	title := fs.String("title", "", "New title")
	description := fs.String("description", "", "New description")
	fs.StringVar(description, "d", "", "New description")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	id, err := singleID("edit", positional)
	if err != nil {
		return err
	}

	var patch todo.Patch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			t := strings.TrimSpace(*title)
			patch.Title = &t
		case "description", "d":
			d := strings.TrimSpace(*description)
			patch.Description = &d
		}
	})
	if patch.IsEmpty() {
		return errors.New("edit: nothing to update, pass -title or -description")
	}

	svc, err := a.service()
	if err != nil {
		return err
	}
	task, err := svc.Update(ctx, id, patch)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", id, err)
	}
	if task.Title == "" {
		task = patch.Apply(todo.Task{ID: id})
	}
	if task.Title == "" {
		return a.reportf(task, "Updated task %s\n", id)
	}
	return a.reportf(task, "Updated task %s: %s\n", id, task.Title)
}

// toggleCommand flips a task between active and completed.
func (a *app) toggleCommand(ctx context.Context, args []string) error {
	fs := a.newFlagSet("toggle")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := singleID("toggle", fs.Args())
	if err != nil {
		return err
	}

	svc, err := a.service()
	if err != nil {
		return err
	}
	current, err := svc.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("getting task %s: %w", id, err)
	}
	patch := todo.StatusPatch(current.Status.Toggle())
	task, err := svc.Update(ctx, id, patch)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", id, err)
	}
	if task.Status == "" {
		task = patch.Apply(current)
	}
	return a.reportf(task, "Task %s is now %s\n", id, task.Status)
}

// rmCommand deletes a task after confirmation.
func (a *app) rmCommand(ctx context.Context, args []string) error {
	fs := a.newFlagSet("rm")
	yes := fs.Bool("y", false, "Do not ask for confirmation")
	fs.BoolVar(yes, "yes", false, "Do not ask for confirmation")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	id, err := singleID("rm", positional)
	if err != nil {
		return err
	}

	if !*yes {
		fmt.Fprintf(a.stdout, "%s ", ui.DeletePrompt)
		if !confirmed(a.stdin) {
			fmt.Fprintln(a.stdout, "Cancelled.")
			return nil
		}
	}

	svc, err := a.service()
	if err != nil {
		return err
	}
	if err := svc.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	fmt.Fprintf(a.stdout, "Deleted task %s\n", id)
	return nil
}

// confirmed reads one line and accepts y or yes.
func confirmed(r io.Reader) bool {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// reportf prints task as JSON or YAML when configured, otherwise the
// formatted text line.
func (a *app) reportf(task todo.Task, format string, args ...any) error {
	if f := a.format(); f != output.Text {
		return output.WriteTask(a.stdout, f, task)
	}
	_, err := fmt.Fprintf(a.stdout, format, args...)
	return err
}

// tailCommand tails the latest diagnostic log.
func (a *app) tailCommand(ctx context.Context, args []string) error {
	fs := a.newFlagSet("tail")
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	logDir, err := logging.FindLogDir(a.cfg.LogDir, a.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("finding log directory: %w", err)
	}
	logPath, err := logging.FindLatestLog(logDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(a.stdout, "No log files found.")
		return nil
	}

	fmt.Fprintf(a.stdout, "Tailing: %s\n", logPath)
	if *follow {
		fmt.Fprintln(a.stdout, "(Ctrl+C to stop)")
	}
	fmt.Fprintln(a.stdout)

	return logging.TailLog(ctx, a.stdout, logPath, *n, *follow)
}

// configCommand prints an example configuration file.
func (a *app) configCommand(args []string) error {
	fs := a.newFlagSet("config")
	if err := fs.Parse(args); err != nil {
		return err
	}
	_, err := io.WriteString(a.stdout, config.ExampleConfig())
	return err
}

// versionCommand prints version information.
func (a *app) versionCommand() error {
	fmt.Fprintf(a.stdout, "tasksync version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "tasksync - a terminal to-do list backed by a REST task service")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tasksync [options] [command]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui [filter]             Interactive task list (default command)")
	fmt.Fprintln(w, "  ls [filter]              List tasks (all, active, completed)")
	fmt.Fprintln(w, "  show <id>                Show one task")
	fmt.Fprintln(w, "  add <title...> [-d text] Create a task")
	fmt.Fprintln(w, "  edit <id> [-title t] [-description d]")
	fmt.Fprintln(w, "                           Change a task's title or description")
	fmt.Fprintln(w, "  toggle <id>              Mark a task completed, or active again")
	fmt.Fprintln(w, "  rm <id> [-y]             Delete a task")
	fmt.Fprintln(w, "  doctor                   Check config and backend connectivity")
	fmt.Fprintln(w, "  tail [-f] [-n N]         Tail the latest session log")
	fmt.Fprintln(w, "  config                   Print an example config file")
	fmt.Fprintln(w, "  version                  Show version information")
	fmt.Fprintln(w, "  help                     Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}
