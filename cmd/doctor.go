package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/nibzard/tasksync/internal/logging"
	"github.com/nibzard/tasksync/internal/todo"
)

// doctorCommand checks config, backend connectivity and the list contract.
func (a *app) doctorCommand(ctx context.Context, args []string) error {
	fs := a.newFlagSet("doctor")
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if rest := fs.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}

	w := a.stdout
	fmt.Fprintln(w, "tasksync doctor")
	fmt.Fprintln(w, "===============")
	fmt.Fprintln(w)

	allOK := true

	fmt.Fprintln(w, "Config files:")
	files := a.cws.ConfigFiles()
	if len(files) == 0 {
		fmt.Fprintln(w, "  (none, using defaults)")
	}
	for _, f := range files {
		fmt.Fprintf(w, "  %s\n", f)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Settings:")
	for _, field := range a.cws.Fields() {
		if !*verbose && field.Value == "" {
			continue
		}
		fmt.Fprintf(w, "  %-20s %-28s (%s)\n", field.Name, field.Value, field.Source)
	}
	fmt.Fprintln(w)

	// Always validate here, whatever the config says.
	checkCfg := *a.cfg
	checkCfg.ValidateResponses = true
	svc, err := a.newService(&checkCfg, a.logger)
	if err != nil {
		fmt.Fprintf(w, "Backend: %s\n  ❌ Error: %v\n", a.cfg.BaseURL, err)
		return fmt.Errorf("doctor checks failed")
	}

	fmt.Fprintf(w, "Backend: %s\n", a.cfg.BaseURL)
	if err := svc.Ping(ctx); err != nil {
		fmt.Fprintf(w, "  ❌ Ping: %v\n", err)
		allOK = false
	} else {
		fmt.Fprintln(w, "  ✅ Ping")
	}

	tasks, err := svc.List(ctx, todo.FilterAll)
	if err != nil {
		fmt.Fprintf(w, "  ❌ Task list: %v\n", err)
		allOK = false
	} else {
		fmt.Fprintf(w, "  ✅ Task list: %d task(s), schema OK\n", len(tasks))
	}
	fmt.Fprintln(w)

	logDir, err := logging.FindLogDir(a.cfg.LogDir, a.cfg.BaseURL)
	if err != nil {
		fmt.Fprintf(w, "Log directory:\n  ❌ Error: %v\n", err)
		allOK = false
	} else {
		fmt.Fprintf(w, "Log directory: %s\n", logDir)
		if _, err := os.Stat(logDir); err != nil {
			fmt.Fprintln(w, "  ✅ Not created yet (first tui run creates it)")
		} else {
			fmt.Fprintln(w, "  ✅ OK")
		}
	}
	fmt.Fprintln(w)

	if allOK {
		fmt.Fprintln(w, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(w, "⚠️  Some checks failed. tasksync may not function correctly.")
	return fmt.Errorf("doctor checks failed")
}
