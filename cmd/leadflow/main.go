package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/leadflow-dev/leadflow/internal/logging"
	"github.com/leadflow-dev/leadflow/internal/scheduler"
	"github.com/leadflow-dev/leadflow/internal/store"
	"github.com/leadflow-dev/leadflow/pkg/mcp"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := loadConfig()
	logger := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	app, err := newApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "leadflow: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "run":
		err = cmdRun(ctx, app, os.Args[2:])
	case "mcp":
		err = cmdMCP(ctx, app)
	case "schedule":
		err = cmdSchedule(ctx, app, os.Args[2:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "leadflow: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "leadflow: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: leadflow <command> [flags]

Commands:
  run [-workflow path]          Execute a workflow definition and print the summary
  mcp                           Serve the MCP tools over stdio
  schedule add -cron expr [-workflow path]
                                Register a recurring workflow run
  schedule list                 List scheduled jobs
  schedule daemon               Run the scheduling loop in the foreground
`)
}

func cmdRun(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	workflow := fs.String("workflow", app.cfg.WorkflowPath, "path to the workflow definition")
	noStore := fs.Bool("no-store", false, "skip run persistence")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		*workflow = fs.Arg(0)
	}

	if !*noStore {
		if err := app.openStore(ctx); err != nil {
			app.logger.Warn("store unavailable, continuing without persistence",
				"error", err.Error())
		}
	}

	result, err := app.RunWorkflow(ctx, *workflow)
	if err != nil {
		return err
	}
	if !result.Success {
		os.Exit(1)
	}
	return nil
}

func cmdMCP(ctx context.Context, app *App) error {
	if err := app.openStore(ctx); err != nil {
		return err
	}

	srv := mcp.NewLeadflowServer(mcp.LeadflowServerDeps{
		Runner:   app,
		Store:    app.store,
		Registry: app.registry,
		Logger:   app.logger,
	})
	return srv.Serve(ctx)
}

func cmdSchedule(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("schedule requires a subcommand: add, list, or daemon")
	}
	if err := app.openStore(ctx); err != nil {
		return err
	}

	sched := scheduler.NewScheduler(app.store, schedulerRunner{app}, app.logger)

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("schedule add", flag.ExitOnError)
		cronExpr := fs.String("cron", "", "cron expression (5 fields)")
		workflow := fs.String("workflow", app.cfg.WorkflowPath, "path to the workflow definition")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *cronExpr == "" {
			return fmt.Errorf("schedule add requires -cron")
		}

		next, err := sched.CalculateNextRun(*cronExpr, time.Now().UTC())
		if err != nil {
			return err
		}
		job := &store.ScheduledJob{
			ID:             uuid.New().String(),
			WorkflowPath:   *workflow,
			CronExpression: *cronExpr,
			Enabled:        true,
			NextRunAt:      &next,
		}
		if err := app.store.CreateScheduledJob(ctx, job); err != nil {
			return err
		}
		fmt.Printf("Scheduled job %s: %s (next run %s)\n",
			job.ID, job.CronExpression, next.Format(time.RFC3339))
		return nil

	case "list":
		jobs, err := app.store.ListScheduledJobs(ctx, store.ScheduledJobFilter{})
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Println("No scheduled jobs.")
			return nil
		}
		for _, job := range jobs {
			next := "-"
			if job.NextRunAt != nil {
				next = job.NextRunAt.Format(time.RFC3339)
			}
			state := "enabled"
			if !job.Enabled {
				state = "disabled"
			}
			fmt.Printf("%s  %-14s %-10s next=%s  %s\n",
				job.ID, job.CronExpression, state, next, job.WorkflowPath)
		}
		return nil

	case "daemon":
		if err := sched.RecoverMissed(ctx); err != nil {
			app.logger.Warn("missed-job recovery failed", "error", err.Error())
		}
		if err := sched.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return sched.Stop()

	default:
		return fmt.Errorf("unknown schedule subcommand %q", args[0])
	}
}
