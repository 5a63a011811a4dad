package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tally/internal/bootstrap"
	trackingdto "tally/internal/modules/tracking/dto"
	"tally/internal/platform/config"
	"tally/internal/platform/money"
	"tally/internal/platform/timefmt"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir string

	root := &cobra.Command{
		Use:           "tally",
		Short:         "Track time spent on tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir(), "data directory (database, config, log)")

	root.AddCommand(newTrackCmd(&dataDir))
	root.AddCommand(newTUICmd(&dataDir))
	root.AddCommand(newProjectCmd(&dataDir))
	root.AddCommand(newClientCmd(&dataDir))
	root.AddCommand(newTasksCmd(&dataDir))
	root.AddCommand(newStaleCmd(&dataDir))
	root.AddCommand(newExportCmd(&dataDir))
	return root
}

func loadApp(dataDir string) (*bootstrap.App, error) {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg)
}

// withApp runs fn against a wired app and always closes it.
func withApp(dataDir string, fn func(app *bootstrap.App) error) (err error) {
	app, err := loadApp(dataDir)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, app.Close(context.Background()))
	}()
	return fn(app)
}

func newTrackCmd(dataDir *string) *cobra.Command {
	var projectID, clientID int64
	cmd := &cobra.Command{
		Use:   "track <name>",
		Short: "Time a task in the foreground until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(*dataDir, func(app *bootstrap.App) error {
				out := cmd.OutOrStdout()
				currency := app.Config.Currency
				unwatch := app.TrackingCLI.Watch(trackingdto.ObserverTimeLabel, "", func(e trackingdto.Event) {
					printLive(out, e, currency)
				})
				defer unwatch()

				started, err := app.TrackingCLI.Start(ctx, args[0], projectID, clientID)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "tracking %s (task %d) since %s, Ctrl-C to stop\n", started.TaskName, started.TaskID, started.StartedAt)
				<-ctx.Done()

				stopped, err := app.TrackingCLI.Stop(context.Background())
				_, _ = fmt.Fprintln(out)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "stopped %s after %s\n", stopped.TaskName, timefmt.FormatDuration(stopped.ElapsedSeconds))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "project id")
	cmd.Flags().Int64Var(&clientID, "client", 0, "client id (defaults to the project's client)")
	return cmd
}

func printLive(w io.Writer, e trackingdto.Event, currency string) {
	if e.Kind == trackingdto.EventStop {
		return
	}
	line := "\r" + timefmt.FormatDuration(e.ElapsedSeconds) + "  " + e.TaskName
	if e.RateCents > 0 {
		line += "  " + money.Format(e.EarnedCents, currency)
	}
	_, _ = fmt.Fprint(w, line)
}

func newTUICmd(dataDir *string) *cobra.Command {
	var compact bool
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Run the tally terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(*dataDir, func(app *bootstrap.App) error {
				return bootstrap.RunTUI(ctx, app, compact)
			})
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "start in the compact tracker")
	return cmd
}

func newProjectCmd(dataDir *string) *cobra.Command {
	project := &cobra.Command{Use: "project", Short: "Manage projects"}

	var clientID int64
	var rate float64
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				out, err := app.CatalogCLI.AddProject(cmd.Context(), args[0], clientID, rate)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "project %d: %s\n", out.ID, out.Name)
				return nil
			})
		},
	}
	add.Flags().Int64Var(&clientID, "client", 0, "client id")
	add.Flags().Float64Var(&rate, "rate", 0, "hourly rate (0 uses default_hourly_rate)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				projects, err := app.CatalogCLI.ListProjects(cmd.Context())
				if err != nil {
					return err
				}
				if len(projects) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no projects")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, p := range projects {
					_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s/h\n", p.ID, p.Name, p.ClientName, money.Format(p.HourlyRateCents, app.Config.Currency))
				}
				return tw.Flush()
			})
		},
	}
	project.AddCommand(add, list)
	return project
}

func newClientCmd(dataDir *string) *cobra.Command {
	client := &cobra.Command{Use: "client", Short: "Manage clients"}
	client.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				out, err := app.CatalogCLI.AddClient(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "client %d: %s\n", out.ID, out.Name)
				return nil
			})
		},
	})
	client.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List clients",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				clients, err := app.CatalogCLI.ListClients(cmd.Context())
				if err != nil {
					return err
				}
				if len(clients) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no clients")
					return nil
				}
				for _, c := range clients {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", c.ID, c.Name)
				}
				return nil
			})
		},
	})
	return client
}

func newTasksCmd(dataDir *string) *cobra.Command {
	tasks := &cobra.Command{Use: "tasks", Short: "Query recorded tasks"}
	tasks.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every recorded run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				items, err := app.LedgerCLI.Tasks(cmd.Context())
				if err != nil {
					return err
				}
				if len(items) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no tasks")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, t := range items {
					end := t.EndTime
					if t.Open {
						end = "open"
					}
					_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.ProjectName, t.StartTime, end, timefmt.FormatDuration(t.TimeSpent))
				}
				return tw.Flush()
			})
		},
	})
	tasks.AddCommand(&cobra.Command{
		Use:   "stacks",
		Short: "Show runs grouped by task, project and client",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				stacks, err := app.LedgerCLI.Stacks(cmd.Context())
				if err != nil {
					return err
				}
				if len(stacks) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no tasks")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, s := range stacks {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t×%d\t%s\n", s.BaseName, s.ProjectName, s.ClientName, s.Count, timefmt.FormatDuration(s.TotalSeconds))
				}
				return tw.Flush()
			})
		},
	})
	return tasks
}

func newStaleCmd(dataDir *string) *cobra.Command {
	stale := &cobra.Command{
		Use:   "stale",
		Short: "Inspect runs left open by an earlier process",
		Long: "Inspect runs left open by an earlier process.\n\n" +
			"Open runs checkpointed within the last minute, or three tick intervals if longer,\n" +
			"are treated as tracked by another running tally and are neither listed nor\n" +
			"closed or discarded.",
	}
	stale.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List unfinished runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				items, err := app.LedgerCLI.Stale(cmd.Context(), app.TrackingCLI.State().TaskID)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no unfinished tasks")
					return nil
				}
				for _, t := range items {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\tstarted %s\tsaved %s\n", t.ID, t.Name, t.StartTime, timefmt.FormatDuration(t.TimeSpent))
				}
				return nil
			})
		},
	})
	stale.AddCommand(&cobra.Command{
		Use:   "close <id>",
		Short: "Close an unfinished run at its last saved time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(*dataDir, func(app *bootstrap.App) error {
				out, err := app.LedgerCLI.CloseStale(cmd.Context(), id, app.TrackingCLI.State().TaskID)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "closed %d %s at %s\n", out.ID, out.Name, out.EndTime)
				return nil
			})
		},
	})
	stale.AddCommand(&cobra.Command{
		Use:   "discard <id>",
		Short: "Delete an unfinished run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(*dataDir, func(app *bootstrap.App) error {
				if err := app.LedgerCLI.DiscardStale(cmd.Context(), id, app.TrackingCLI.State().TaskID); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "discarded %d\n", id)
				return nil
			})
		},
	})
	return stale
}

func newExportCmd(dataDir *string) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every run and stack as a report",
		Long: "Write every run and stack as a report. With --format markdown and an existing\n" +
			"--output file, only the tally block and tally_* frontmatter keys are rewritten.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				if output == "" || output == "-" {
					return app.LedgerCLI.Export(cmd.Context(), cmd.OutOrStdout(), format, "")
				}
				existing, err := os.ReadFile(output)
				if err != nil && !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("read %s: %w", output, err)
				}
				var buf bytes.Buffer
				if err := app.LedgerCLI.Export(cmd.Context(), &buf, format, string(existing)); err != nil {
					return err
				}
				if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "report format: yaml|markdown")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
