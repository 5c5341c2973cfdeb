package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"jobsync/internal/app"
	"jobsync/internal/config"
	"jobsync/internal/feedapi"
	"jobsync/internal/jobsync"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file, after loading the optional .env file,
// and applies environment overrides.
func loadConfig() (*config.Config, map[string]string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, nil, fmt.Errorf("getting defaults: %w", err)
	}
	if err := app.LoadEnvFile(defaults["env_file"]); err != nil {
		return nil, nil, err
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, defaults, nil
}

// newApp reads the config and creates a JobSyncApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "RefreshJobs", "UpdateIndex").
func newApp(ctx context.Context, operation, parameters string) (*app.JobSyncApp, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewJobSyncApp(ctx, cfg, operation, parameters)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func parseBUID(arg string) (int64, error) {
	buid, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || buid <= 0 {
		return 0, fmt.Errorf("invalid business unit id %q", arg)
	}
	return buid, nil
}

var rootCmd = &cobra.Command{
	Use:          "jobsync",
	Short:        "Sync employer job feeds into the job database and search index",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, defaults, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Feed Dir:  %s\n", cfg.DataDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Dialect:   %s (container <%s>, %s)\n", cfg.Dialect, cfg.NodeTag, cfg.Timezone)
		fmt.Printf("Feed:      %s\n", cfg.Feed.Type)
		fmt.Printf("Database:  %s\n", cfg.Database.Type)
		fmt.Printf("Index:     %s %s\n", cfg.Index.Type, cfg.Index.URL)
		fmt.Printf("Taxonomy:  %s\n", cfg.Taxonomy.Type)
		fmt.Printf("Notifier:  %s\n", cfg.Notifier.Type)
		fmt.Printf("Schedule:  %s %v\n", cfg.Scheduler.Spec, cfg.Scheduler.BusinessUnits)
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the job database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if err := app.MigrateDatabase(cmd.Context(), cfg.Database); err != nil {
			return err
		}
		fmt.Println("Database schema is up to date.")
		return nil
	},
}

// bu command
var buCmd = &cobra.Command{
	Use:   "bu",
	Short: "Manage business units",
}

var buAddCmd = &cobra.Command{
	Use:   "add BUID [TITLE]",
	Short: "Register a business unit",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		buid, err := parseBUID(args[0])
		if err != nil {
			return err
		}
		title := ""
		if len(args) > 1 {
			title = args[1]
		}

		a, err := newApp(cmd.Context(), "CreateBusinessUnit", app.RunParameters(buid, nil))
		if err != nil {
			return err
		}
		defer a.Close()

		bu, err := a.CreateBusinessUnit(cmd.Context(), buid, title)
		if err != nil {
			return err
		}
		fmt.Printf("Business unit %d: %q (%d jobs)\n", bu.ID, bu.Title, bu.AssociatedJobs)
		return nil
	},
}

// refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh BUID",
	Short: "Sync the job database with a business unit's feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		buid, err := parseBUID(args[0])
		if err != nil {
			return err
		}
		download, _ := cmd.Flags().GetBool("download")
		all, _ := cmd.Flags().GetBool("all")

		params := app.RunParameters(buid, map[string]bool{"download": download, "update_all": all}, "download", "update_all")
		a, err := newApp(cmd.Context(), "RefreshJobs", params)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.RefreshJobs(cmd.Context(), buid, jobsync.RefreshOptions{Download: download, UpdateAll: all})
		if res != nil {
			printRefresh(res)
		}
		return err
	},
}

func printRefresh(res *jobsync.RefreshResult) {
	if res.Invalid != nil {
		fmt.Printf("Feed rejected: %s\n", res.Invalid.Error())
		return
	}
	fmt.Printf("Saved %d job(s), deleted %d, failed %d\n", len(res.Saved), res.Deleted, len(res.Failed))
	for _, f := range res.Failed {
		fmt.Printf("  uid %d: %v\n", f.UID, f.Err)
	}
}

// index command
var indexCmd = &cobra.Command{
	Use:   "index BUID",
	Short: "Sync the search index with a business unit's feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		buid, err := parseBUID(args[0])
		if err != nil {
			return err
		}
		download, _ := cmd.Flags().GetBool("download")
		force, _ := cmd.Flags().GetBool("force")
		setTitle, _ := cmd.Flags().GetBool("set-title")

		flags := map[string]bool{"download": download, "force": force, "set_title": setTitle}
		a, err := newApp(cmd.Context(), "UpdateIndex", app.RunParameters(buid, flags, "download", "force", "set_title"))
		if err != nil {
			return err
		}
		defer a.Close()

		added, deleted, err := a.UpdateIndex(cmd.Context(), buid, jobsync.IndexOptions{Download: download, Force: force, SetTitle: setTitle})
		if err != nil {
			return err
		}
		fmt.Printf("Indexed %d document(s), deleted %d\n", added, deleted)
		return nil
	},
}

// clear command
var clearCmd = &cobra.Command{
	Use:   "clear BUID",
	Short: "Remove every job of a business unit from the database and index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		buid, err := parseBUID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "Clear", app.RunParameters(buid, nil))
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Clear(cmd.Context(), buid); err != nil {
			return err
		}
		fmt.Printf("Cleared business unit %d\n", buid)
		return nil
	},
}

// reset command
var resetCmd = &cobra.Command{
	Use:   "reset BUID",
	Short: "Re-download a feed and rewrite both stores from it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		buid, err := parseBUID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "Reprocess", app.RunParameters(buid, nil))
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Reprocess(cmd.Context(), buid)
		if res != nil {
			if res.Refresh != nil {
				printRefresh(res.Refresh)
			}
			fmt.Printf("Indexed %d document(s), deleted %d\n", res.Added, res.Deleted)
		}
		return err
	},
}

// feed command
var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Ask the feed-management service to act on a feed",
}

func feedTaskCmd(task feedapi.Task, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(task) + " BUID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buid, err := parseBUID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), "FeedTask", app.RunParameters(buid, nil))
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.FeedTask(cmd.Context(), buid, task)
			if err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("%s failed: %s", task, res.Message)
			}
			fmt.Println(res.Message)
			return nil
		},
	}
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View sync run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context(), "GetHistory", "")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.GetHistory(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No sync runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt != nil {
				duration = r.FinishedAt.Sub(r.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-18s  %s  %-8s  %-10s  %s\n",
				r.ID,
				r.Operation,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Status,
				duration,
				r.Parameters,
			)
		}
		return nil
	},
}

// run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Periodically re-sync the scheduled business units and serve metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Serve", "")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Serve(cmd.Context())
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	dbCmd.AddCommand(dbMigrateCmd)
	buCmd.AddCommand(buAddCmd)

	feedCmd.AddCommand(feedTaskCmd(feedapi.TaskCreate, "Force the service to build the feed now"))
	feedCmd.AddCommand(feedTaskCmd(feedapi.TaskSchedule, "Schedule periodic feed builds"))
	feedCmd.AddCommand(feedTaskCmd(feedapi.TaskUnschedule, "Stop periodic feed builds"))

	refreshCmd.Flags().BoolP("download", "d", false, "Download a fresh feed first")
	refreshCmd.Flags().BoolP("all", "a", false, "Rewrite every job, not only new ones")
	indexCmd.Flags().BoolP("download", "d", false, "Download a fresh feed first")
	indexCmd.Flags().BoolP("force", "f", false, "Re-add every document, not only new ones")
	indexCmd.Flags().Bool("set-title", false, "Overwrite the business unit title with the feed's company name")
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(buCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(runCmd)
}
