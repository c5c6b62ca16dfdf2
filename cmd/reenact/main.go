// Command reenact inspects a workflow library and its session archive:
// list, show, validate and dry-run workflow documents, and read back
// archived sessions. Live replay needs a host that embeds platform
// providers; this tool deliberately has none, so it can never move the
// pointer.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/petrijr/reenact"
)

var (
	configPath string
	libraryDir string
	anchorDir  string
	dbPath     string

	sessionsWorkflow string
	sessionsStatus   string
)

// fileConfig is the optional YAML config file. Flags override it.
type fileConfig struct {
	Library string `yaml:"library"`
	Anchors string `yaml:"anchors"`
	DB      string `yaml:"db"`

	Speed     float64 `yaml:"speed"`
	Threshold float64 `yaml:"threshold"`

	DefaultTimeout reenact.Duration `yaml:"default_timeout"`
	PollInterval   reenact.Duration `yaml:"poll_interval"`
}

var rootCmd = &cobra.Command{
	Use:          "reenact",
	Short:        "Inspect recorded workflow documents and past replay sessions",
	SilenceUsage: true,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List workflow documents in the library",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, cleanup, err := openBundle()
		if err != nil {
			return err
		}
		defer cleanup()

		names := bundle.Engine.Workflows()
		if len(names) == 0 {
			fmt.Println("no workflows in", bundle.LibraryDir)
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSTEPS\tSUMMARY")
		for _, name := range names {
			wf, err := bundle.Engine.Workflow(name)
			if err != nil {
				fmt.Fprintf(w, "%s\t-\tinvalid: %v\n", name, err)
				continue
			}
			fmt.Fprintf(w, "%s\t%d\t%s\n", wf.Name, len(wf.Steps), wf.Summary)
		}
		return w.Flush()
	},
}

var showCmd = &cobra.Command{
	Use:   "show <workflow>",
	Short: "Show a workflow's steps",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, cleanup, err := openBundle()
		if err != nil {
			return err
		}
		defer cleanup()

		wf, err := bundle.Engine.Workflow(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("workflow: %s\n", wf.Name)
		if wf.Summary != "" {
			fmt.Printf("summary:  %s\n", wf.Summary)
		}
		if wf.Screen != nil {
			fmt.Printf("recorded: %dx%d\n", wf.Screen.W, wf.Screen.H)
		}
		fmt.Println()

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STEP\tACTION\tDESCRIPTION\tAWAITS")
		for _, step := range wf.Steps {
			awaits := "-"
			if step.Post != nil {
				awaits = string(step.Post.Kind)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", step.ID, step.Action, step.Describe(), awaits)
		}
		return w.Flush()
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <workflow>",
	Short: "Validate a workflow document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, cleanup, err := openBundle()
		if err != nil {
			return err
		}
		defer cleanup()

		wf, err := bundle.Engine.Workflow(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s: ok (%d steps)\n", wf.Name, len(wf.Steps))
		return nil
	},
}

var dryrunCmd = &cobra.Command{
	Use:   "dryrun <workflow>",
	Short: "Print the preview report without touching pointer or keyboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, cleanup, err := openBundle()
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := reenact.DryRun(context.Background(), bundle.Engine, args[0])
		if err != nil {
			return err
		}
		fmt.Print(report.String())
		return nil
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List archived replay sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, cleanup, err := openBundle()
		if err != nil {
			return err
		}
		defer cleanup()

		filter := reenact.SessionFilter{
			Workflow: sessionsWorkflow,
			Status:   reenact.SessionStatus(sessionsStatus),
		}
		sums, err := reenact.ListSessions(context.Background(), bundle.Engine, filter)
		if err != nil {
			return err
		}
		if len(sums) == 0 {
			fmt.Println("no archived sessions")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWORKFLOW\tSTATUS\tSTARTED\tOK\tFAILED\tSKIPPED")
		for _, sum := range sums {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
				sum.ID, sum.Workflow, sum.Status,
				sum.StartedAt.Format(time.RFC3339),
				sum.Succeeded(), sum.Failed(), sum.Skipped())
		}
		return w.Flush()
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events <session-id>",
	Short: "Print the archived event history of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, cleanup, err := openBundle()
		if err != nil {
			return err
		}
		defer cleanup()

		events, err := reenact.SessionEvents(context.Background(), bundle.Engine, args[0])
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("no events for session", args[0])
			return nil
		}
		for _, ev := range events {
			line := fmt.Sprintf("%4d  %s  %s", ev.Seq, ev.At.Format("15:04:05.000"), ev.Type)
			if ev.StepID > 0 {
				line += fmt.Sprintf("  step=%d", ev.StepID)
			}
			if ev.Detail != "" {
				line += "  " + ev.Detail
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVarP(&libraryDir, "library", "l", "", "workflow document directory (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&anchorDir, "anchors", "a", "", "anchor image directory (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "SQLite session archive (overrides config)")

	sessionsCmd.Flags().StringVar(&sessionsWorkflow, "workflow", "", "only sessions of this workflow")
	sessionsCmd.Flags().StringVar(&sessionsStatus, "status", "", "only sessions with this status (e.g. COMPLETED)")

	rootCmd.AddCommand(listCmd, showCmd, validateCmd, dryrunCmd, sessionsCmd, eventsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the YAML config file and applies flag overrides.
func loadConfig() (fileConfig, error) {
	var cfg fileConfig
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}
	if libraryDir != "" {
		cfg.Library = libraryDir
	}
	if anchorDir != "" {
		cfg.Anchors = anchorDir
	}
	if dbPath != "" {
		cfg.DB = dbPath
	}
	if cfg.Library == "" {
		cfg.Library = "workflows"
	}
	return cfg, nil
}

// openBundle wires the library and the session archive into an
// inspection-only engine. Without a configured database the archive lives
// in memory, which is enough for everything but the sessions commands.
func openBundle() (*reenact.Bundle, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	dsn := "file::memory:?cache=shared"
	if cfg.DB != "" {
		dsn = "file:" + cfg.DB + "?_journal=WAL"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}

	bundle, err := reenact.NewSQLiteBundle(db, reenact.BundleOptions{
		Config: reenact.Config{
			SpeedMultiplier: cfg.Speed,
			AnchorThreshold: cfg.Threshold,
			DefaultTimeout:  cfg.DefaultTimeout.Std(),
			PollInterval:    cfg.PollInterval.Std(),
		},
		LibraryDir: cfg.Library,
		AnchorDir:  cfg.Anchors,
	})
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return bundle, func() { db.Close() }, nil
}
