// Package cli implements the roster command line tool.
//
// Command structure:
//
//	roster
//	├── solve      -f week.yaml [--policy --seed --confirm-rate --format json|csv]
//	├── reconcile  -s schedule.json -e event.yaml
//	├── simulate   [--seed --week-start --caregivers --elders --closed --solve]
//	└── validate   -f week.yaml
//
// Week and event files are YAML (JSON is accepted too). Results go to stdout;
// logs go to stderr.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/arnavshah/coverage-scheduler-go/pkg/config"
	"github.com/arnavshah/coverage-scheduler-go/pkg/export"
	"github.com/arnavshah/coverage-scheduler-go/pkg/logger"
	"github.com/arnavshah/coverage-scheduler-go/pkg/models"
	"github.com/arnavshah/coverage-scheduler-go/pkg/scheduler"
	"github.com/arnavshah/coverage-scheduler-go/pkg/simulate"
)

// ErrInvalidInput is returned by validate when the week does not pass
var ErrInvalidInput = errors.New("input is invalid")

type app struct {
	cfg *config.Config
	log *zap.Logger
}

// BuildCLI creates the root command
func BuildCLI() *cobra.Command {
	a := &app{log: zap.NewNop()}
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "roster",
		Short:         "Build and reconcile weekly caregiver coverage schedules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if logLevel == "" {
				logLevel = cfg.LogLevel
			}
			log, err := logger.New(cfg.Env, logLevel)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			a.cfg = cfg
			a.log = log
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(a.buildSolveCommand())
	rootCmd.AddCommand(a.buildReconcileCommand())
	rootCmd.AddCommand(a.buildSimulateCommand())
	rootCmd.AddCommand(a.buildValidateCommand())
	return rootCmd
}

func (a *app) buildSolveCommand() *cobra.Command {
	var (
		file        string
		policy      string
		seed        int64
		confirmRate float64
		format      string
	)

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a week input file",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readWeekInput(file)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("policy") {
				in.Policy = policy
			}
			if cmd.Flags().Changed("seed") {
				in.Seed = seed
			}
			if cmd.Flags().Changed("confirm-rate") {
				in.ConfirmRate = confirmRate
			}
			a.normalize(&in)

			week, err := a.solve(in)
			if err != nil {
				return err
			}
			return writeWeek(cmd.OutOrStdout(), week, format)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "week input file (YAML or JSON)")
	cmd.Flags().StringVar(&policy, "policy", "", "candidate order: supplied, round_robin, least_loaded, shuffle")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for the shuffle and confirmation policies")
	cmd.Flags().Float64Var(&confirmRate, "confirm-rate", 0, "share of filled records marked confirmed")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or csv")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) buildReconcileCommand() *cobra.Command {
	var scheduleFile, eventFile string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Apply a change event to a solved week and print the diff",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(scheduleFile)
			if err != nil {
				return err
			}
			var week models.WeeklySchedule
			if err := json.Unmarshal(data, &week); err != nil {
				return fmt.Errorf("parse %s: %w", scheduleFile, err)
			}

			data, err = os.ReadFile(eventFile)
			if err != nil {
				return err
			}
			var ev models.ChangeEvent
			if err := yaml.Unmarshal(data, &ev); err != nil {
				return fmt.Errorf("parse %s: %w", eventFile, err)
			}

			s, err := scheduler.ForWeek(&week, a.cfg.SolveParallelism)
			if err != nil {
				return err
			}
			diff, err := scheduler.NewReconciler(s.Solver).Reconcile(&week, ev)
			if err != nil {
				return err
			}
			a.log.Info("event reconciled",
				zap.String("type", string(ev.Type)),
				zap.Strings("days", diff.Days),
				zap.Int("added", len(diff.Added)),
				zap.Int("removed", len(diff.Removed)),
				zap.Int("newly_unfilled", len(diff.NewlyUnfilled)),
			)
			return writeJSON(cmd.OutOrStdout(), diff)
		},
	}
	cmd.Flags().StringVarP(&scheduleFile, "schedule", "s", "", "solved week (JSON, as printed by solve)")
	cmd.Flags().StringVarP(&eventFile, "event", "e", "", "change event file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("schedule")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

func (a *app) buildSimulateCommand() *cobra.Command {
	var (
		opts      simulate.Options
		weekStart string
		closed    []string
		agencyID  string
		solve     bool
		format    string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate a seeded week input, optionally solving it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if weekStart != "" {
				start, err := time.Parse("2006-01-02", weekStart)
				if err != nil {
					return fmt.Errorf("--week-start must be YYYY-MM-DD: %w", err)
				}
				opts.WeekStart = start
			}
			days, err := simulate.ParseWeekdays(closed)
			if err != nil {
				return err
			}
			opts.ClosedDays = days

			in, err := simulate.NewGenerator(opts).Week(agencyID, scheduler.DefaultWindows())
			if err != nil {
				return err
			}
			in.Seed = opts.Seed
			if !solve {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(in); err != nil {
					return err
				}
				return enc.Close()
			}

			a.normalize(&in)
			week, err := a.solve(in)
			if err != nil {
				return err
			}
			return writeWeek(cmd.OutOrStdout(), week, format)
		},
	}
	cmd.Flags().Int64Var(&opts.Seed, "seed", 1, "fixture seed")
	cmd.Flags().StringVar(&weekStart, "week-start", "", "first day of the week (YYYY-MM-DD)")
	cmd.Flags().IntVar(&opts.Caregivers, "caregivers", 10, "number of caregivers")
	cmd.Flags().IntVar(&opts.Elders, "elders", 30, "number of elders")
	cmd.Flags().IntVar(&opts.Groups, "groups", 1, "number of elder groups")
	cmd.Flags().IntVar(&opts.Capacity, "capacity", models.DefaultCapacity, "daily capacity per caregiver")
	cmd.Flags().Float64Var(&opts.CoverageTarget, "coverage-target", 0, "per-day coverage target (0..1)")
	cmd.Flags().StringSliceVar(&closed, "closed", nil, "closed weekdays, e.g. sat,sun")
	cmd.Flags().StringVar(&agencyID, "agency", "demo", "agency id stamped on the input")
	cmd.Flags().BoolVar(&solve, "solve", false, "solve the generated week instead of printing it")
	cmd.Flags().StringVar(&format, "format", "json", "output format when solving: json or csv")
	return cmd
}

func (a *app) buildValidateCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a week input file without solving it",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readWeekInput(file)
			if err != nil {
				return err
			}
			a.normalize(&in)

			result := scheduler.ValidateInput(in)
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.Valid {
				return fmt.Errorf("%w: %s", ErrInvalidInput, result.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "week input file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) normalize(in *models.WeekInput) {
	if in.Policy == "" {
		in.Policy = a.cfg.DefaultPolicy
	}
	in.Normalize(a.cfg.DefaultCapacity, scheduler.DefaultWindows())
}

func (a *app) solve(in models.WeekInput) (*models.WeeklySchedule, error) {
	s, err := scheduler.FromPolicy(in.Policy, in.Seed, in.ConfirmRate, a.cfg.SolveParallelism)
	if err != nil {
		return nil, err
	}
	week, err := s.Build(in)
	if err != nil {
		return nil, err
	}
	a.log.Info("week solved",
		zap.String("week_start", week.WeekStart),
		zap.String("policy", week.Policy),
		zap.Int("unfilled", week.UnfilledCount()),
		zap.Float64("fairness", week.FairnessScore),
	)
	return week, nil
}

func readWeekInput(path string) (models.WeekInput, error) {
	var in models.WeekInput
	data, err := os.ReadFile(path)
	if err != nil {
		return in, err
	}
	if err := yaml.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("parse %s: %w", path, err)
	}
	return in, nil
}

func writeWeek(w io.Writer, week *models.WeeklySchedule, format string) error {
	switch format {
	case "", "json":
		return writeJSON(w, week)
	case "csv":
		return export.WriteCSV(w, week)
	}
	return fmt.Errorf("unknown format %q", format)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
