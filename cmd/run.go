package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aRestless/staticip/pkg/cache"
	"github.com/aRestless/staticip/pkg/changelog"
	"github.com/aRestless/staticip/pkg/config"
	"github.com/aRestless/staticip/pkg/inventory"
	"github.com/aRestless/staticip/pkg/model"
	"github.com/aRestless/staticip/pkg/runner"
)

func initRunCmd(logIn *LogInput) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Reconcile every configured project once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, logIn)
		},
	}
}

func runRun(cmd *cobra.Command, logIn *LogInput) error {
	l, err := newLogger(logIn)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	err = cfg.Validate()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.LockFile != "" {
		lock := flock.New(cfg.LockFile)
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("lock %s: %w", cfg.LockFile, err)
		}
		if !locked {
			return fmt.Errorf("another run holds %s", cfg.LockFile)
		}
		defer lock.Unlock()
	}

	store, err := newStore(cfg, l)
	if err != nil {
		return err
	}

	source, err := newSource(ctx, cfg, l)
	if err != nil {
		return err
	}

	opts := []func(*runner.Runner){
		runner.WithStore(store),
		runner.WithSource(source),
		runner.WithLogger(l),
		runner.WithLogAllHosts(cfg.LogAllHosts),
		runner.WithDryRun(cfg.DryRun),
	}

	var w *changelog.Writer
	if !cfg.DryRun {
		w, err = changelog.Open(cfg.ChangelogPath(), cfg.ChangelogAppend)
		if err != nil {
			return err
		}
		defer w.Close()
		opts = append(opts, runner.WithChangelog(w))
	}

	report, err := runner.New(opts...).Run(ctx, cfg.Projects)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if cfg.DryRun {
		printDryRun(cmd, report, cfg.LogAllHosts)
	}

	if w != nil {
		if err := w.Close(); err != nil {
			return err
		}
	}

	failed := report.Failed()
	if len(failed) > 0 {
		l.WithField("failed", len(failed)).Warnf("%d of %d projects failed", len(failed), len(report.Projects))
		if cfg.Strict {
			return fmt.Errorf("%d of %d projects failed", len(failed), len(report.Projects))
		}
	}

	return nil
}

func newStore(cfg config.Config, l *logrus.Logger) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case config.BackendSQLite:
		db, err := model.NewDatabase(cfg.Cache.DBPath, l)
		if err != nil {
			return nil, fmt.Errorf("create database: %w", err)
		}
		return cache.NewSQLiteStore(db), nil
	default:
		return cache.NewFileStore(cfg.CacheBase(), l), nil
	}
}

func newSource(ctx context.Context, cfg config.Config, l *logrus.Logger) (inventory.Source, error) {
	switch cfg.Inventory.Source {
	case config.SourceCompute:
		c, err := inventory.NewCompute(ctx, cfg.Inventory.Credentials, cfg.Inventory.Timeout, l)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.SourceFile:
		return inventory.NewFile(cfg.Inventory.File), nil
	default:
		return inventory.NewGCloud(cfg.GCloudCommand(), cfg.Inventory.Timeout, l), nil
	}
}

func printDryRun(cmd *cobra.Command, report *runner.Report, includeAll bool) {
	columns := []string{"Project", "Address", "Hostname", "HardwareAddress", "Changed"}
	var output []map[string]string
	for _, p := range report.Projects {
		if p.Records == nil {
			continue
		}

		for _, rec := range changelog.Select(p.Records, includeAll) {
			output = append(output, map[string]string{
				"Project":         p.Project,
				"Address":         rec.Address,
				"Hostname":        rec.Hostname,
				"HardwareAddress": rec.HardwareID,
				"Changed":         fmt.Sprintf("%t", rec.Changed),
			})
		}
	}

	printTable(cmd.OutOrStdout(), output, columns)
}
