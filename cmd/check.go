package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aRestless/staticip/pkg/config"
)

func initCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and print the resolved paths",
		Args:  cobra.NoArgs,
		RunE:  check,
	}
}

func check(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	err = cfg.Validate()
	if err != nil {
		return err
	}

	rows := []map[string]string{
		{"Setting": "projects", "Value": strings.Join(cfg.Projects, ",")},
		{"Setting": "mode", "Value": mode(cfg)},
		{"Setting": "inventory", "Value": cfg.Inventory.Source},
		{"Setting": "cache", "Value": cfg.Cache.Backend},
		{"Setting": "changelog", "Value": cfg.ChangelogPath()},
	}

	switch cfg.Inventory.Source {
	case config.SourceGCloud:
		rows = append(rows, map[string]string{"Setting": "gcloud", "Value": cfg.GCloudCommand()})
	case config.SourceFile:
		rows = append(rows, map[string]string{"Setting": "inventory file", "Value": cfg.Inventory.File})
	}

	if cfg.Cache.Backend == config.BackendSQLite {
		rows = append(rows, map[string]string{"Setting": "cache db", "Value": cfg.Cache.DBPath})
	} else {
		for _, p := range cfg.Projects {
			rows = append(rows, map[string]string{
				"Setting": fmt.Sprintf("cache[%s]", p),
				"Value":   cfg.CachePath(p),
			})
		}
	}

	printTable(cmd.OutOrStdout(), rows, []string{"Setting", "Value"})
	return nil
}

func mode(cfg config.Config) string {
	if cfg.Dev {
		return "dev"
	}

	return "prod"
}
