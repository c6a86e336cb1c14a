package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

var ErrInvalid = errors.New("invalid configuration")

const (
	SourceGCloud  = "gcloud"
	SourceCompute = "compute"
	SourceFile    = "file"

	BackendFile   = "file"
	BackendSQLite = "sqlite"

	historicPrefix = "gcp-ip-host-list-"
	changelogName  = "staticip.log"
	placeholder    = "example-project-name"
)

type Inventory struct {
	Source      string
	Timeout     time.Duration
	File        string
	Credentials string
}

type Cache struct {
	Backend string
	DBPath  string
}

// Config is built once at startup and handed to every component.
type Config struct {
	Projects    []string
	LogAllHosts bool
	Dev         bool
	DryRun      bool
	Strict      bool
	LockFile    string

	GCloudPath    string
	GCloudPathDev string
	HistoricDir   string
	ChronicleDir  string

	ChangelogAppend bool

	Inventory Inventory
	Cache     Cache
}

// RegisterFlags declares every setting on fs. Names double as viper keys.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringSlice("projects", nil, "GCP projects to reconcile, in order")
	fs.Bool("log-all-hosts", false, "log every known host, not just new and updated ones")
	fs.Bool("dev", false, "use local paths and the development gcloud binary")
	fs.Bool("dry-run", false, "reconcile and print changes without writing any file")
	fs.Bool("strict", false, "exit nonzero if any project fails")
	fs.String("lock-file", "", "take an exclusive lock on this file for the duration of the run")

	fs.String("gcloud", "", "path to the gcloud binary, e.g. /snap/bin/gcloud")
	fs.String("gcloud.dev", "", "path to the gcloud binary in --dev mode")
	fs.String("historic.dir", "", "directory holding the per-project host caches")
	fs.String("chronicle.dir", "", "directory receiving staticip.log")

	fs.Bool("changelog.append", false, "append to the change log instead of replacing it each run")

	fs.String("inventory.source", SourceGCloud, "inventory source: gcloud, compute or file")
	fs.Duration("inventory.timeout", 2*time.Minute, "timeout for listing one project")
	fs.String("inventory.file", "", "YAML inventory for --inventory.source=file")
	fs.String("inventory.credentials", "", "service account JSON for --inventory.source=compute")

	fs.String("cache.backend", BackendFile, "host cache backend: file or sqlite")
	fs.String("cache.db", "", "sqlite database for --cache.backend=sqlite")
}

// Load reads the settings declared by RegisterFlags.
func Load(fs *pflag.FlagSet) (Config, error) {
	var c Config
	var err error

	get := func(name string, dst *string) {
		if err == nil {
			*dst, err = fs.GetString(name)
		}
	}
	getBool := func(name string, dst *bool) {
		if err == nil {
			*dst, err = fs.GetBool(name)
		}
	}

	if c.Projects, err = fs.GetStringSlice("projects"); err != nil {
		return Config{}, fmt.Errorf("getting --projects flag: %w", err)
	}
	if c.Inventory.Timeout, err = fs.GetDuration("inventory.timeout"); err != nil {
		return Config{}, fmt.Errorf("getting --inventory.timeout flag: %w", err)
	}

	getBool("log-all-hosts", &c.LogAllHosts)
	getBool("dev", &c.Dev)
	getBool("dry-run", &c.DryRun)
	getBool("strict", &c.Strict)
	getBool("changelog.append", &c.ChangelogAppend)
	get("lock-file", &c.LockFile)
	get("gcloud", &c.GCloudPath)
	get("gcloud.dev", &c.GCloudPathDev)
	get("historic.dir", &c.HistoricDir)
	get("chronicle.dir", &c.ChronicleDir)
	get("inventory.source", &c.Inventory.Source)
	get("inventory.file", &c.Inventory.File)
	get("inventory.credentials", &c.Inventory.Credentials)
	get("cache.backend", &c.Cache.Backend)
	get("cache.db", &c.Cache.DBPath)
	if err != nil {
		return Config{}, fmt.Errorf("getting flags: %w", err)
	}

	return c, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var problems []string

	if len(c.Projects) == 0 {
		problems = append(problems, "no projects configured")
	}
	for _, p := range c.Projects {
		switch {
		case strings.TrimSpace(p) == "":
			problems = append(problems, "empty project name")
		case strings.HasPrefix(p, placeholder):
			problems = append(problems, fmt.Sprintf("placeholder project %q", p))
		}
	}

	switch c.Inventory.Source {
	case SourceGCloud:
		if c.GCloudCommand() == "" {
			if c.Dev {
				problems = append(problems, "gcloud.dev is required in dev mode")
			} else {
				problems = append(problems, "gcloud is required")
			}
		}
	case SourceCompute:
	case SourceFile:
		if c.Inventory.File == "" {
			problems = append(problems, "inventory.file is required for the file source")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown inventory source %q", c.Inventory.Source))
	}

	if c.Inventory.Timeout < 0 {
		problems = append(problems, "inventory.timeout must not be negative")
	}

	switch c.Cache.Backend {
	case BackendFile:
	case BackendSQLite:
		if c.Cache.DBPath == "" {
			problems = append(problems, "cache.db is required for the sqlite backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown cache backend %q", c.Cache.Backend))
	}

	if !c.Dev {
		if c.HistoricDir == "" && c.Cache.Backend == BackendFile {
			problems = append(problems, "historic.dir is required")
		}
		if c.ChronicleDir == "" {
			problems = append(problems, "chronicle.dir is required")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}

	return nil
}

func (c Config) GCloudCommand() string {
	if c.Dev {
		return c.GCloudPathDev
	}

	return c.GCloudPath
}

// CacheBase is the path prefix of the per-project cache files.
func (c Config) CacheBase() string {
	if c.Dev {
		return historicPrefix
	}

	return filepath.Join(c.HistoricDir, historicPrefix)
}

func (c Config) CachePath(project string) string {
	return c.CacheBase() + project
}

func (c Config) ChangelogPath() string {
	if c.Dev {
		return changelogName
	}

	return filepath.Join(c.ChronicleDir, changelogName)
}
