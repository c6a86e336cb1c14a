package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args ...string) Config {
	t.Helper()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))

	c, err := Load(fs)
	require.NoError(t, err)
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := load(t)

	assert.Equal(t, SourceGCloud, c.Inventory.Source)
	assert.Equal(t, BackendFile, c.Cache.Backend)
	assert.Equal(t, 2*time.Minute, c.Inventory.Timeout)
	assert.Empty(t, c.Projects)
}

func TestLoadFlags(t *testing.T) {
	c := load(t,
		"--projects", "alpha,beta",
		"--log-all-hosts",
		"--gcloud", "/snap/bin/gcloud",
		"--historic.dir", "/var/log/hist",
		"--chronicle.dir", "/var/log/chronicle",
		"--inventory.timeout", "30s",
	)

	require.NoError(t, c.Validate())
	assert.Equal(t, []string{"alpha", "beta"}, c.Projects)
	assert.True(t, c.LogAllHosts)
	assert.Equal(t, "/snap/bin/gcloud", c.GCloudCommand())
	assert.Equal(t, "/var/log/hist/gcp-ip-host-list-alpha", c.CachePath("alpha"))
	assert.Equal(t, "/var/log/chronicle/staticip.log", c.ChangelogPath())
	assert.Equal(t, 30*time.Second, c.Inventory.Timeout)
}

func TestDevPaths(t *testing.T) {
	c := load(t, "--dev", "--projects", "alpha", "--gcloud.dev", "/usr/bin/gcloud")

	require.NoError(t, c.Validate())
	assert.Equal(t, "/usr/bin/gcloud", c.GCloudCommand())
	assert.Equal(t, "gcp-ip-host-list-alpha", c.CachePath("alpha"))
	assert.Equal(t, "staticip.log", c.ChangelogPath())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"no projects", []string{"--dev", "--gcloud.dev", "g"}, "no projects"},
		{"placeholder", []string{"--dev", "--gcloud.dev", "g", "--projects", "example-project-name2"}, "placeholder"},
		{"gcloud unset", []string{"--projects", "a", "--historic.dir", "h", "--chronicle.dir", "c"}, "gcloud is required"},
		{"dev gcloud unset", []string{"--dev", "--projects", "a", "--gcloud", "g"}, "gcloud.dev is required"},
		{"dirs unset", []string{"--projects", "a", "--gcloud", "g"}, "historic.dir is required"},
		{"file source", []string{"--dev", "--projects", "a", "--inventory.source", "file"}, "inventory.file is required"},
		{"unknown source", []string{"--dev", "--projects", "a", "--inventory.source", "ldap"}, "unknown inventory source"},
		{"sqlite", []string{"--dev", "--projects", "a", "--gcloud.dev", "g", "--cache.backend", "sqlite"}, "cache.db is required"},
		{"unknown backend", []string{"--dev", "--projects", "a", "--gcloud.dev", "g", "--cache.backend", "redis"}, "unknown cache backend"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := load(t, tc.args...).Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidateSQLiteNeedsNoHistoricDir(t *testing.T) {
	c := load(t,
		"--projects", "a",
		"--inventory.source", "compute",
		"--cache.backend", "sqlite",
		"--cache.db", "/var/lib/staticip.db",
		"--chronicle.dir", "/var/log",
	)

	assert.NoError(t, c.Validate())
}
