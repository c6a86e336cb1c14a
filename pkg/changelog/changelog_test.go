package changelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aRestless/staticip/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2020, 5, 29, 14, 0, 0, 0, time.UTC)

func sample() *registry.Registry {
	reg := registry.New()
	reg.Put(registry.HostRecord{Address: "10.0.0.1", Hostname: "web1", HardwareID: "aa:bb:cc:dd:ee:ff"})
	reg.Put(registry.HostRecord{Address: "10.0.0.2", Hostname: "db1", HardwareID: "02:00:00:00:00:01", Changed: true})
	return reg
}

func TestFormatRecord(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	rec := registry.HostRecord{Address: "192.168.1.1", Hostname: "router1", HardwareID: "aa:bb:cc:12:34:56"}

	assert.Equal(t,
		"2020-05-29T14:00:00Z,RENEW,192.168.1.1,router1,aa:bb:cc:12:34:56",
		FormatRecord(now.In(loc), rec),
	)
}

func TestWriterChangedOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staticip.log")

	w, err := Open(path, false)
	require.NoError(t, err)

	n, err := w.Write(sample(), false, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, w.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2020-05-29T14:00:00Z,RENEW,10.0.0.2,db1,02:00:00:00:00:01\n", string(b))
}

func TestWriterIncludeAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staticip.log")

	w, err := Open(path, false)
	require.NoError(t, err)

	n, err := w.Write(sample(), true, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, w.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"2020-05-29T14:00:00Z,RENEW,10.0.0.1,web1,aa:bb:cc:dd:ee:ff\n"+
			"2020-05-29T14:00:00Z,RENEW,10.0.0.2,db1,02:00:00:00:00:01\n",
		string(b))
}

func TestOpenTruncatesOrAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staticip.log")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0644))

	w, err := Open(path, true)
	require.NoError(t, err)
	_, err = w.Write(sample(), false, now)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	b, _ := os.ReadFile(path)
	assert.Equal(t, "old\n2020-05-29T14:00:00Z,RENEW,10.0.0.2,db1,02:00:00:00:00:01\n", string(b))

	w, err = Open(path, false)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	b, _ = os.ReadFile(path)
	assert.Empty(t, b)
}
