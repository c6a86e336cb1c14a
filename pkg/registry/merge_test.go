package registry

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func sequentialIDs() HardwareIDFunc {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("02:00:00:00:00:%02x", n), nil
	}
}

func registryOf(recs ...HostRecord) *Registry {
	r := New()
	for _, rec := range recs {
		r.Put(rec)
	}
	return r
}

func TestMergeUnchanged(t *testing.T) {
	cached := registryOf(
		HostRecord{Address: "10.0.0.1", Hostname: "web1", HardwareID: "aa:bb:cc:dd:ee:ff"},
		HostRecord{Address: "10.0.0.2", Hostname: "db1", HardwareID: "aa:bb:cc:dd:ee:00"},
	)
	live := registryOf(
		HostRecord{Address: "10.0.0.2", Hostname: "db1"},
		HostRecord{Address: "10.0.0.1", Hostname: "web1"},
	)

	merged, s, err := Merge(cached, live, sequentialIDs())
	require.NoError(t, err)

	assert.True(t, merged.Equal(cached))
	assert.Empty(t, merged.Changed())
	assert.Equal(t, Summary{Unchanged: 2}, s)
}

func TestMergeNewHost(t *testing.T) {
	cached := registryOf(HostRecord{Address: "10.0.0.1", Hostname: "web1", HardwareID: "aa:bb:cc:dd:ee:ff"})
	live := registryOf(
		HostRecord{Address: "10.0.0.1", Hostname: "web1"},
		HostRecord{Address: "10.0.0.2", Hostname: "db1"},
	)

	merged, s, err := Merge(cached, live, nil)
	require.NoError(t, err)

	rec, ok := merged.Get("10.0.0.2")
	require.True(t, ok)
	assert.Equal(t, "db1", rec.Hostname)
	assert.True(t, rec.Changed)
	assert.True(t, ValidHardwareID(rec.HardwareID), rec.HardwareID)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, merged.Keys())
	assert.Equal(t, Summary{Added: 1, Unchanged: 1}, s)
}

func TestMergeHostnameMovedKeepsHardwareID(t *testing.T) {
	cached := registryOf(HostRecord{Address: "10.0.0.1", Hostname: "web1", HardwareID: "aa:bb:cc:dd:ee:ff"})
	live := registryOf(HostRecord{Address: "10.0.0.1", Hostname: "web2"})

	merged, s, err := Merge(cached, live, sequentialIDs())
	require.NoError(t, err)

	rec, _ := merged.Get("10.0.0.1")
	assert.Equal(t, HostRecord{Address: "10.0.0.1", Hostname: "web2", HardwareID: "aa:bb:cc:dd:ee:ff", Changed: true}, rec)
	assert.Equal(t, 1, s.Updated)
}

func TestMergeRetainsStaleHosts(t *testing.T) {
	cached := registryOf(HostRecord{Address: "10.0.0.9", Hostname: "gone", HardwareID: "aa:bb:cc:dd:ee:09"})

	merged, s, err := Merge(cached, New(), sequentialIDs())
	require.NoError(t, err)

	rec, ok := merged.Get("10.0.0.9")
	require.True(t, ok)
	assert.Equal(t, HostRecord{Address: "10.0.0.9", Hostname: "gone", HardwareID: "aa:bb:cc:dd:ee:09"}, rec)
	assert.Equal(t, Summary{Retained: 1}, s)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	cached := registryOf(HostRecord{Address: "10.0.0.1", Hostname: "web1", HardwareID: "aa:bb:cc:dd:ee:ff"})
	live := registryOf(
		HostRecord{Address: "10.0.0.1", Hostname: "web2"},
		HostRecord{Address: "10.0.0.2", Hostname: "db1"},
	)

	_, _, err := Merge(cached, live, sequentialIDs())
	require.NoError(t, err)

	rec, _ := cached.Get("10.0.0.1")
	assert.Equal(t, "web1", rec.Hostname)
	assert.False(t, rec.Changed)
	assert.Equal(t, 1, cached.Len())
}

func TestMergeClearsPriorFlags(t *testing.T) {
	cached := registryOf(HostRecord{Address: "10.0.0.1", Hostname: "web1", HardwareID: "aa:bb:cc:dd:ee:ff", Changed: true})
	live := registryOf(HostRecord{Address: "10.0.0.1", Hostname: "web1"})

	merged, _, err := Merge(cached, live, sequentialIDs())
	require.NoError(t, err)
	assert.Empty(t, merged.Changed())
}

func TestMergeGeneratorError(t *testing.T) {
	boom := errors.New("entropy exhausted")
	live := registryOf(HostRecord{Address: "10.0.0.1", Hostname: "web1"})

	_, _, err := Merge(New(), live, func() (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)
}

func TestNewHardwareID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		id, err := NewHardwareID()
		require.NoError(t, err)
		require.True(t, ValidHardwareID(id), id)
		seen[id] = true
	}

	assert.Greater(t, len(seen), 1)
}

func TestValidHardwareID(t *testing.T) {
	assert.True(t, ValidHardwareID("00:1a:2b:3c:4d:5e"))
	assert.False(t, ValidHardwareID("00:1A:2B:3C:4D:5E"))
	assert.False(t, ValidHardwareID("00:1a:2b:3c:4d"))
	assert.False(t, ValidHardwareID("001a2b3c4d5e"))
}

func drawRegistry(t *rapid.T, label string, withIDs bool) *Registry {
	addrs := rapid.SliceOfNDistinct(rapid.StringMatching(`10\.0\.[0-9]\.[0-9]{1,2}`), 0, 12, rapid.ID[string]).Draw(t, label+"-addrs")
	r := New()
	for _, a := range addrs {
		rec := HostRecord{
			Address:  a,
			Hostname: rapid.SampledFrom([]string{"web1", "web2", "db1", "cache"}).Draw(t, label+"-host"),
		}
		if withIDs {
			rec.HardwareID = rapid.StringMatching(`[0-9a-f]{2}(:[0-9a-f]{2}){5}`).Draw(t, label+"-id")
		}
		r.Put(rec)
	}
	return r
}

func TestMergeProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cached := drawRegistry(t, "cached", true)
		live := drawRegistry(t, "live", false)

		merged, s, err := Merge(cached, live, NewHardwareID)
		require.NoError(t, err)

		// Cached keys survive with their hardware id.
		for _, before := range cached.Records() {
			after, ok := merged.Get(before.Address)
			require.True(t, ok)
			require.Equal(t, before.HardwareID, after.HardwareID)

			l, inLive := live.Get(before.Address)
			if !inLive {
				require.Equal(t, before.Hostname, after.Hostname)
				require.False(t, after.Changed)
				continue
			}
			require.Equal(t, l.Hostname, after.Hostname)
			require.Equal(t, before.Hostname != l.Hostname, after.Changed)
		}

		// Live keys are all present; new ones carry a valid id.
		for _, l := range live.Records() {
			after, ok := merged.Get(l.Address)
			require.True(t, ok)
			if _, wasCached := cached.Get(l.Address); !wasCached {
				require.True(t, after.Changed)
				require.True(t, ValidHardwareID(after.HardwareID))
			}
		}

		require.Equal(t, s.Changed(), len(merged.Changed()))
		require.Equal(t, merged.Len(), s.Added+s.Updated+s.Unchanged+s.Retained)
	})
}

func TestMergeIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cached := drawRegistry(t, "cached", true)

		merged, s, err := Merge(cached, cached, NewHardwareID)
		require.NoError(t, err)
		require.True(t, merged.Equal(cached))
		require.Zero(t, s.Changed())
	})
}
