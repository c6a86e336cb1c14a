package registry

import (
	"crypto/rand"
	"fmt"
	"net"
	"regexp"
)

// HardwareIDFunc produces a fresh synthetic hardware id for a new host.
type HardwareIDFunc func() (string, error)

var hardwareIDPattern = regexp.MustCompile(`^[0-9a-f]{2}(:[0-9a-f]{2}){5}$`)

// NewHardwareID returns six random octets rendered as lowercase colon-hex.
// Collisions between hosts are possible and not checked.
func NewHardwareID() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return net.HardwareAddr(b).String(), nil
}

func ValidHardwareID(id string) bool {
	return hardwareIDPattern.MatchString(id)
}

// Summary counts what a merge did to each key.
type Summary struct {
	Added     int
	Updated   int
	Unchanged int
	// Retained counts cached keys that were absent from the live inventory.
	Retained int
}

func (s Summary) Changed() int {
	return s.Added + s.Updated
}

// Merge reconciles the live inventory against the cached registry and
// returns the updated registry. Neither input is modified.
//
// Every cached key survives. A live key missing from the cache gets a new
// hardware id from gen; a live key whose hostname differs from the cache
// keeps its hardware id and takes the live hostname. Both cases are flagged
// as changed. Only the hostname of live records is consulted.
func Merge(cached, live *Registry, gen HardwareIDFunc) (*Registry, Summary, error) {
	if gen == nil {
		gen = NewHardwareID
	}

	result := cached.Clone()
	var s Summary

	for _, k := range live.keys {
		l := live.records[k]

		if existing, ok := result.records[k]; ok {
			if existing.Hostname != l.Hostname {
				existing.Hostname = l.Hostname
				existing.Changed = true
				s.Updated++
			} else {
				s.Unchanged++
			}
			continue
		}

		id, err := gen()
		if err != nil {
			return nil, Summary{}, fmt.Errorf("generate hardware id for %s: %w", k, err)
		}

		result.Put(HostRecord{
			Address:    k,
			Hostname:   l.Hostname,
			HardwareID: id,
			Changed:    true,
		})
		s.Added++
	}

	s.Retained = result.Len() - s.Added - s.Updated - s.Unchanged

	return result, s, nil
}
