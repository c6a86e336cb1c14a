package inventory

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aRestless/staticip/pkg/registry"
)

var (
	ErrorCommandFailed  = errors.New("inventory command failed")
	ErrorTimeout        = errors.New("inventory listing timed out")
	ErrorUnknownProject = errors.New("unknown project")
)

// Instance is one live compute instance and its primary address.
type Instance struct {
	Name    string
	Address string
}

// Source lists the live instances of a project. An error means the listing
// itself failed and must not be read as an empty project.
type Source interface {
	List(ctx context.Context, project string) ([]Instance, error)
}

// ParseLines reads "name address" pairs, one per line. Lines with any other
// token count are returned in malformed and left out of the result.
func ParseLines(r io.Reader) (instances []Instance, malformed []string, err error) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		if len(tokens) != 2 {
			malformed = append(malformed, line)
			continue
		}

		instances = append(instances, Instance{Name: tokens[0], Address: tokens[1]})
	}

	return instances, malformed, s.Err()
}

// ToRegistry keys the instances by address. Hardware ids are left empty
// for the merge to fill in.
func ToRegistry(instances []Instance) *registry.Registry {
	reg := registry.New()
	for _, inst := range instances {
		reg.Put(registry.HostRecord{
			Address:  inst.Address,
			Hostname: inst.Name,
		})
	}

	return reg
}
