package cache

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/aRestless/staticip/pkg/registry"
)

const fieldCount = 3

// ParseLines reads cache lines of the form address,hostname,hardware_id.
// Lines have no length limit. Blank lines are ignored. Lines that do not split into exactly three
// fields are skipped and counted; the hardware id is not validated.
func ParseLines(r io.Reader) (*registry.Registry, int, error) {
	reg := registry.New()
	skipped := 0

	br := bufio.NewReader(r)
	for {
		raw, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, skipped, fmt.Errorf("read cache lines: %w", err)
		}

		line := strings.TrimSpace(raw)
		if line != "" {
			fields := strings.Split(line, ",")
			if len(fields) == fieldCount {
				reg.Put(registry.HostRecord{
					Address:    fields[0],
					Hostname:   fields[1],
					HardwareID: fields[2],
				})
			} else {
				skipped++
			}
		}

		if err == io.EOF {
			break
		}
	}

	return reg, skipped, nil
}

// Format writes one line per record in registry order.
func Format(w io.Writer, reg *registry.Registry) error {
	bw := bufio.NewWriter(w)
	for _, rec := range reg.Records() {
		_, err := fmt.Fprintf(bw, "%s,%s,%s\n", rec.Address, rec.Hostname, rec.HardwareID)
		if err != nil {
			return fmt.Errorf("write record %s: %w", rec.Address, err)
		}
	}

	return bw.Flush()
}
