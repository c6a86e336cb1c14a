package runner

import (
	"time"

	"github.com/aRestless/staticip/pkg/cache"
	"github.com/aRestless/staticip/pkg/inventory"
	"github.com/aRestless/staticip/pkg/registry"
	"github.com/sirupsen/logrus"
)

func WithStore(store cache.Store) func(*Runner) {
	return func(r *Runner) {
		r.store = store
	}
}

func WithSource(source inventory.Source) func(*Runner) {
	return func(r *Runner) {
		r.source = source
	}
}

func WithChangelog(w ChangeWriter) func(*Runner) {
	return func(r *Runner) {
		r.changes = w
	}
}

func WithLogger(l logrus.FieldLogger) func(*Runner) {
	return func(r *Runner) {
		r.l = l
	}
}

func WithClock(now func() time.Time) func(*Runner) {
	return func(r *Runner) {
		r.now = now
	}
}

func WithHardwareIDFunc(gen registry.HardwareIDFunc) func(*Runner) {
	return func(r *Runner) {
		r.newID = gen
	}
}

func WithLogAllHosts(all bool) func(*Runner) {
	return func(r *Runner) {
		r.logAllHosts = all
	}
}

// WithDryRun skips every write; results still carry the merged registry.
func WithDryRun(dryRun bool) func(*Runner) {
	return func(r *Runner) {
		r.dryRun = dryRun
	}
}
