package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aRestless/staticip/pkg/cache"
	"github.com/aRestless/staticip/pkg/changelog"
	"github.com/aRestless/staticip/pkg/inventory"
	"github.com/aRestless/staticip/pkg/registry"
	"github.com/sirupsen/logrus"
)

// ChangeWriter receives the change records of each project.
type ChangeWriter interface {
	Write(reg *registry.Registry, includeAll bool, now time.Time) (int, error)
}

// Runner reconciles projects one after another. Overlapping runs against
// the same cache or change log are not safe; callers must serialize them.
type Runner struct {
	store       cache.Store
	source      inventory.Source
	changes     ChangeWriter
	l           logrus.FieldLogger
	now         func() time.Time
	newID       registry.HardwareIDFunc
	logAllHosts bool
	dryRun      bool
}

type ProjectResult struct {
	Project string
	Summary registry.Summary
	// Logged is the number of change records written for the project.
	Logged int
	// Records is the merged registry; set on success only.
	Records *registry.Registry
	Err     error
}

type Report struct {
	Projects []ProjectResult
}

func (r *Report) Failed() []ProjectResult {
	var failed []ProjectResult
	for _, p := range r.Projects {
		if p.Err != nil {
			failed = append(failed, p)
		}
	}

	return failed
}

func New(options ...func(*Runner)) *Runner {
	r := &Runner{
		l:     logrus.StandardLogger(),
		now:   time.Now,
		newID: registry.NewHardwareID,
	}
	for _, o := range options {
		o(r)
	}

	return r
}

// Run processes projects in order. A failing project is recorded in the
// report and its cache is left as it was; the run goes on with the next
// project. Only a cancelled context stops the run early.
func (r *Runner) Run(ctx context.Context, projects []string) (*Report, error) {
	if r.store == nil || r.source == nil {
		return nil, errors.New("runner needs a store and an inventory source")
	}
	if r.changes == nil && !r.dryRun {
		return nil, errors.New("runner needs a change writer")
	}

	report := &Report{}
	for _, project := range projects {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		l := r.l.WithField("project", project)
		l.Info("checking project")

		res := r.runProject(ctx, project, l)
		report.Projects = append(report.Projects, res)

		if res.Err != nil {
			l.WithError(res.Err).Error("skipping project")
			continue
		}

		l.WithFields(logrus.Fields{
			"added":     res.Summary.Added,
			"updated":   res.Summary.Updated,
			"unchanged": res.Summary.Unchanged,
			"retained":  res.Summary.Retained,
			"logged":    res.Logged,
		}).Info("project reconciled")
	}

	return report, nil
}

func (r *Runner) runProject(ctx context.Context, project string, l logrus.FieldLogger) ProjectResult {
	res := ProjectResult{Project: project}

	cached, err := r.store.Load(ctx, project)
	if err != nil {
		res.Err = fmt.Errorf("load cache: %w", err)
		return res
	}

	instances, err := r.source.List(ctx, project)
	if err != nil {
		res.Err = fmt.Errorf("list instances: %w", err)
		return res
	}

	merged, summary, err := registry.Merge(cached, inventory.ToRegistry(instances), r.newID)
	if err != nil {
		res.Err = fmt.Errorf("merge: %w", err)
		return res
	}
	res.Summary = summary

	for _, rec := range merged.Changed() {
		before, existed := cached.Get(rec.Address)
		if existed {
			l.Infof("updating %s: %s to %s", rec.Address, before.Hostname, rec.Hostname)
		} else {
			l.Infof("adding new host %s at %s as %s", rec.Hostname, rec.Address, rec.HardwareID)
		}
	}

	if r.dryRun {
		res.Logged = len(changelog.Select(merged, r.logAllHosts))
		res.Records = merged
		return res
	}

	// The cache is saved first so that a hardware id never reaches the log
	// without being stored. A record lost to a failed log write comes back
	// with --log-all-hosts.
	err = r.store.Save(ctx, project, merged)
	if err != nil {
		res.Err = fmt.Errorf("save cache: %w", err)
		return res
	}

	res.Logged, err = r.changes.Write(merged, r.logAllHosts, r.now())
	if err != nil {
		res.Err = fmt.Errorf("write change log: %w", err)
		return res
	}

	res.Records = merged
	return res
}
