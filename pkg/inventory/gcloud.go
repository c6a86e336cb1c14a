package inventory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const gcloudFormat = "value(name,networkInterfaces[0].networkIP)"

// GCloud lists instances by running the gcloud CLI directly, without a
// shell in between.
type GCloud struct {
	path    string
	timeout time.Duration
	l       logrus.FieldLogger
}

func NewGCloud(path string, timeout time.Duration, l logrus.FieldLogger) *GCloud {
	if l == nil {
		l = logrus.StandardLogger()
	}

	return &GCloud{
		path:    path,
		timeout: timeout,
		l:       l,
	}
}

func (g *GCloud) args(project string) []string {
	return []string{
		"compute", "instances", "list",
		"--project", project,
		"--format", gcloudFormat,
		"--quiet",
	}
}

func (g *GCloud) List(ctx context.Context, project string) ([]Instance, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, g.path, g.args(project)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s after %s", ErrorTimeout, g.path, g.timeout)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return nil, fmt.Errorf("%w: %w: %s", ErrorCommandFailed, err, strings.TrimSpace(stderr.String()))
	}

	l := g.l.WithField("project", project)
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		l.WithField("stderr", msg).Debug("gcloud wrote to stderr")
	}

	instances, malformed, err := ParseLines(&stdout)
	if err != nil {
		return nil, fmt.Errorf("read gcloud output: %w", err)
	}

	for _, line := range malformed {
		l.WithField("line", line).Warn("skipping malformed inventory line")
	}

	return instances, nil
}
