package inventory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
	compute "google.golang.org/api/compute/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Compute lists instances through the Compute Engine API across all zones
// of a project.
type Compute struct {
	svc     *compute.Service
	timeout time.Duration
	l       logrus.FieldLogger
}

// NewCompute builds a Compute Engine client. An empty credentialsFile falls
// back to application default credentials.
func NewCompute(ctx context.Context, credentialsFile string, timeout time.Duration, l logrus.FieldLogger, opts ...option.ClientOption) (*Compute, error) {
	if l == nil {
		l = logrus.StandardLogger()
	}

	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	svc, err := compute.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create compute service: %w", err)
	}

	return &Compute{
		svc:     svc,
		timeout: timeout,
		l:       l,
	}, nil
}

func (c *Compute) List(ctx context.Context, project string) ([]Instance, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	l := c.l.WithField("project", project)

	var result []Instance
	call := c.svc.Instances.AggregatedList(project).
		Fields(googleapi.Field("items/*/instances(name,networkInterfaces/networkIP)"), "nextPageToken")

	err := call.Pages(ctx, func(page *compute.InstanceAggregatedList) error {
		scopes := make([]string, 0, len(page.Items))
		for scope := range page.Items {
			scopes = append(scopes, scope)
		}
		slices.Sort(scopes)

		for _, scope := range scopes {
			for _, inst := range page.Items[scope].Instances {
				if len(inst.NetworkInterfaces) == 0 || inst.NetworkInterfaces[0].NetworkIP == "" {
					l.WithField("instance", inst.Name).Warn("skipping instance without network address")
					continue
				}

				result = append(result, Instance{
					Name:    inst.Name,
					Address: inst.NetworkInterfaces[0].NetworkIP,
				})
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: compute api after %s", ErrorTimeout, c.timeout)
		}

		return nil, fmt.Errorf("list instances of %s: %w", project, err)
	}

	return result, nil
}
