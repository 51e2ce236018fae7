// Package compute binds a ComputeDriver to instance and image handles and
// to the region and instance-type catalog.
package compute

import (
	"context"
	"fmt"
	"strings"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/lifecycle"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

type Service struct {
	driver ports.ComputeDriver
	opts   []lifecycle.Option
}

var _ ports.ComputeService = (*Service)(nil)

func NewService(driver ports.ComputeDriver, opts ...lifecycle.Option) *Service {
	return &Service{driver: driver, opts: opts}
}

func (s *Service) Instances() ports.InstanceCollection         { return instanceCollection{s} }
func (s *Service) Images() ports.ImageCollection               { return imageCollection{s} }
func (s *Service) InstanceTypes() ports.InstanceTypeCollection { return instanceTypeCollection{s} }
func (s *Service) Regions() ports.RegionCollection             { return regionCollection{s} }

type instanceCollection struct{ svc *Service }

func (c instanceCollection) Get(ctx context.Context, id string) (ports.Instance, error) {
	rec, err := c.svc.driver.DescribeInstance(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.svc.newInstance(rec), nil
}

func (c instanceCollection) List(ctx context.Context) ([]ports.Instance, error) {
	recs, err := c.svc.driver.ListInstances(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError, "failed to list instances")
	}
	out := make([]ports.Instance, 0, len(recs))
	for _, rec := range recs {
		out = append(out, c.svc.newInstance(rec))
	}
	return out, nil
}

func (c instanceCollection) Launch(ctx context.Context, spec domain.InstanceSpec) (ports.Instance, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	rec, err := c.svc.driver.LaunchInstance(ctx, spec)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to launch instance %q", spec.Name))
	}
	return c.svc.newInstance(rec), nil
}

type imageCollection struct{ svc *Service }

func (c imageCollection) Get(ctx context.Context, id string) (ports.MachineImage, error) {
	rec, err := c.svc.driver.DescribeImage(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.svc.newImage(rec), nil
}

func (c imageCollection) List(ctx context.Context) ([]ports.MachineImage, error) {
	recs, err := c.svc.driver.ListImages(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError, "failed to list images")
	}
	out := make([]ports.MachineImage, 0, len(recs))
	for _, rec := range recs {
		out = append(out, c.svc.newImage(rec))
	}
	return out, nil
}

type instanceTypeCollection struct{ svc *Service }

func (c instanceTypeCollection) List(ctx context.Context) ([]domain.InstanceType, error) {
	types, err := c.svc.driver.ListInstanceTypes(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError, "failed to list instance types")
	}
	return types, nil
}

// Find matches by name, falling back to id, case-insensitively.
func (c instanceTypeCollection) Find(ctx context.Context, name string) (domain.InstanceType, error) {
	types, err := c.List(ctx)
	if err != nil {
		return domain.InstanceType{}, err
	}
	for _, it := range types {
		if strings.EqualFold(it.Name, name) {
			return it, nil
		}
	}
	for _, it := range types {
		if strings.EqualFold(it.ID, name) {
			return it, nil
		}
	}
	return domain.InstanceType{}, apperrors.New(apperrors.CodeResourceNotFound,
		fmt.Sprintf("instance type %q not found", name))
}

type regionCollection struct{ svc *Service }

func (c regionCollection) List(ctx context.Context) ([]domain.Region, error) {
	regions, err := c.svc.driver.ListRegions(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError, "failed to list regions")
	}
	return regions, nil
}

func (c regionCollection) Zones(ctx context.Context, regionID string) ([]domain.PlacementZone, error) {
	zones, err := c.svc.driver.ListZones(ctx, regionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to list zones of region %s", regionID))
	}
	return zones, nil
}
