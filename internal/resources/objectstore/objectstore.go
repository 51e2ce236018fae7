// Package objectstore binds an ObjectStoreDriver to container and object
// handles.
package objectstore

import (
	"context"
	"fmt"
	"io"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

type Service struct {
	driver ports.ObjectStoreDriver
	logger ports.Logger
}

var _ ports.ObjectStoreService = (*Service)(nil)

func NewService(driver ports.ObjectStoreDriver, logger ports.Logger) *Service {
	return &Service{driver: driver, logger: logger}
}

func (s *Service) Containers() ports.ContainerCollection { return containerCollection{s} }

type Container struct {
	svc *Service
	rec domain.ContainerRecord
}

var _ ports.Container = (*Container)(nil)

func (c *Container) Name() string { return c.rec.Name }

func (c *Container) Get(ctx context.Context, key string) (ports.ContainerObject, error) {
	rec, err := c.svc.driver.HeadObject(ctx, c.rec.Name, key)
	if err != nil {
		return nil, err
	}
	return &Object{svc: c.svc, rec: rec}, nil
}

func (c *Container) List(ctx context.Context) ([]ports.ContainerObject, error) {
	recs, err := c.svc.driver.ListObjects(ctx, c.rec.Name)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to list objects in %s", c.rec.Name))
	}
	out := make([]ports.ContainerObject, 0, len(recs))
	for _, rec := range recs {
		out = append(out, &Object{svc: c.svc, rec: rec})
	}
	return out, nil
}

func (c *Container) Object(key string) ports.ContainerObject {
	return &Object{svc: c.svc, rec: domain.ObjectRecord{Container: c.rec.Name, Key: key}}
}

func (c *Container) Delete(ctx context.Context, deleteContents bool) error {
	if deleteContents {
		objects, err := c.List(ctx)
		if err != nil {
			return err
		}
		for _, o := range objects {
			if err := o.Delete(ctx); err != nil && !apperrors.Is(err, apperrors.CodeResourceNotFound) {
				return err
			}
		}
		c.svc.logger.Debugf(ctx, "Emptied container %s (%d objects)", c.rec.Name, len(objects))
	}
	if err := c.svc.driver.DeleteContainer(ctx, c.rec.Name); err != nil {
		return apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to delete container %s", c.rec.Name))
	}
	return nil
}

type Object struct {
	svc *Service
	rec domain.ObjectRecord
}

var _ ports.ContainerObject = (*Object)(nil)

func (o *Object) Name() string { return o.rec.Key }
func (o *Object) Size() int64  { return o.rec.Size }

func (o *Object) Download(ctx context.Context, w io.Writer) error {
	if err := o.svc.driver.GetObject(ctx, o.rec.Container, o.rec.Key, w); err != nil {
		return apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to download %s/%s", o.rec.Container, o.rec.Key))
	}
	return nil
}

func (o *Object) Upload(ctx context.Context, r io.Reader) error {
	if err := o.svc.driver.PutObject(ctx, o.rec.Container, o.rec.Key, r); err != nil {
		return apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to upload %s/%s", o.rec.Container, o.rec.Key))
	}
	rec, err := o.svc.driver.HeadObject(ctx, o.rec.Container, o.rec.Key)
	if err == nil {
		o.rec = rec
	}
	return nil
}

func (o *Object) Delete(ctx context.Context) error {
	if err := o.svc.driver.DeleteObject(ctx, o.rec.Container, o.rec.Key); err != nil {
		return apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to delete %s/%s", o.rec.Container, o.rec.Key))
	}
	return nil
}

type containerCollection struct{ svc *Service }

func (c containerCollection) Get(ctx context.Context, name string) (ports.Container, error) {
	rec, err := c.svc.driver.HeadContainer(ctx, name)
	if err != nil {
		return nil, err
	}
	return &Container{svc: c.svc, rec: rec}, nil
}

func (c containerCollection) List(ctx context.Context) ([]ports.Container, error) {
	recs, err := c.svc.driver.ListContainers(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError, "failed to list containers")
	}
	out := make([]ports.Container, 0, len(recs))
	for _, rec := range recs {
		out = append(out, &Container{svc: c.svc, rec: rec})
	}
	return out, nil
}

func (c containerCollection) Create(ctx context.Context, name string) (ports.Container, error) {
	if name == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "container name is required")
	}
	rec, err := c.svc.driver.CreateContainer(ctx, name)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to create container %q", name))
	}
	return &Container{svc: c.svc, rec: rec}, nil
}
