package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

type container struct {
	rec     domain.ContainerRecord
	objects map[string]*object
}

type object struct {
	data     []byte
	modified time.Time
}

func (b *Backend) HeadContainer(_ context.Context, name string) (domain.ContainerRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.containers[name]
	if !ok {
		return domain.ContainerRecord{}, notFound(domain.KindContainer, name)
	}
	return c.rec, nil
}

func (b *Backend) ListContainers(context.Context) ([]domain.ContainerRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.ContainerRecord, 0, len(b.containers))
	for _, c := range b.containers {
		out = append(out, c.rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (b *Backend) CreateContainer(ctx context.Context, name string) (domain.ContainerRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpCreateContainer); err != nil {
		return domain.ContainerRecord{}, err
	}
	if _, ok := b.containers[name]; ok {
		return domain.ContainerRecord{}, apperrors.New(apperrors.CodeInvalidArgument,
			fmt.Sprintf("container %q already exists", name))
	}
	c := &container{
		rec:     domain.ContainerRecord{Name: name, CreatedAt: time.Now().UTC()},
		objects: make(map[string]*object),
	}
	b.containers[name] = c
	return c.rec, nil
}

func (b *Backend) DeleteContainer(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpDeleteContainer); err != nil {
		return err
	}
	c, ok := b.containers[name]
	if !ok {
		return notFound(domain.KindContainer, name)
	}
	if len(c.objects) > 0 {
		return apperrors.New(apperrors.CodeInvalidState,
			fmt.Sprintf("container %s is not empty", name))
	}
	delete(b.containers, name)
	return nil
}

func (b *Backend) HeadObject(_ context.Context, containerName, key string) (domain.ObjectRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.containers[containerName]
	if !ok {
		return domain.ObjectRecord{}, notFound(domain.KindContainer, containerName)
	}
	o, ok := c.objects[key]
	if !ok {
		return domain.ObjectRecord{}, apperrors.New(apperrors.CodeResourceNotFound,
			fmt.Sprintf("object %s/%s not found", containerName, key))
	}
	return objectView(containerName, key, o), nil
}

func (b *Backend) ListObjects(_ context.Context, containerName string) ([]domain.ObjectRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.containers[containerName]
	if !ok {
		return nil, notFound(domain.KindContainer, containerName)
	}
	out := make([]domain.ObjectRecord, 0, len(c.objects))
	for key, o := range c.objects {
		out = append(out, objectView(containerName, key, o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (b *Backend) GetObject(ctx context.Context, containerName, key string, w io.Writer) error {
	b.mu.Lock()
	if err := b.enter(ctx, OpGetObject); err != nil {
		b.mu.Unlock()
		return err
	}
	c, ok := b.containers[containerName]
	if !ok {
		b.mu.Unlock()
		return notFound(domain.KindContainer, containerName)
	}
	o, ok := c.objects[key]
	if !ok {
		b.mu.Unlock()
		return apperrors.New(apperrors.CodeResourceNotFound,
			fmt.Sprintf("object %s/%s not found", containerName, key))
	}
	data := o.data
	b.mu.Unlock()

	_, err := io.Copy(w, bytes.NewReader(data))
	return err
}

func (b *Backend) PutObject(ctx context.Context, containerName, key string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidArgument, "failed to read object body")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpPutObject); err != nil {
		return err
	}
	c, ok := b.containers[containerName]
	if !ok {
		return notFound(domain.KindContainer, containerName)
	}
	c.objects[key] = &object{data: data, modified: time.Now().UTC()}
	return nil
}

func (b *Backend) DeleteObject(_ context.Context, containerName, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.containers[containerName]
	if !ok {
		return notFound(domain.KindContainer, containerName)
	}
	if _, ok := c.objects[key]; !ok {
		return apperrors.New(apperrors.CodeResourceNotFound,
			fmt.Sprintf("object %s/%s not found", containerName, key))
	}
	delete(c.objects, key)
	return nil
}

func objectView(containerName, key string, o *object) domain.ObjectRecord {
	return domain.ObjectRecord{
		Container:    containerName,
		Key:          key,
		Size:         int64(len(o.data)),
		LastModified: o.modified,
	}
}
