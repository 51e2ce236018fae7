package objectstore_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/memory"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
	"github.com/olusolaa/cloud-lifecycle/internal/log"
	"github.com/olusolaa/cloud-lifecycle/internal/resources/objectstore"
)

func TestContainer_UploadDownloadList(t *testing.T) {
	ctx := context.Background()
	svc := objectstore.NewService(memory.New(), log.NewNopLogger())

	c, err := svc.Containers().Create(ctx, "backups")
	require.NoError(t, err)

	obj := c.Object("2024/db.dump")
	require.NoError(t, obj.Upload(ctx, strings.NewReader("payload")))
	assert.Equal(t, int64(7), obj.Size())

	got, err := c.Get(ctx, "2024/db.dump")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, got.Download(ctx, &buf))
	assert.Equal(t, "payload", buf.String())

	objects, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "2024/db.dump", objects[0].Name())
}

func TestContainer_DeleteRequiresEmptyUnlessForced(t *testing.T) {
	ctx := context.Background()
	svc := objectstore.NewService(memory.New(), log.NewNopLogger())
	c, err := svc.Containers().Create(ctx, "logs")
	require.NoError(t, err)
	require.NoError(t, c.Object("a").Upload(ctx, strings.NewReader("1")))
	require.NoError(t, c.Object("b").Upload(ctx, strings.NewReader("2")))

	err = c.Delete(ctx, false)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidState))

	require.NoError(t, c.Delete(ctx, true))
	_, err = svc.Containers().Get(ctx, "logs")
	assert.True(t, apperrors.Is(err, apperrors.CodeResourceNotFound))
}

func TestContainer_MissingObject(t *testing.T) {
	ctx := context.Background()
	svc := objectstore.NewService(memory.New(), log.NewNopLogger())
	c, err := svc.Containers().Create(ctx, "empty")
	require.NoError(t, err)

	_, err = c.Get(ctx, "nope")
	assert.True(t, apperrors.Is(err, apperrors.CodeResourceNotFound))

	all, err := svc.Containers().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
