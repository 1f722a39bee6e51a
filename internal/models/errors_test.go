package models_test

import (
	"context"
	"errors"
	"io/fs"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tabfm/tabfm/internal/models"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want models.ErrorKind
	}{
		{"not exist", fs.ErrNotExist, models.KindNotFound},
		{"permission", fs.ErrPermission, models.KindPermissionDenied},
		{"exists", fs.ErrExist, models.KindAlreadyExists},
		{"not a directory", syscall.ENOTDIR, models.KindNotADirectory},
		{"cancelled", context.Canceled, models.KindCancelled},
		{"deadline", context.DeadlineExceeded, models.KindCancelled},
		{"schema", models.ErrSchemaInvalid, models.KindSchemaInvalid},
		{"last tab", models.ErrLastTab, models.KindInvariant},
		{"stale listing", models.ErrStaleListing, models.KindInvariant},
		{"unknown", errors.New("disk on fire"), models.KindIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, models.ClassifyError(tt.err))
		})
	}
}

func TestOpErrorWrapping(t *testing.T) {
	inner := fs.ErrNotExist
	err := models.NewOpError("list", "/missing", inner)

	assert.Equal(t, models.KindNotFound, err.Kind)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "list /missing")
	assert.Contains(t, err.Error(), "not_found")
}

func TestKindOfUnwrapsChains(t *testing.T) {
	err := models.NewOpError("copy", "/src", fs.ErrPermission)
	wrapped := errors.Join(errors.New("outer"), err)

	assert.Equal(t, models.KindPermissionDenied, models.KindOf(wrapped))
	assert.True(t, models.IsKind(wrapped, models.KindPermissionDenied))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, models.IsTransient(errors.New("flaky nfs")))
	assert.False(t, models.IsTransient(models.NewOpError("list", "/x", fs.ErrNotExist)))
	assert.False(t, models.IsTransient(models.NewOpError("list", "/x", context.Canceled)))
	assert.False(t, models.IsTransient(models.ErrStaleListing))
}
