package storage

import (
	"context"
	"errors"
	"io"
)

// ErrForeignReference is returned by Delete for references this backend did
// not produce.
var ErrForeignReference = errors.New("reference not owned by this store")

// Object is a blob to be stored under Key.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Service stores book cover images and hands back a reference clients can
// resolve (a URL or an s3:// location).
type Service interface {
	Put(ctx context.Context, obj Object) (string, error)
	Delete(ctx context.Context, ref string) error
}
