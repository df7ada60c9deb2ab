package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalService writes images below a directory that the HTTP layer serves
// statically under URLPrefix.
type LocalService struct {
	root      string
	urlPrefix string
}

func NewLocalService(root, urlPrefix string) (*LocalService, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalService{
		root:      root,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
	}, nil
}

// Root is the directory images are written to.
func (s *LocalService) Root() string {
	return s.root
}

func (s *LocalService) Put(ctx context.Context, obj Object) (string, error) {
	path, err := s.resolve(obj.Key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image %s: %w", obj.Key, err)
	}
	_, err = io.Copy(f, obj.Body)
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write image %s: %w", obj.Key, err)
	}
	if closeErr != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close image %s: %w", obj.Key, closeErr)
	}

	return s.urlPrefix + "/" + filepath.ToSlash(obj.Key), nil
}

func (s *LocalService) Delete(ctx context.Context, ref string) error {
	if !strings.HasPrefix(ref, s.urlPrefix+"/") {
		return ErrForeignReference
	}
	path, err := s.resolve(strings.TrimPrefix(ref, s.urlPrefix+"/"))
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

// resolve maps a key to a path and refuses anything escaping the root.
func (s *LocalService) resolve(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("image key is required")
	}
	clean := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, clean)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("image key %q escapes upload dir", key)
	}
	return clean, nil
}

var _ Service = (*LocalService)(nil)
