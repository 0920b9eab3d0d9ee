package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrNotFound   = errors.New("blob not found")
	ErrInvalidKey = errors.New("invalid blob key")
)

// Store keeps binary payloads (covers, chapter text, chapter audio) under
// slash separated logical keys such as "books/1/2/audio.mp3".
type Store interface {
	Open(ctx context.Context, key string) (*Object, error)
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, r io.Reader) (*Info, error)
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Move(ctx context.Context, from, to string) error
}

type Info struct {
	Key         string
	Size        int64
	ContentType string
}

// Object is an open blob. Callers must close it.
type Object struct {
	io.ReadCloser
	Info
}

// FS is a Store rooted at a directory on the local filesystem.
type FS struct {
	root string
}

func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, errors.WithStack(err)
	}
	return &FS{root: abs}, nil
}

func (fs *FS) Root() string {
	return fs.root
}

// resolve maps a logical key onto a path inside the root. Empty segments,
// dot segments and backslashes are rejected.
func (fs *FS) resolve(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.ContainsAny(key, "\\\x00") {
		return "", errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return "", errors.Wrapf(ErrInvalidKey, "%q", key)
		}
	}

	path := filepath.Join(fs.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(fs.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	return path, nil
}

func (fs *FS) Open(ctx context.Context, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	path, err := fs.resolve(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.WithStack(err)
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &Object{
		ReadCloser: f,
		Info: Info{
			Key:         key,
			Size:        info.Size(),
			ContentType: mtype.String(),
		},
	}, nil
}

func (fs *FS) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errors.WithStack(err)
	}
	path, err := fs.resolve(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.WithStack(err)
	}
	return !info.IsDir(), nil
}

// Put writes r to key, replacing any existing blob. The payload is written to
// a temporary file first and renamed into place, so readers never see a
// partial blob.
func (fs *FS) Put(ctx context.Context, key string, r io.Reader) (*Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	path, err := fs.resolve(key)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.WithStack(err)
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	tmpPath := filepath.Join(dir, ".tmp-"+id.String())

	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	size, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return nil, errors.WithStack(err)
	}

	mtype, err := mimetype.DetectFile(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return nil, errors.WithStack(err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return nil, errors.WithStack(err)
	}

	return &Info{
		Key:         key,
		Size:        size,
		ContentType: mtype.String(),
	}, nil
}

// Delete removes a single blob. Deleting a missing blob is not an error.
func (fs *FS) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	path, err := fs.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}
	return nil
}

// DeletePrefix removes every blob stored under prefix.
func (fs *FS) DeletePrefix(ctx context.Context, prefix string) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	path, err := fs.resolve(prefix)
	if err != nil {
		return err
	}
	return errors.WithStack(os.RemoveAll(path))
}

// Move renames everything stored under from (a single blob or a prefix) to
// to, replacing whatever was stored there. Moving a missing source is a
// no-op.
func (fs *FS) Move(ctx context.Context, from, to string) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	src, err := fs.resolve(from)
	if err != nil {
		return err
	}
	dst, err := fs.resolve(to)
	if err != nil {
		return err
	}
	if src == dst {
		return nil
	}

	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.WithStack(err)
	}

	if err := os.RemoveAll(dst); err != nil {
		return errors.WithStack(err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.Rename(src, dst))
}
