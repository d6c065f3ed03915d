package fs

import (
	"errors"
	"io"
	"os"
)

// ErrFreeBytesUnsupported is returned by FreeBytes on platforms without statfs.
var ErrFreeBytesUnsupported = errors.New("free space query not supported on this platform")

// File represents an open file.
type File interface {
	io.ReadWriteCloser
	Sync() error
	Stat() (os.FileInfo, error)
}

// FileSystem abstracts the file system operations used for spilling.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Remove(name string) error
	Stat(name string) (os.FileInfo, error)
	Mkdir(path string, perm os.FileMode) error
	ReadDir(name string) ([]os.DirEntry, error)
}

// LocalFS implements FileSystem using the local os package.
type LocalFS struct{}

func (LocalFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(name, flag, perm)
}

func (LocalFS) Remove(name string) error                   { return os.Remove(name) }
func (LocalFS) Stat(name string) (os.FileInfo, error)      { return os.Stat(name) }
func (LocalFS) Mkdir(path string, perm os.FileMode) error  { return os.Mkdir(path, perm) }
func (LocalFS) ReadDir(name string) ([]os.DirEntry, error) { return os.ReadDir(name) }

// Default is the default local file system.
var Default FileSystem = LocalFS{}
