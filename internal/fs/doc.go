// Package fs provides the filesystem seam used by spill storage.
//
// The package defines two interfaces:
//
//   - [File]: an open spill file with read/write/sync capabilities
//   - [FileSystem]: the directory and file operations the temp storage needs
//
// # Implementations
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test utility for fault injection (disk full, failing close)
//
// # Usage
//
// Production code uses fs.Default (which is [LocalFS]):
//
//	f, err := fs.Default.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
//
// Tests inject [FaultyFS] to simulate a full disk in the middle of a chunk:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".chunk", fs.Fault{FailAfterBytes: 1024})
//
// [FreeBytes] reports the space available to unprivileged users on the
// filesystem holding a path, where the platform supports it.
//
// Operations take no context.Context. Local file operations are not
// interruptible at the syscall level; remote spill targets go through
// blobstore, which is context-aware.
package fs
