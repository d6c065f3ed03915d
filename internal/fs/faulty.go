package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrInjected is the error returned by injected faults that do not set Err.
var ErrInjected = errors.New("injected fault")

// Fault defines specific failure behavior.
type Fault struct {
	FailAfterBytes int64 // Fail writes after this many bytes written to this file. -1 to disable.
	FailOnOpen     bool
	FailOnSync     bool
	FailOnClose    bool
	FailOnRemove   bool
	FailOnMkdir    bool
	Err            error
}

func (f Fault) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrInjected
}

// FaultyFS is a FileSystem wrapper that can inject errors.
type FaultyFS struct {
	FS FileSystem

	mu      sync.Mutex
	rules   map[string]Fault // name substring -> fault
	written int64
	opened  int
	removed int
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{
		FS:    fs,
		rules: make(map[string]Fault),
	}
}

// AddRule adds a fault injection rule for names containing pattern.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[pattern] = fault
}

// Written returns the total bytes written through the wrapper.
func (f *FaultyFS) Written() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written
}

// Opened returns the number of files opened successfully.
func (f *FaultyFS) Opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

// Removed returns the number of successful Remove calls.
func (f *FaultyFS) Removed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removed
}

func (f *FaultyFS) match(name string) (Fault, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fault := Fault{FailAfterBytes: -1}
	found := false
	for pattern, rule := range f.rules {
		if strings.Contains(name, pattern) {
			fault = rule
			found = true
		}
	}
	return fault, found
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	fault, _ := f.match(name)
	if fault.FailOnOpen {
		return nil, fault.err()
	}
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.opened++
	f.mu.Unlock()
	return &faultyFile{File: file, fs: f, fault: fault}, nil
}

func (f *FaultyFS) Remove(name string) error {
	if fault, ok := f.match(name); ok && fault.FailOnRemove {
		return fault.err()
	}
	if err := f.FS.Remove(name); err != nil {
		return err
	}
	f.mu.Lock()
	f.removed++
	f.mu.Unlock()
	return nil
}

func (f *FaultyFS) Stat(name string) (os.FileInfo, error) {
	return f.FS.Stat(name)
}

func (f *FaultyFS) Mkdir(path string, perm os.FileMode) error {
	if fault, ok := f.match(path); ok && fault.FailOnMkdir {
		return fault.err()
	}
	return f.FS.Mkdir(path, perm)
}

func (f *FaultyFS) ReadDir(name string) ([]os.DirEntry, error) {
	return f.FS.ReadDir(name)
}

type faultyFile struct {
	File
	fs      *FaultyFS
	fault   Fault
	written int64
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	if ff.fault.FailAfterBytes >= 0 && ff.written+int64(len(p)) > ff.fault.FailAfterBytes {
		// Partial write up to the limit, like a device running out of space.
		room := ff.fault.FailAfterBytes - ff.written
		n := 0
		if room > 0 {
			n, _ = ff.File.Write(p[:room])
			ff.account(n)
		}
		return n, ff.fault.err()
	}
	n, err := ff.File.Write(p)
	ff.account(n)
	return n, err
}

func (ff *faultyFile) account(n int) {
	if n <= 0 {
		return
	}
	ff.written += int64(n)
	ff.fs.mu.Lock()
	ff.fs.written += int64(n)
	ff.fs.mu.Unlock()
}

func (ff *faultyFile) Sync() error {
	if ff.fault.FailOnSync {
		return ff.fault.err()
	}
	return ff.File.Sync()
}

func (ff *faultyFile) Close() error {
	if ff.fault.FailOnClose {
		_ = ff.File.Close()
		return ff.fault.err()
	}
	return ff.File.Close()
}
