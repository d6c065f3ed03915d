//go:build !linux && !darwin && !freebsd

package fs

// FreeBytes is not supported on this platform.
func FreeBytes(string) (uint64, error) {
	return 0, ErrFreeBytesUnsupported
}
