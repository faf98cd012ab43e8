//go:build !unix

package bootstrap

// diskFree is unsupported on this platform; the check is skipped.
func diskFree(dir string) (uint64, bool) {
	return 0, false
}
