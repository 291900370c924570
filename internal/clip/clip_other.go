//go:build !darwin && !windows && !linux

package clip

// New returns a no-op backend suitable for headless builds.
func New() Backend {
	return newHeadless()
}
