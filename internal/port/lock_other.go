//go:build !unix

package port

// lockFile is a no-op where flock is unavailable. Those platforms have no
// reserved-port sysctl either, so FreePort never reaches it.
func lockFile(string) (func(), error) {
	return func() {}, nil
}
