package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/httprelay/relaypoll/internal/config"
)

var instanceLock *flock.Flock

// AcquireLock takes the single-instance lock of the relay server.
// It reports false when another process holds it.
func AcquireLock() (bool, error) {
	dir := config.GetRuntimeDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create runtime directory: %w", err)
	}
	instanceLock = flock.New(filepath.Join(dir, "relaypoll.lock"))
	locked, err := instanceLock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to lock %s: %w", instanceLock.Path(), err)
	}
	return locked, nil
}

// ReleaseLock drops the lock taken by AcquireLock.
func ReleaseLock() error {
	if instanceLock == nil {
		return nil
	}
	return instanceLock.Unlock()
}
