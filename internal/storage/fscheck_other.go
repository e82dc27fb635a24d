//go:build !darwin && !linux

package storage

import "fmt"

func detectFilesystemType(path string) (string, error) {
	return "", fmt.Errorf("no filesystem detection for this platform; cannot inspect %q", path)
}
