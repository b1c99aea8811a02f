//go:build windows

package storage

import (
	"os"
	"path/filepath"
)

// Windows cannot open directories for syncing, and MkdirAll fails on a bare
// volume root such as "C:\".
func init() {
	osSpecificEnsureDir = func(o osOps, dir string, mode os.FileMode) error {
		if isVolumeRoot(dir) {
			return nil
		}
		return o.MkdirAll(dir, mode)
	}

	osSpecificSync = func(f *os.File, isDir bool) error {
		if isDir {
			return nil
		}
		return f.Sync()
	}
}

func isVolumeRoot(dir string) bool {
	vol := filepath.VolumeName(dir)
	return vol != "" && filepath.Clean(dir) == vol+string(os.PathSeparator)
}
