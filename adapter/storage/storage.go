// Package storage writes whole files in a way that survives a crash in the
// middle of the write.
//
// New content goes to a temporary file named after the target with a "~"
// suffix, which is synced and then renamed over the target. When a process
// dies between both steps, [Storage.EnsureDatafileIntegrity] recovers the
// temporary file on the next load.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var (
	osSpecificEnsureDir = func(o osOps, dir string, mode os.FileMode) error {
		return o.MkdirAll(dir, mode)
	}
	osSpecificSync = func(f *os.File, _ bool) error {
		return f.Sync()
	}
)

// ErrFlushToStorage is returned when a file or directory cannot be synced to
// disk.
type ErrFlushToStorage struct {
	ErrorOnFsync error
	ErrorOnClose error
}

// Error implements [error].
func (e ErrFlushToStorage) Error() string {
	if e.ErrorOnFsync != nil {
		return fmt.Sprintf("failed to flush to storage: %v", e.ErrorOnFsync)
	}
	return fmt.Sprintf("failed to close after flushing to storage: %v", e.ErrorOnClose)
}

// Unwrap returns the underlying errors.
func (e ErrFlushToStorage) Unwrap() error {
	return errors.Join(e.ErrorOnFsync, e.ErrorOnClose)
}

// Storage performs crash-safe file operations.
type Storage struct {
	os osOps
}

// NewStorage returns a Storage backed by the os package.
func NewStorage() *Storage {
	return &Storage{os: &osImpl{}}
}

// TempFilename returns the name of the temporary file used while writing
// filename.
func TempFilename(filename string) string {
	return filename + "~"
}

// Exists reports whether filename exists.
func (s *Storage) Exists(filename string) (bool, error) {
	if _, err := s.os.Stat(filename); err != nil {
		if s.os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// EnsureParentDirectoryExists creates the directory holding filename.
func (s *Storage) EnsureParentDirectoryExists(filename string, mode os.FileMode) error {
	dir, err := filepath.Abs(filepath.Dir(filename))
	if err != nil {
		return err
	}
	return osSpecificEnsureDir(s.os, dir, mode)
}

// EnsureDatafileIntegrity makes sure filename exists. If only the temporary
// file is found, the last write did not finish renaming and the temporary
// file is promoted. Otherwise an empty file is created.
func (s *Storage) EnsureDatafileIntegrity(filename string, mode os.FileMode) error {
	exists, err := s.Exists(filename)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	tempFilename := TempFilename(filename)
	tempExists, err := s.Exists(tempFilename)
	if err != nil {
		return err
	}
	if !tempExists {
		return s.os.WriteFile(filename, nil, mode)
	}
	return s.os.Rename(tempFilename, filename)
}

// CrashSafeWriteFileLines replaces the content of filename with lines, each
// followed by a line break.
func (s *Storage) CrashSafeWriteFileLines(filename string, lines [][]byte, dirMode os.FileMode, fileMode os.FileMode) error {
	tempFilename := TempFilename(filename)

	if err := s.flushToStorage(filepath.Dir(filename), true, dirMode); err != nil {
		return err
	}

	exists, err := s.Exists(filename)
	if err != nil {
		return err
	}
	if exists {
		if err := s.flushToStorage(filename, false, fileMode); err != nil {
			return err
		}
	}

	if err := s.writeFileLines(tempFilename, lines, fileMode); err != nil {
		return err
	}
	if err := s.flushToStorage(tempFilename, false, fileMode); err != nil {
		return err
	}
	if err := s.os.Rename(tempFilename, filename); err != nil {
		return err
	}
	return s.flushToStorage(filepath.Dir(filename), true, dirMode)
}

// AppendFile appends data to filename, creating it if necessary.
func (s *Storage) AppendFile(filename string, mode os.FileMode, data []byte) (int, error) {
	f, err := s.os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_APPEND, mode)
	if err != nil {
		return 0, err
	}
	n, err := f.Write(data)
	if err != nil {
		f.Close()
		return n, err
	}
	return n, f.Close()
}

// ReadFileStream opens filename for reading.
func (s *Storage) ReadFileStream(filename string, mode os.FileMode) (io.ReadCloser, error) {
	return s.os.OpenFile(filename, os.O_RDONLY, mode)
}

// Remove deletes filename.
func (s *Storage) Remove(filename string) error {
	return s.os.Remove(filename)
}

func (s *Storage) flushToStorage(filename string, isDir bool, mode os.FileMode) error {
	flags := os.O_RDWR
	if isDir {
		flags = os.O_RDONLY
	}

	f, err := s.os.OpenFile(filename, flags, mode)
	if err != nil {
		return ErrFlushToStorage{ErrorOnFsync: err}
	}
	if err := osSpecificSync(f, isDir); err != nil {
		f.Close()
		return ErrFlushToStorage{ErrorOnFsync: err}
	}
	if err := f.Close(); err != nil {
		return ErrFlushToStorage{ErrorOnClose: err}
	}
	return nil
}

func (s *Storage) writeFileLines(filename string, lines [][]byte, mode os.FileMode) error {
	f, err := s.os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := f.Write(append(line, '\n')); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}
