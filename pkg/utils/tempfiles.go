package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// SpillFileName builds a unique backing-file name from a fresh id, a type
// tag and the current time. Spill files carry no extension.
func SpillFileName(typeTag string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%d", uuid.NewString(), typeTag, now.UnixNano())
}

// WriteFileAtomic writes data to path via a temp file in the same directory
// followed by a rename, so a crash never leaves a half-written file at path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".spill-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// FileExists checks whether a path exists and is readable via stat.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
