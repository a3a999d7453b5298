// file: internal/fileops/safe_write.go
// version: 2.0.0
// guid: 8f7e6d5c-4b3a-2918-7f6e-5d4c3b2a1908

package fileops

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// WriteConfig configures WriteFile.
type WriteConfig struct {
	// VerifyChecksums re-reads the temporary file before it replaces the target
	VerifyChecksums bool
	// KeepPrevious copies an existing target to <path>.bak first
	KeepPrevious bool
}

// DefaultConfig returns the default safe write configuration
func DefaultConfig() WriteConfig {
	return WriteConfig{
		VerifyChecksums: true,
		KeepPrevious:    false,
	}
}

// AtomicFile is a temporary file that replaces its target on Commit.
// Readers of the target never see a partial write.
type AtomicFile struct {
	f      *os.File
	target string
	perm   os.FileMode
	done   bool
}

// CreateAtomic opens a temporary file next to path. Missing parent
// directories are created.
func CreateAtomic(path string, perm os.FileMode) (*AtomicFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	return &AtomicFile{f: f, target: path, perm: perm}, nil
}

func (a *AtomicFile) Write(p []byte) (int, error) {
	return a.f.Write(p)
}

// Name returns the temporary path.
func (a *AtomicFile) Name() string {
	return a.f.Name()
}

// Commit syncs the temporary file and renames it over the target.
func (a *AtomicFile) Commit() error {
	if a.done {
		return fmt.Errorf("%s already committed or aborted", a.target)
	}
	a.done = true
	tmp := a.f.Name()

	if err := a.f.Sync(); err != nil {
		_ = a.f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := a.f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, a.perm); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, a.target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", a.target, err)
	}
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit, so it can
// be deferred.
func (a *AtomicFile) Abort() {
	if a.done {
		return
	}
	a.done = true
	_ = a.f.Close()
	_ = os.Remove(a.f.Name())
}

// WriteFile replaces path with data without ever leaving a partial file.
func WriteFile(path string, data []byte, perm os.FileMode, config WriteConfig) error {
	af, err := CreateAtomic(path, perm)
	if err != nil {
		return err
	}
	defer af.Abort()

	if _, err := af.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if config.VerifyChecksums {
		if err := af.f.Sync(); err != nil {
			return err
		}
		ok, err := VerifyFileIntegrity(af.Name(), ComputeHash(data))
		if err != nil {
			return fmt.Errorf("failed to verify %s: %w", path, err)
		}
		if !ok {
			return fmt.Errorf("checksum mismatch writing %s", path)
		}
	}

	if config.KeepPrevious {
		if _, err := os.Stat(path); err == nil {
			if err := copyFile(path, path+".bak"); err != nil {
				return fmt.Errorf("failed to keep previous %s: %w", path, err)
			}
			log.Printf("[DEBUG] kept previous %s", path+".bak")
		}
	}

	return af.Commit()
}

// copyFile copies a file from src to dst, keeping its permissions.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	// Sync to ensure data is written to disk
	if err := destFile.Sync(); err != nil {
		return err
	}

	sourceInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, sourceInfo.Mode())
}
