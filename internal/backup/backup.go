// file: internal/backup/backup.go
// version: 2.1.0
// guid: 8f9e0a1b-2c3d-4e5f-6a7b-8c9d0e1f2a3b

package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jdfalk/book-library/internal/database"
	"github.com/jdfalk/book-library/internal/fileops"
	"github.com/jdfalk/book-library/internal/models"
)

const (
	booksEntry    = "books.json"
	manifestEntry = "manifest.json"
	filePrefix    = "bibliotheque_"
	fileSuffix    = ".tar.gz"
)

// ErrChecksumMismatch means the archived collection does not match its manifest.
var ErrChecksumMismatch = errors.New("backup checksum mismatch")

// Manifest describes the collection stored in an archive.
type Manifest struct {
	Books        int       `json:"books"`
	StorageKey   string    `json:"storage_key"`
	DatabaseType string    `json:"database_type"`
	Checksum     string    `json:"checksum"` // sha256 of books.json
	CreatedAt    time.Time `json:"created_at"`
}

// BackupInfo contains information about a backup
type BackupInfo struct {
	Filename string    `json:"filename"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Manifest *Manifest `json:"manifest,omitempty"`
}

// BackupConfig holds backup configuration
type BackupConfig struct {
	BackupDir        string
	MaxBackups       int // 0 keeps every archive
	CompressionLevel int
}

// DefaultBackupConfig returns default backup configuration
func DefaultBackupConfig() BackupConfig {
	return BackupConfig{
		BackupDir:        "backups",
		MaxBackups:       10,
		CompressionLevel: gzip.BestCompression,
	}
}

// CreateBackup archives books and a manifest into config.BackupDir, then
// prunes the oldest archives beyond MaxBackups.
func CreateBackup(books []models.Book, m Manifest, config BackupConfig) (*BackupInfo, error) {
	if err := os.MkdirAll(config.BackupDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	data, err := database.ExportBooks(books)
	if err != nil {
		return nil, err
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	m.Books = len(books)
	m.Checksum = checksum(data)
	manifest, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}

	filename := filePrefix + m.CreatedAt.Format("20060102_150405.000000000") + fileSuffix
	path := filepath.Join(config.BackupDir, filename)
	if err := writeArchive(path, config.CompressionLevel, m.CreatedAt, map[string][]byte{
		manifestEntry: manifest,
		booksEntry:    data,
	}); err != nil {
		return nil, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup file: %w", err)
	}
	log.Printf("[INFO] backup %s created with %d books", filename, m.Books)

	if err := cleanupOldBackups(config.BackupDir, config.MaxBackups); err != nil {
		log.Printf("[WARN] failed to clean up old backups: %v", err)
	}
	return &BackupInfo{Filename: filename, Path: path, Size: fi.Size(), Manifest: &m}, nil
}

func writeArchive(path string, level int, modTime time.Time, entries map[string][]byte) error {
	f, err := fileops.CreateAtomic(path, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Abort()

	gz, err := gzip.NewWriterLevel(f, level)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}
	tw := tar.NewWriter(gz)

	// manifest first so ReadManifest can stop early
	for _, name := range []string{manifestEntry, booksEntry} {
		body := entries[name]
		hdr := &tar.Header{Name: name, Mode: 0o600, Size: int64(len(body)), ModTime: modTime, Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("failed to write %s header: %w", name, err)
		}
		if _, err := tw.Write(body); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to close tar writer: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return f.Commit()
}

// readArchive returns the manifest and, when withBooks is set, the raw collection.
func readArchive(path string, withBooks bool) (*Manifest, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var m *Manifest
	var books []byte
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read tar header: %w", err)
		}
		switch hdr.Name {
		case manifestEntry:
			m = &Manifest{}
			if err := json.NewDecoder(tr).Decode(m); err != nil {
				return nil, nil, fmt.Errorf("failed to decode manifest: %w", err)
			}
			if !withBooks {
				return m, nil, nil
			}
		case booksEntry:
			if books, err = io.ReadAll(tr); err != nil {
				return nil, nil, fmt.Errorf("failed to read %s: %w", booksEntry, err)
			}
		default:
			log.Printf("[WARN] backup %s: ignoring unexpected entry %s", filepath.Base(path), hdr.Name)
		}
	}
	if m == nil {
		return nil, nil, fmt.Errorf("%s has no manifest", filepath.Base(path))
	}
	if withBooks && books == nil {
		return nil, nil, fmt.Errorf("%s has no %s", filepath.Base(path), booksEntry)
	}
	return m, books, nil
}

// ReadManifest returns the manifest of an archive without decoding the books.
func ReadManifest(path string) (*Manifest, error) {
	m, _, err := readArchive(path, false)
	return m, err
}

// LoadBackup reads an archive and returns its books. With verify set, the
// collection must match the manifest checksum.
func LoadBackup(path string, verify bool) ([]models.Book, *Manifest, error) {
	m, data, err := readArchive(path, true)
	if err != nil {
		return nil, nil, err
	}
	if verify && checksum(data) != m.Checksum {
		return nil, nil, fmt.Errorf("%w: %s", ErrChecksumMismatch, filepath.Base(path))
	}
	books, err := database.ParseBooks(data)
	if err != nil {
		return nil, nil, err
	}
	return books, m, nil
}

// ListBackups lists the archives in backupDir, newest first.
func ListBackups(backupDir string) ([]BackupInfo, error) {
	var backups []BackupInfo

	entries, err := os.ReadDir(backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return backups, nil // No backups directory yet
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(backupDir, name)
		info := BackupInfo{Filename: name, Path: path, Size: fi.Size()}
		if m, err := ReadManifest(path); err == nil {
			info.Manifest = m
		} else {
			log.Printf("[WARN] unreadable backup %s: %v", name, err)
		}
		backups = append(backups, info)
	}

	// names embed the creation time
	sort.Slice(backups, func(i, j int) bool { return backups[i].Filename > backups[j].Filename })
	return backups, nil
}

// DeleteBackup deletes a specific backup file
func DeleteBackup(backupPath string) error {
	if err := os.Remove(backupPath); err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}
	return nil
}

func checksum(data []byte) string {
	return fileops.ComputeHash(data)
}

// cleanupOldBackups removes old backups exceeding the maximum count
func cleanupOldBackups(backupDir string, maxBackups int) error {
	if maxBackups <= 0 {
		return nil
	}
	backups, err := ListBackups(backupDir)
	if err != nil {
		return err
	}
	for _, b := range backups[min(maxBackups, len(backups)):] {
		if err := os.Remove(b.Path); err != nil {
			log.Printf("[WARN] failed to delete old backup %s: %v", b.Filename, err)
			continue
		}
		log.Printf("[DEBUG] pruned backup %s", b.Filename)
	}
	return nil
}

// ScheduleBackup calls create every interval until ctx is done. Failures
// are logged and the schedule goes on.
func ScheduleBackup(ctx context.Context, interval time.Duration, create func() (*BackupInfo, error)) error {
	if interval <= 0 {
		return fmt.Errorf("backup interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := create(); err != nil {
				log.Printf("[ERROR] scheduled backup failed: %v", err)
			}
		}
	}
}
