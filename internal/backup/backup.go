// Package backup keeps timestamped copies of the catalog database so a
// pipeline run can always be diffed against, or rolled back to, the state
// it started from.
package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const suffix = ".db"

// Service manages catalog backup creation and listing.
type Service struct {
	catalogPath string
	backupDir   string
	keep        int
	logger      *slog.Logger
}

// New creates a Service. keep bounds how many backups are retained after
// each Create; zero or negative disables pruning.
func New(catalogPath, backupDir string, keep int, logger *slog.Logger) *Service {
	return &Service{
		catalogPath: catalogPath,
		backupDir:   backupDir,
		keep:        keep,
		logger:      logger,
	}
}

// Info describes an existing backup.
type Info struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Create copies the catalog into the backup directory. A missing catalog
// is not an error; the first run has nothing to back up.
func (s *Service) Create(ctx context.Context) (*Info, error) {
	if _, err := os.Stat(s.catalogPath); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	id := "catalog-" + time.Now().Format("2006-01-02-150405")
	outputPath := filepath.Join(s.backupDir, id+suffix)

	s.logger.Info("creating catalog backup", "output", outputPath)

	size, checksum, err := copyFile(s.catalogPath, outputPath)
	if err != nil {
		return nil, err
	}

	info := &Info{
		ID:        id,
		Path:      outputPath,
		Size:      size,
		Checksum:  checksum,
		CreatedAt: time.Now(),
	}

	s.logger.Info("backup complete",
		"path", info.Path,
		"size", info.Size,
		"checksum", info.Checksum)

	if s.keep > 0 {
		if err := s.prune(ctx); err != nil {
			s.logger.Warn("backup pruning failed", "error", err)
		}
	}

	return info, nil
}

// List returns all available backups, newest first.
func (s *Service) List(ctx context.Context) ([]Info, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var backups []Info
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasPrefix(entry.Name(), "catalog-") || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		backups = append(backups, Info{
			ID:        strings.TrimSuffix(entry.Name(), suffix),
			Path:      filepath.Join(s.backupDir, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].CreatedAt.Equal(backups[j].CreatedAt) {
			return backups[i].CreatedAt.After(backups[j].CreatedAt)
		}
		return backups[i].ID > backups[j].ID
	})

	return backups, nil
}

// Latest returns the most recent backup.
func (s *Service) Latest(ctx context.Context) (*Info, error) {
	backups, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(backups) == 0 {
		return nil, ErrBackupNotFound
	}
	return &backups[0], nil
}

// Get returns a backup by ID.
func (s *Service) Get(ctx context.Context, id string) (*Info, error) {
	path := filepath.Join(s.backupDir, id+suffix)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBackupNotFound
		}
		return nil, err
	}

	return &Info{
		ID:        id,
		Path:      path,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

// Delete removes a backup.
func (s *Service) Delete(ctx context.Context, id string) error {
	path := filepath.Join(s.backupDir, id+suffix)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return ErrBackupNotFound
		}
		return err
	}

	return os.Remove(path)
}

// prune removes backups beyond the retention count, oldest first.
func (s *Service) prune(ctx context.Context) error {
	backups, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, b := range backups[min(s.keep, len(backups)):] {
		s.logger.Info("pruning old backup", "id", b.ID)
		if err := os.Remove(b.Path); err != nil {
			return err
		}
	}
	return nil
}

// copyFile copies src to dst and returns the size and hex SHA-256 of the
// bytes written.
func copyFile(src, dst string) (int64, string, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, "", err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, "", err
	}
	defer out.Close()

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(out, h), in)
	if err != nil {
		os.Remove(dst)
		return 0, "", err
	}
	if err := out.Sync(); err != nil {
		return 0, "", err
	}

	return size, hex.EncodeToString(h.Sum(nil)), nil
}
