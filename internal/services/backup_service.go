package services

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/blog-api/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	backupPrefix     = "blog_"
	backupSuffix     = ".db"
	backupTimeLayout = "20060102T150405Z"
)

// BackupServiceProvider defines the interface for database backups.
type BackupServiceProvider interface {
	CreateBackup(ctx context.Context) (models.Backup, error)
	ListBackups() ([]models.Backup, error)
	PruneBackups(keep int) (int, error)
}

// BackupService snapshots the SQLite database into backupPath.
type BackupService struct {
	db           *sql.DB
	eventService EventServiceProvider
	backupPath   string
	now          func() time.Time
}

// NewBackupService creates a new BackupService.
func NewBackupService(db *sql.DB, eventService EventServiceProvider, backupPath string) *BackupService {
	return &BackupService{
		db:           db,
		eventService: eventService,
		backupPath:   backupPath,
		now:          time.Now,
	}
}

// CreateBackup writes a consistent copy of the live database with VACUUM INTO.
func (s *BackupService) CreateBackup(ctx context.Context) (models.Backup, error) {
	if err := os.MkdirAll(s.backupPath, 0o755); err != nil {
		return models.Backup{}, fmt.Errorf("could not create backup directory: %w", err)
	}

	createdAt := s.now().UTC()
	name := backupPrefix + createdAt.Format(backupTimeLayout) + backupSuffix
	path := filepath.Join(s.backupPath, name)

	if _, err := os.Stat(path); err == nil {
		return models.Backup{}, fmt.Errorf("backup %s already exists", name)
	} else if !os.IsNotExist(err) {
		return models.Backup{}, fmt.Errorf("could not check backup %s: %w", name, err)
	}

	// Snapshot under a private name so a failure never touches an existing backup.
	tmp := filepath.Join(s.backupPath, ".tmp-"+uuid.New().String()+backupSuffix)
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, tmp); err != nil {
		os.Remove(tmp)
		return models.Backup{}, fmt.Errorf("failed to snapshot database: %w", err)
	}

	fi, err := os.Stat(tmp)
	if err != nil {
		os.Remove(tmp)
		return models.Backup{}, fmt.Errorf("could not get backup file info: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return models.Backup{}, fmt.Errorf("could not finalize backup %s: %w", name, err)
	}

	backup := models.Backup{Name: name, Path: path, Size: fi.Size(), CreatedAt: createdAt}
	log.Info().Str("backup", name).Int64("size", backup.Size).Msg("Database backup created")
	recordEvent(ctx, s.eventService, models.EventSystemBackup, "info", fmt.Sprintf("Backup '%s' created.", name), nil)
	return backup, nil
}

// ListBackups returns the backups in backupPath, newest first.
func (s *BackupService) ListBackups() ([]models.Backup, error) {
	entries, err := os.ReadDir(s.backupPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Backup{}, nil
		}
		return nil, fmt.Errorf("could not read backup directory: %w", err)
	}

	backups := []models.Backup{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		createdAt, err := time.Parse(backupTimeLayout, strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), backupSuffix))
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("could not stat backup %s: %w", name, err)
		}
		backups = append(backups, models.Backup{
			Name:      name,
			Path:      filepath.Join(s.backupPath, name),
			Size:      info.Size(),
			CreatedAt: createdAt,
		})
	}

	sort.Slice(backups, func(i, j int) bool { return backups[i].CreatedAt.After(backups[j].CreatedAt) })
	return backups, nil
}

// PruneBackups deletes all but the newest keep backups and returns how
// many were removed.
func (s *BackupService) PruneBackups(keep int) (int, error) {
	if keep < 1 {
		return 0, fmt.Errorf("keep must be at least 1, got %d", keep)
	}
	backups, err := s.ListBackups()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, b := range backups[min(keep, len(backups)):] {
		if err := os.Remove(b.Path); err != nil {
			return removed, fmt.Errorf("could not delete backup %s: %w", b.Name, err)
		}
		removed++
	}
	return removed, nil
}
