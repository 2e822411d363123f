package services

import (
	"archive/zip"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jfelder/gatekeep-be/internal/models"
)

// BackupServiceProvider defines the interface for backup services.
type BackupServiceProvider interface {
	CreateBackup(name string) (models.Backup, error)
	ListBackups() ([]models.Backup, error)
	DeleteBackup(id string) error
}

// BackupService snapshots the configuration root (users.json and anything
// else living next to it) into timestamped zip archives.
type BackupService struct {
	db         *sql.DB
	events     EventServiceProvider
	configRoot string
	backupPath string
}

// NewBackupService creates a new BackupService.
func NewBackupService(db *sql.DB, events EventServiceProvider, configRoot, backupPath string) *BackupService {
	return &BackupService{
		db:         db,
		events:     events,
		configRoot: configRoot,
		backupPath: backupPath,
	}
}

// CreateBackup zips the config root into the backup directory and records
// the archive in the database.
func (s *BackupService) CreateBackup(name string) (models.Backup, error) {
	if name == "" {
		name = "Manual backup"
	}

	backup := models.Backup{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	fileName := fmt.Sprintf("config_%s.zip", backup.CreatedAt.Format("20060102150405"))
	backup.Path = filepath.Join(s.backupPath, fileName)

	if err := s.writeArchive(backup.Path); err != nil {
		os.Remove(backup.Path)
		return models.Backup{}, err
	}

	fi, err := os.Stat(backup.Path)
	if err != nil {
		return models.Backup{}, fmt.Errorf("could not stat backup archive: %w", err)
	}
	backup.Size = fi.Size()

	_, err = s.db.Exec("INSERT INTO backups (id, name, path, size, created_at) VALUES (?, ?, ?, ?, ?)",
		backup.ID, backup.Name, backup.Path, backup.Size, backup.CreatedAt)
	if err != nil {
		os.Remove(backup.Path)
		return models.Backup{}, err
	}

	if s.events != nil {
		s.events.RecordEvent(EventBackup, "info", fmt.Sprintf("Backup '%s' created", backup.Name), "")
	}
	return backup, nil
}

func (s *BackupService) writeArchive(path string) error {
	archive, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create backup archive: %w", err)
	}
	defer archive.Close()

	zipWriter := zip.NewWriter(archive)
	defer zipWriter.Close()

	err = filepath.Walk(s.configRoot, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(s.configRoot, p)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}
		if info.IsDir() {
			_, err = zipWriter.Create(relPath + "/")
			return err
		}
		writer, err := zipWriter.Create(relPath)
		if err != nil {
			return err
		}
		src, err := os.Open(p)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(writer, src)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to zip config root: %w", err)
	}
	return zipWriter.Close()
}

// ListBackups returns all recorded backups, newest first.
func (s *BackupService) ListBackups() ([]models.Backup, error) {
	rows, err := s.db.Query("SELECT id, name, path, size, created_at FROM backups ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var backups []models.Backup
	for rows.Next() {
		var b models.Backup
		if err := rows.Scan(&b.ID, &b.Name, &b.Path, &b.Size, &b.CreatedAt); err != nil {
			return nil, err
		}
		backups = append(backups, b)
	}
	return backups, rows.Err()
}

// DeleteBackup removes the archive file and its database row.
func (s *BackupService) DeleteBackup(id string) error {
	var path string
	if err := s.db.QueryRow("SELECT path FROM backups WHERE id = ?", id).Scan(&path); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("backup %s not found", id)
		}
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	_, err := s.db.Exec("DELETE FROM backups WHERE id = ?", id)
	return err
}
