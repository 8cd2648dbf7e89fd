package db

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"path"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

// migrationLockKey serialises concurrent starters on the same database.
const migrationLockKey = 727_001

type appliedMigration struct {
	Filename  string `gorm:"primaryKey"`
	AppliedAt time.Time
}

func (appliedMigration) TableName() string { return "_migrations" }

// Migrate applies every embedded migration that has not been recorded in
// _migrations yet, in filename order, each inside its own transaction.
func Migrate(gdb *gorm.DB) error {
	return MigrateFS(gdb, migrationFiles, "migrations")
}

func MigrateFS(gdb *gorm.DB, fsys fs.FS, dir string) error {
	start := time.Now()

	files, err := readMigrationFiles(fsys, dir)
	if err != nil {
		return fmt.Errorf("db: read migration files: %w", err)
	}

	if err := gdb.Exec(`
		CREATE TABLE IF NOT EXISTS _migrations (
			filename   TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`).Error; err != nil {
		return fmt.Errorf("db: ensure _migrations table: %w", err)
	}

	applied := 0
	for _, file := range files {
		name := path.Base(file)
		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("db: read migration %s: %w", name, err)
		}

		ran := false
		err = gdb.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrationLockKey).Error; err != nil {
				return err
			}

			var count int64
			if err := tx.Model(&appliedMigration{}).Where("filename = ?", name).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return nil
			}

			if err := tx.Exec(string(content)).Error; err != nil {
				return err
			}
			ran = true
			return tx.Create(&appliedMigration{Filename: name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return fmt.Errorf("db: migration %s failed: %w", name, err)
		}
		if ran {
			log.Printf("Applied migration: %s", name)
			applied++
		}
	}

	log.Printf("Migrations done: %d applied, %d total in %v", applied, len(files), time.Since(start))
	return nil
}

func readMigrationFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		files = append(files, path.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
