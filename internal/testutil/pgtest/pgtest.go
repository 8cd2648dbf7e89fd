// Package pgtest hands out migrated, isolated Postgres schemas to tests.
//
// A single Postgres 16 container is started per test binary through
// testcontainers. Set TEST_DATABASE_URL to reuse an existing database instead
// (no Docker needed). Tests are skipped under -short or when neither is available.
package pgtest

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/truber-app/truber-backend/internal/db"
)

var (
	once     sync.Once
	baseDSN  string
	startErr error
)

// Open returns a *gorm.DB bound to a fresh schema with all migrations applied.
// The schema is dropped when the test finishes.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres-backed test in -short mode")
	}

	once.Do(func() { baseDSN, startErr = start() })
	if startErr != nil {
		t.Skipf("postgres unavailable: %v", startErr)
	}

	schema := "t_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	admin, err := gorm.Open(gormpg.Open(baseDSN), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("pgtest: connect admin: %v", err)
	}
	if err := admin.Exec("CREATE SCHEMA " + schema).Error; err != nil {
		t.Fatalf("pgtest: create schema: %v", err)
	}

	gdb, err := db.Connect(WithSearchPath(baseDSN, schema), db.Options{MaxOpenConns: 10, LogLevel: "silent"})
	if err != nil {
		t.Fatalf("pgtest: connect: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("pgtest: migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = admin.Exec("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Error
		if sqlDB, err := admin.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

// WithSearchPath pins every pooled connection to schema.
func WithSearchPath(dsn, schema string) string {
	if strings.Contains(dsn, "://") {
		u, err := url.Parse(dsn)
		if err == nil {
			q := u.Query()
			q.Set("search_path", schema)
			u.RawQuery = q.Encode()
			return u.String()
		}
	}
	return strings.TrimSpace(dsn) + " search_path=" + schema
}

func start() (dsn string, err error) {
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		return dsn, nil
	}

	// testcontainers may panic instead of returning when no docker host exists
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("start container: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pgC, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("truber_test"),
		postgres.WithUsername("truber"),
		postgres.WithPassword("truber"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return "", err
	}

	dsn, err = pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgC.Terminate(context.Background())
		return "", err
	}
	return dsn, nil
}
