// Package dbtest opens migrated SQLite databases for repository and
// service tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/golive/internal/dbx"
	"github.com/dmitrijs2005/golive/internal/migrations"
	_ "modernc.org/sqlite"
)

// OpenSQLite returns a fresh file-backed SQLite database with the golive
// schema applied. It is closed when the test ends.
func OpenSQLite(t testing.TB) *sql.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "golive.db") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_time_format=sqlite"
	db, err := sql.Open(dbx.SQLite.DriverName(), dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := migrations.Up(context.Background(), db, dbx.SQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedVideos inserts bare video rows so likes and comments have a parent.
func SeedVideos(t testing.TB, db *sql.DB, ids ...string) {
	t.Helper()

	for _, id := range ids {
		_, err := db.Exec(
			`INSERT INTO videos (id, title, category, video_path, thumbnail_path, owner_id, created_at)
			 VALUES (?, ?, 'Gaming', ?, ?, 'u1', ?)`,
			id, "t-"+id, "u1/"+id+".mp4", "u1/"+id+".png", time.Now().UTC(),
		)
		if err != nil {
			t.Fatalf("seed video %s: %v", id, err)
		}
	}
}
