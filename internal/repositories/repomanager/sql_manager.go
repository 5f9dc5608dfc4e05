// Package repomanager vends repository implementations bound to a
// database handle and applies the embedded schema migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/golive/internal/dbx"
	"github.com/dmitrijs2005/golive/internal/migrations"
	"github.com/dmitrijs2005/golive/internal/repositories/channels"
	"github.com/dmitrijs2005/golive/internal/repositories/comments"
	"github.com/dmitrijs2005/golive/internal/repositories/likes"
	"github.com/dmitrijs2005/golive/internal/repositories/reclamations"
	"github.com/dmitrijs2005/golive/internal/repositories/videos"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager vends the SQL repositories for one dialect.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

func NewSQLRepositoryManager(d dbx.Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{dialect: d}
}

func (m *SQLRepositoryManager) Dialect() dbx.Dialect { return m.dialect }

func (m *SQLRepositoryManager) Videos(db dbx.DBTX) videos.Repository {
	return videos.NewSQLRepository(db, m.dialect)
}

func (m *SQLRepositoryManager) Likes(db dbx.DBTX) likes.Repository {
	return likes.NewSQLRepository(db, m.dialect)
}

func (m *SQLRepositoryManager) Comments(db dbx.DBTX) comments.Repository {
	return comments.NewSQLRepository(db, m.dialect)
}

func (m *SQLRepositoryManager) Channels(db dbx.DBTX) channels.Repository {
	return channels.NewSQLRepository(db, m.dialect)
}

func (m *SQLRepositoryManager) Reclamations(db dbx.DBTX) reclamations.Repository {
	return reclamations.NewSQLRepository(db, m.dialect)
}

// migrateUp is a seam for testing migrations.Up.
var migrateUp = migrations.Up

// RunMigrations applies the embedded migrations for the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrateUp(ctx, db, m.dialect)
}

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// Open connects to the metadata store named by driver and dsn and returns
// the handle together with a manager for its dialect.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, RepositoryManager, error) {
	d, err := dbx.ParseDialect(driver)
	if err != nil {
		return nil, nil, err
	}

	if d == dbx.SQLite {
		dsn = withForeignKeys(dsn)
	}

	db, err := sqlOpen(d.DriverName(), dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", d, err)
	}
	if d == dbx.SQLite {
		// one writer at a time; concurrent writers would see SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", d, err)
	}

	return db, NewSQLRepositoryManager(d), nil
}

// withForeignKeys turns on SQLite foreign key enforcement, which is off
// per connection unless the DSN asks for it.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}
