package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/GintGld/kshana-timeline/internal/models"
	"github.com/GintGld/kshana-timeline/internal/storage"
)

const MigrationsTable = "migrations"

//go:embed migrations/*.sql
var migrations embed.FS

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.sqlite.New"

	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Stop() error {
	return s.db.Close()
}

// Migrate applies pending migrations to the database at storagePath.
// Migrations are read from migrationsPath, or from the ones built into
// the binary when it is empty. It reports whether anything was applied.
func Migrate(storagePath, migrationsPath string) (bool, error) {
	const op = "storage.sqlite.Migrate"

	dbURL := fmt.Sprintf("sqlite3://%s?x-migrations-table=%s", storagePath, MigrationsTable)

	var (
		m   *migrate.Migrate
		err error
	)
	if migrationsPath != "" {
		m, err = migrate.New("file://"+migrationsPath, dbURL)
	} else {
		src, srcErr := iofs.New(migrations, "migrations")
		if srcErr != nil {
			return false, fmt.Errorf("%s: %w", op, srcErr)
		}
		m, err = migrate.NewWithSourceInstance("iofs", src, dbURL)
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}

// SaveState stores the document of a project, replacing the previous one.
func (s *Storage) SaveState(ctx context.Context, project string, document []byte) error {
	const op = "storage.sqlite.SaveState"

	stmt, err := s.db.Prepare(`
		INSERT INTO timeline_states(project, document, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(project) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, project, document, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// State returns the stored document of a project.
func (s *Storage) State(ctx context.Context, project string) ([]byte, error) {
	const op = "storage.sqlite.State"

	stmt, err := s.db.Prepare("SELECT document FROM timeline_states WHERE project = ?")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	var document []byte
	err = stmt.QueryRowContext(ctx, project).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrStateNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return document, nil
}

// States lists stored projects, most recently saved first.
func (s *Storage) States(ctx context.Context) ([]models.StateInfo, error) {
	const op = "storage.sqlite.States"

	stmt, err := s.db.Prepare("SELECT project, updated_at, length(document) FROM timeline_states ORDER BY updated_at DESC, project")
	if err != nil {
		return []models.StateInfo{}, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return []models.StateInfo{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	states := make([]models.StateInfo, 0)
	var (
		info      models.StateInfo
		updatedMs int64
	)
	for rows.Next() {
		if err = rows.Scan(&info.Project, &updatedMs, &info.Size); err != nil {
			return states, fmt.Errorf("%s: %w", op, err)
		}
		info.UpdatedAt = time.UnixMilli(updatedMs)

		states = append(states, info)
	}

	return states, rows.Err()
}

// DeleteState removes the stored document of a project.
func (s *Storage) DeleteState(ctx context.Context, project string) error {
	const op = "storage.sqlite.DeleteState"

	stmt, err := s.db.Prepare("DELETE FROM timeline_states WHERE project = ?")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, project)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affectedRows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affectedRows == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrStateNotFound)
	}

	return nil
}
