// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// ONE FILE, ONE WRITER
// ────────────────────
// The whole dataset lives in the file at cfg.StoragePath. SQLite allows
// a single writer at a time; rather than retry on SQLITE_BUSY, the pool
// is capped at one connection so database/sql queues callers for us.
// Imports and CRUD requests therefore never interleave mid-statement.
//
// The blank import below registers the sqlite3 driver with database/sql.
// Its init() runs when the package loads; nothing in it is called directly.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aanand-mishra/controllers-api/internal/config"
	"github.com/aanand-mishra/controllers-api/internal/storage"
	"github.com/aanand-mishra/controllers-api/internal/types"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
//
// The pool is capped at a single connection, so every write goes through
// one connection at a time and callers never coordinate among themselves.
type SQLite struct {
	Db *sql.DB
}

// schema is idempotent and runs on every startup. There is no migration
// tooling: new columns mean a new table.
const schema = `
	CREATE TABLE IF NOT EXISTS controllers (
		id             INTEGER  PRIMARY KEY AUTOINCREMENT,
		full_name      TEXT     NOT NULL CHECK (full_name <> ''),
		birth_date     TEXT     NOT NULL DEFAULT '',
		license_number TEXT     NOT NULL DEFAULT '',
		qualification  TEXT     NOT NULL DEFAULT '',
		workplace      TEXT     NOT NULL DEFAULT '',
		created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_controllers_license_number ON controllers (license_number);
	CREATE INDEX IF NOT EXISTS idx_controllers_full_name ON controllers (full_name);
`

const selectColumns = "id, full_name, birth_date, license_number, qualification, workplace, created_at, updated_at"

// New opens the SQLite database at cfg.StoragePath, creating the parent
// directory and the controllers table if they do not already exist.
func New(cfg *config.Config) (*SQLite, error) {
	if dir := filepath.Dir(cfg.StoragePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create storage dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// Close releases the underlying connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanController(row scanner) (types.Controller, error) {
	var c types.Controller
	err := row.Scan(
		&c.ID,
		&c.FullName,
		&c.BirthDate,
		&c.LicenseNumber,
		&c.Qualification,
		&c.Workplace,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func missingName(c types.Controller) bool {
	return strings.TrimSpace(c.FullName) == ""
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateController inserts a new row and returns the generated primary key.
//
// VALUES GO IN AS PARAMETERS, NEVER AS SQL:
// ──────────────────────────────────────────
// Spreadsheet cells and request bodies reach this query unmodified. Each
// one is bound to a ? placeholder, so a name such as
//
//	Ali'); DELETE FROM controllers; --
//
// is stored as text rather than executed.
//
// A blank full_name is refused with storage.ErrMissingFullName before the
// statement is prepared; the table's CHECK constraint backs that up.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) CreateController(c types.Controller) (int64, error) {
	if missingName(c) {
		return 0, storage.ErrMissingFullName
	}

	stmt, err := s.Db.Prepare(`
		INSERT INTO controllers (full_name, birth_date, license_number, qualification, workplace)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("CreateController: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.Exec(c.FullName, c.BirthDate, c.LicenseNumber, c.Qualification, c.Workplace)
	if err != nil {
		return 0, fmt.Errorf("CreateController: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateController: last insert id: %w", err)
	}

	return lastID, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetControllerByID fetches exactly one row matched by primary key.
//
// HOW A MISSING ROW IS REPORTED:
// ──────────────────────────────
// QueryRow never fails on its own; the error surfaces from Scan. When the
// id matches nothing, Scan returns sql.ErrNoRows, which is translated to
// storage.ErrNotFound so callers never import database/sql to check it.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) GetControllerByID(id int64) (types.Controller, error) {
	stmt, err := s.Db.Prepare("SELECT " + selectColumns + " FROM controllers WHERE id = ? LIMIT 1")
	if err != nil {
		return types.Controller{}, fmt.Errorf("GetControllerByID: prepare: %w", err)
	}
	defer stmt.Close()

	c, err := scanController(stmt.QueryRow(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Controller{}, fmt.Errorf("no controller with id %d: %w", id, storage.ErrNotFound)
		}
		return types.Controller{}, fmt.Errorf("GetControllerByID: scan: %w", err)
	}

	return c, nil
}

// GetControllers returns all rows in insertion order (ascending id).
// The slice is allocated up front so an empty table yields [] in JSON.
func (s *SQLite) GetControllers() ([]types.Controller, error) {
	stmt, err := s.Db.Prepare("SELECT " + selectColumns + " FROM controllers ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("GetControllers: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.Query()
	if err != nil {
		return nil, fmt.Errorf("GetControllers: query: %w", err)
	}
	defer rows.Close()

	controllers := make([]types.Controller, 0)
	for rows.Next() {
		c, err := scanController(rows)
		if err != nil {
			return nil, fmt.Errorf("GetControllers: scan row: %w", err)
		}
		controllers = append(controllers, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetControllers: rows iteration: %w", err)
	}

	return controllers, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// UpdateControllerByID writes every field of c over the row with the given
// id and bumps updated_at. It is a full replacement: the PUT handler merges
// partial request bodies over the stored record before calling it.
//
// WHY ROWS AFFECTED MEANS "FOUND":
// ────────────────────────────────
// SQLite counts every row matched by the WHERE clause as affected, even
// when the new values equal the old ones. Zero therefore means the id is
// unknown, never "nothing changed".
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) UpdateControllerByID(id int64, c types.Controller) (bool, error) {
	if missingName(c) {
		return false, storage.ErrMissingFullName
	}

	stmt, err := s.Db.Prepare(`
		UPDATE controllers
		SET full_name = ?, birth_date = ?, license_number = ?, qualification = ?, workplace = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`)
	if err != nil {
		return false, fmt.Errorf("UpdateControllerByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.Exec(c.FullName, c.BirthDate, c.LicenseNumber, c.Qualification, c.Workplace, id)
	if err != nil {
		return false, fmt.Errorf("UpdateControllerByID: exec: %w", err)
	}

	return affected(result, "UpdateControllerByID")
}

// DeleteControllerByID removes a row by primary key. Ids are never reused:
// AUTOINCREMENT keeps handing out larger values after a delete.
func (s *SQLite) DeleteControllerByID(id int64) (bool, error) {
	stmt, err := s.Db.Prepare("DELETE FROM controllers WHERE id = ?")
	if err != nil {
		return false, fmt.Errorf("DeleteControllerByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.Exec(id)
	if err != nil {
		return false, fmt.Errorf("DeleteControllerByID: exec: %w", err)
	}

	return affected(result, "DeleteControllerByID")
}

func affected(result sql.Result, op string) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: rows affected: %w", op, err)
	}
	return n > 0, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// UpsertController inserts c, or updates the row sharing its natural key in
// place so the id survives re-imports.
//
// Natural key:
//
//	license_number, when non-empty
//	full_name among rows whose license_number is empty, otherwise
//
// The lookup and the write share one transaction. The update only fires
// when a field actually differs, so repeating an upsert leaves the row
// (including updated_at) untouched.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) UpsertController(c types.Controller) (int64, error) {
	if missingName(c) {
		return 0, storage.ErrMissingFullName
	}

	tx, err := s.Db.Begin()
	if err != nil {
		return 0, fmt.Errorf("UpsertController: begin: %w", err)
	}
	defer tx.Rollback()

	var lookup *sql.Row
	if c.LicenseNumber != "" {
		lookup = tx.QueryRow(
			"SELECT id FROM controllers WHERE license_number = ? ORDER BY id LIMIT 1",
			c.LicenseNumber,
		)
	} else {
		lookup = tx.QueryRow(
			"SELECT id FROM controllers WHERE license_number = '' AND full_name = ? ORDER BY id LIMIT 1",
			c.FullName,
		)
	}

	var id int64
	err = lookup.Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		result, err := tx.Exec(`
			INSERT INTO controllers (full_name, birth_date, license_number, qualification, workplace)
			VALUES (?, ?, ?, ?, ?)
		`, c.FullName, c.BirthDate, c.LicenseNumber, c.Qualification, c.Workplace)
		if err != nil {
			return 0, fmt.Errorf("UpsertController: insert: %w", err)
		}
		if id, err = result.LastInsertId(); err != nil {
			return 0, fmt.Errorf("UpsertController: last insert id: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("UpsertController: lookup: %w", err)
	default:
		_, err := tx.Exec(`
			UPDATE controllers
			SET full_name = ?, birth_date = ?, license_number = ?, qualification = ?, workplace = ?,
			    updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
			  AND (full_name <> ? OR birth_date <> ? OR license_number <> ? OR qualification <> ? OR workplace <> ?)
		`,
			c.FullName, c.BirthDate, c.LicenseNumber, c.Qualification, c.Workplace,
			id,
			c.FullName, c.BirthDate, c.LicenseNumber, c.Qualification, c.Workplace,
		)
		if err != nil {
			return 0, fmt.Errorf("UpsertController: update: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("UpsertController: commit: %w", err)
	}

	return id, nil
}
