// Package storage defines the Storage interface — the contract any
// database backend must satisfy to serve the controllers API.
//
// Handlers and the importer depend only on this interface, so tests can
// pass a fake and the SQLite backend can be swapped without touching them.
package storage

import (
	"errors"

	"github.com/aanand-mishra/controllers-api/internal/types"
)

var (
	// ErrNotFound is returned when a lookup by id matches no row.
	ErrNotFound = errors.New("controller not found")

	// ErrMissingFullName is returned when a write carries an empty full_name.
	// A controller without a name is never persisted.
	ErrMissingFullName = errors.New("full_name is required")
)

// Storage is the database contract.
type Storage interface {
	// CreateController inserts a new record and returns its generated id.
	CreateController(controller types.Controller) (int64, error)

	// GetControllerByID fetches one record. Returns ErrNotFound if absent.
	GetControllerByID(id int64) (types.Controller, error)

	// GetControllers returns every record in insertion order.
	// Returns an empty slice (not nil) if there are none.
	GetControllers() ([]types.Controller, error)

	// UpdateControllerByID replaces every field of an existing record with
	// those of controller. Partial updates are merged by the caller first.
	// The boolean is false when no record has that id.
	UpdateControllerByID(id int64, controller types.Controller) (bool, error)

	// DeleteControllerByID removes a record permanently.
	// The boolean is false when no record has that id.
	DeleteControllerByID(id int64) (bool, error)

	// UpsertController inserts a record or updates the one sharing its
	// natural key, returning the id of the stored row. The natural key is
	// license_number when set, otherwise full_name among unlicensed rows.
	UpsertController(controller types.Controller) (int64, error)
}
