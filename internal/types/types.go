// Package types holds the shared data structures used across the
// application. Keeping them in one place prevents import cycles:
// handlers, storage, and the importer can all import types without
// depending on each other.
package types

import "time"

// Controller is a single controller personnel record.
//
// Struct tags:
//
//  1. json:"..."      — key names in API request and response bodies.
//  2. validate:"..."  — rules checked by go-playground/validator.
//     Only full_name is required; every other field is free text.
type Controller struct {
	ID            int64     `json:"id"`
	FullName      string    `json:"full_name"      validate:"required"`
	BirthDate     string    `json:"birth_date"`
	LicenseNumber string    `json:"license_number"`
	Qualification string    `json:"qualification"`
	Workplace     string    `json:"workplace"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ControllerPatch is the body of PUT /api/controllers/{id}.
//
// Every field is a pointer so "absent" (nil) can be told apart from
// "set to empty" (""). Only the fields present in the request change;
// the rest keep their stored values. This matters most for
// license_number, the key spreadsheet imports match on: dropping it by
// accident would make the next import create a duplicate.
type ControllerPatch struct {
	FullName      *string `json:"full_name"`
	BirthDate     *string `json:"birth_date"`
	LicenseNumber *string `json:"license_number"`
	Qualification *string `json:"qualification"`
	Workplace     *string `json:"workplace"`
}

// Apply returns c with every field present in p overwritten.
func (p ControllerPatch) Apply(c Controller) Controller {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.FullName, p.FullName)
	set(&c.BirthDate, p.BirthDate)
	set(&c.LicenseNumber, p.LicenseNumber)
	set(&c.Qualification, p.Qualification)
	set(&c.Workplace, p.Workplace)
	return c
}

// ImportSummary is the outcome of one spreadsheet import.
// Rows without a name are skipped and appear in neither Imported nor Failed.
type ImportSummary struct {
	Imported int
	Failed   int
	Total    int
	Errors   []string
}

// Skipped reports how many rows were left out for lacking a name.
func (s ImportSummary) Skipped() int {
	return s.Total - s.Imported - s.Failed
}

// ImportResponse is the JSON body returned by POST /api/import/excel.
type ImportResponse struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Total    int      `json:"total,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Error    string   `json:"error,omitempty"`

	// Stack lists the wrapped error chain, outermost first, so the
	// operation that failed and its root cause are both visible.
	// Omitted in production.
	Stack []string `json:"stack,omitempty"`
}
