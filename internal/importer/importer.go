// Package importer maps spreadsheet rows onto controller records and
// upserts them one at a time, collecting a summary of what happened.
//
// A failing row never aborts the batch: its error is recorded against its
// spreadsheet row number and processing moves on to the next row.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aanand-mishra/controllers-api/internal/logging"
	"github.com/aanand-mishra/controllers-api/internal/types"
)

// ErrEmptyDataset is returned when there are no rows to import at all.
var ErrEmptyDataset = errors.New("file contains no data")

// headerOffset turns a zero-based row index into the row number a user
// sees in their spreadsheet: one for 1-based counting, one for the header.
const headerOffset = 2

// Row is one spreadsheet row keyed by its column header.
type Row map[string]string

// field binds a record field to the headers it may appear under, in
// priority order (Arabic first, then English). Adding a header variant is
// a table change only.
type field struct {
	headers []string
	set     func(*types.Controller, string)
}

var fields = []field{
	{[]string{"الاسم الكامل", "full_name"}, func(c *types.Controller, v string) { c.FullName = v }},
	{[]string{"تاريخ الميلاد", "birth_date"}, func(c *types.Controller, v string) { c.BirthDate = v }},
	{[]string{"رقم الرخصة", "license_number"}, func(c *types.Controller, v string) { c.LicenseNumber = v }},
	{[]string{"الأهلية", "qualification"}, func(c *types.Controller, v string) { c.Qualification = v }},
	{[]string{"مكان العمل", "workplace"}, func(c *types.Controller, v string) { c.Workplace = v }},
}

// resolve returns the first non-empty value among headers, or "".
func (r Row) resolve(headers []string) string {
	for _, h := range headers {
		if v := strings.TrimSpace(r[h]); v != "" {
			return v
		}
	}
	return ""
}

// ToController maps a row onto a record using the header table.
func (r Row) ToController() types.Controller {
	var c types.Controller
	for _, f := range fields {
		f.set(&c, r.resolve(f.headers))
	}
	return c
}

// Upserter is the slice of the store the importer needs.
type Upserter interface {
	UpsertController(controller types.Controller) (int64, error)
}

// Processor imports rows into an Upserter. It holds no per-import state,
// so one Processor serves every request.
type Processor struct {
	store Upserter
}

// New returns a Processor writing to store.
func New(store Upserter) *Processor {
	return &Processor{store: store}
}

// tally is the fold accumulator. Each transition returns a new value.
type tally struct {
	imported int
	failed   int
	errors   []string
}

func (t tally) skip() tally { return t }

func (t tally) succeed() tally {
	t.imported++
	return t
}

func (t tally) fail(rowNumber int, err error) tally {
	t.failed++
	t.errors = append(t.errors[:len(t.errors):len(t.errors)], fmt.Sprintf("row %d: %s", rowNumber, err))
	return t
}

// ImportRows upserts every named row in order and summarises the outcome.
// It returns ErrEmptyDataset without touching the store when rows is empty.
// Log entries go through the request-scoped logger carried by ctx.
func (p *Processor) ImportRows(ctx context.Context, rows []Row) (types.ImportSummary, error) {
	if len(rows) == 0 {
		return types.ImportSummary{}, ErrEmptyDataset
	}

	log := logging.FromContext(ctx)

	var acc tally
	for i, row := range rows {
		acc = p.step(log, acc, i+headerOffset, row)
	}

	summary := types.ImportSummary{
		Imported: acc.imported,
		Failed:   acc.failed,
		Total:    len(rows),
		Errors:   acc.errors,
	}

	log.Info("import finished",
		slog.Int("total", summary.Total),
		slog.Int("imported", summary.Imported),
		slog.Int("failed", summary.Failed),
		slog.Int("skipped", summary.Skipped()),
	)

	return summary, nil
}

// step processes one row and returns the next accumulator.
func (p *Processor) step(log *slog.Logger, acc tally, rowNumber int, row Row) tally {
	controller := row.ToController()
	if controller.FullName == "" {
		log.Debug("row skipped: no name", slog.Int("row", rowNumber))
		return acc.skip()
	}

	id, err := p.store.UpsertController(controller)
	if err != nil {
		log.Warn("row failed",
			slog.Int("row", rowNumber),
			slog.String("error", err.Error()),
		)
		return acc.fail(rowNumber, err)
	}

	log.Debug("row imported", slog.Int("row", rowNumber), slog.Int64("id", id))
	return acc.succeed()
}
