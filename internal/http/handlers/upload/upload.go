// Package upload serves spreadsheet imports.
//
// The uploaded workbook is written to the configured upload directory,
// parsed, handed to the importer, and removed again whatever the outcome.
package upload

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/aanand-mishra/controllers-api/internal/config"
	"github.com/aanand-mishra/controllers-api/internal/importer"
	"github.com/aanand-mishra/controllers-api/internal/logging"
	"github.com/aanand-mishra/controllers-api/internal/types"
	"github.com/aanand-mishra/controllers-api/internal/utils/response"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// FormField is the multipart field carrying the workbook.
const FormField = "file"

var (
	ErrNoFile      = errors.New("no file uploaded")
	ErrFileType    = errors.New("file must be an Excel spreadsheet (xlsx or xls)")
	ErrFileTooBig  = errors.New("file is too large")
	ErrInvalidForm = errors.New("invalid multipart form")
)

var allowedExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xls":  true,
}

// Workbooks are ZIP (OOXML) or OLE2 (legacy .xls) containers.
var allowedContainers = []string{"application/zip", "application/x-ole-storage"}

func rejected(err error, details ...string) types.ImportResponse {
	if len(details) == 0 {
		details = []string{err.Error()}
	}
	return types.ImportResponse{
		Success: false,
		Message: err.Error(),
		Errors:  details,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Excel handles POST /api/import/excel (multipart, field "file").
//
// HOW AN UPLOAD IS VETTED:
// ────────────────────────
//  1. http.MaxBytesReader caps the body at cfg.Upload.MaxFileSize.
//  2. The file name must end in .xlsx, .xlsm or .xls.
//  3. The saved file is sniffed with mimetype: it must be a ZIP (OOXML)
//     or OLE2 (legacy BIFF) container, whatever its name claims.
//
// Only then is the first sheet parsed and handed to the importer. The temp
// file is removed on every path out of the handler, success or not.
//
// Success response (200 OK), even when some or all rows failed:
//
//	{ "success": true, "message": "imported 2 records successfully",
//	  "imported": 2, "failed": 1, "total": 4, "errors": ["row 3: ..."] }
//
// Error responses:
//
//	400 Bad Request  — no file, wrong file type, too large, or no data rows
//	500 Internal     — the workbook could not be stored or read
//
// ─────────────────────────────────────────────────────────────────────────────
func Excel(processor *importer.Processor, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())
		log.Info("starting spreadsheet import")

		r.Body = http.MaxBytesReader(w, r.Body, cfg.Upload.MaxFileSize)

		file, header, err := formFile(r)
		if err != nil {
			log.Warn("import rejected", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusBadRequest, rejected(err))
			return
		}
		defer file.Close()

		log.Info("file received",
			slog.String("filename", header.Filename),
			slog.Int64("size", header.Size),
		)

		if !allowedExtensions[strings.ToLower(filepath.Ext(header.Filename))] {
			response.WriteJSON(w, http.StatusBadRequest, rejected(ErrFileType))
			return
		}

		path, err := save(cfg.Upload.Dir, header.Filename, file)
		if path != "" {
			defer remove(log, path)
		}
		if err != nil {
			fail(w, log, cfg, err)
			return
		}

		if ok, err := isSpreadsheet(path); err != nil {
			fail(w, log, cfg, err)
			return
		} else if !ok {
			response.WriteJSON(w, http.StatusBadRequest, rejected(ErrFileType))
			return
		}

		rows, err := importer.ReadFile(path)
		if err != nil {
			fail(w, log, cfg, err)
			return
		}
		log.Info("workbook parsed", slog.Int("rows", len(rows)))

		summary, err := processor.ImportRows(r.Context(), rows)
		if errors.Is(err, importer.ErrEmptyDataset) {
			response.WriteJSON(w, http.StatusBadRequest,
				rejected(err, "the file is empty or has no data rows"))
			return
		}
		if err != nil {
			fail(w, log, cfg, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, types.ImportResponse{
			Success:  true,
			Message:  fmt.Sprintf("imported %d records successfully", summary.Imported),
			Imported: summary.Imported,
			Failed:   summary.Failed,
			Total:    summary.Total,
			Errors:   summary.Errors,
		})
	}
}

// formFile extracts the uploaded file, translating form errors into the
// request-level errors reported to the client.
func formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return nil, nil, ErrFileTooBig
		case errors.Is(err, http.ErrNotMultipart):
			return nil, nil, ErrNoFile
		default:
			return nil, nil, fmt.Errorf("%w: %s", ErrInvalidForm, err)
		}
	}

	file, header, err := r.FormFile(FormField)
	if err != nil {
		return nil, nil, ErrNoFile
	}
	return file, header, nil
}

// save copies src into dir under a unique name. The returned path is set
// whenever a file was created, even if copying failed.
func save(dir, filename string, src io.Reader) (string, error) {
	path := filepath.Join(dir, uuid.NewString()+"-"+filepath.Base(filename))

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return path, fmt.Errorf("save upload: %w", err)
	}
	return path, nil
}

// isSpreadsheet sniffs the file's content rather than trusting its name.
func isSpreadsheet(path string) (bool, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return false, fmt.Errorf("detect file type: %w", err)
	}
	for m := mtype; m != nil; m = m.Parent() {
		for _, container := range allowedContainers {
			if m.Is(container) {
				return true, nil
			}
		}
	}
	return false, nil
}

// remove deletes the temporary upload. Failure is logged, never returned.
func remove(log *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Error("failed to remove uploaded file",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	log.Debug("uploaded file removed", slog.String("path", path))
}

// fail writes a 500. Outside production the response also carries the
// wrapped error chain, which names the failing step and its root cause.
func fail(w http.ResponseWriter, log *slog.Logger, cfg *config.Config, err error) {
	chain := errorChain(err)
	log.Error("error processing file",
		slog.String("error", err.Error()),
		slog.Any("chain", chain))

	resp := types.ImportResponse{
		Success: false,
		Message: "an error occurred while processing the file",
		Error:   err.Error(),
	}
	if !cfg.IsProduction() {
		resp.Stack = chain
	}
	response.WriteJSON(w, http.StatusInternalServerError, resp)
}

// errorChain lists err and everything it wraps, outermost first.
func errorChain(err error) []string {
	var chain []string
	for ; err != nil; err = errors.Unwrap(err) {
		chain = append(chain, err.Error())
	}
	return chain
}
