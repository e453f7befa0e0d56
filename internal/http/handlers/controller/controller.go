// Package controller contains the HTTP handlers for the Controller resource.
//
// Each exported function is a factory: it receives the storage dependency
// once at route registration and returns the handler that serves every
// request, closing over that storage.
//
//	r.Post("/api/controllers", controller.New(storage))
package controller

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aanand-mishra/controllers-api/internal/logging"
	"github.com/aanand-mishra/controllers-api/internal/storage"
	"github.com/aanand-mishra/controllers-api/internal/types"
	"github.com/aanand-mishra/controllers-api/internal/utils/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = response.Validator()

var errNotFound = errors.New("controller not found")

// parseID reads the {id} path segment as an int64.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, errors.New("invalid id: must be an integer")
	}
	return id, nil
}

// decodeBody reads the JSON request body into v, writing a 400 response
// and returning false when it cannot.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body is empty")))
		return false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}
	return true
}

// validControllerOrReject runs the struct validator over c, writing a 400
// response and returning false when a rule fails.
func validControllerOrReject(w http.ResponseWriter, c types.Controller) bool {
	err := validate.Struct(c)
	if err == nil {
		return true
	}

	var validateErrs validator.ValidationErrors
	if errors.As(err, &validateErrs) {
		response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(validateErrs))
	} else {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
	}
	return false
}

// writeStoreError maps store errors onto status codes.
func writeStoreError(w http.ResponseWriter, log *slog.Logger, msg string, err error) {
	switch {
	case errors.Is(err, storage.ErrMissingFullName):
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
	case errors.Is(err, storage.ErrNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errNotFound))
	default:
		log.Error(msg, slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/controllers
//
// Request body (JSON):
//
//	{ "full_name": "Ali Hassan", "license_number": "L-1", "workplace": "Baghdad" }
//
// Success response (201 Created): the stored record, including its id.
//
// Error responses:
//
//	400 Bad Request  — empty body, malformed JSON, or missing full_name
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())
		log.Info("creating a controller")

		var c types.Controller
		if !decodeBody(w, r, &c) || !validControllerOrReject(w, c) {
			return
		}

		lastID, err := storage.CreateController(c)
		if err != nil {
			writeStoreError(w, log, "error creating controller", err)
			return
		}

		created, err := storage.GetControllerByID(lastID)
		if err != nil {
			writeStoreError(w, log, "error reading created controller", err)
			return
		}

		log.Info("controller created", slog.Int64("id", lastID))
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// GetList handles GET /api/controllers and returns every record as a JSON
// array in insertion order. An empty table gives [] rather than null, so
// clients can always range over the result.
func GetList(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())
		log.Info("getting all controllers")

		controllers, err := storage.GetControllers()
		if err != nil {
			writeStoreError(w, log, "error getting controllers", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, controllers)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /api/controllers/{id}
//
// {id} is read with chi.URLParam and must parse as an integer.
//
// Success response (200 OK):
//
//	{ "id": 1, "full_name": "Ali Hassan", "birth_date": "1990-01-02",
//	  "license_number": "L-1", "qualification": "ATC", "workplace": "Baghdad",
//	  "created_at": "...", "updated_at": "..." }
//
// Error responses:
//
//	400 Bad Request  — id is not an integer
//	404 Not Found    — no controller with that id
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())

		id, err := parseID(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		log.Info("getting a controller", slog.Int64("id", id))

		c, err := storage.GetControllerByID(id)
		if err != nil {
			writeStoreError(w, log, "error getting controller", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, c)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/controllers/{id}
// Applies a partial update to an existing record; it never creates one.
//
// Only the keys present in the body change. Absent keys keep their stored
// values and a key sent as "" clears that field:
//
//	{ "workplace": "Basra" }            → moves the controller, keeps the rest
//	{ "license_number": "" }            → clears the license
//	{ "full_name": "" }                 → 400, a record always has a name
//
// The stored record is read first and the body merged over it, so the
// write that follows is always of a complete record.
//
// Success response (200 OK): the stored record after the update.
//
// Error responses:
//
//	400 Bad Request  — invalid id, empty or malformed body, or a merged
//	                   record without a full_name
//	404 Not Found    — no controller with that id
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())

		id, err := parseID(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		log.Info("updating a controller", slog.Int64("id", id))

		var patch types.ControllerPatch
		if !decodeBody(w, r, &patch) {
			return
		}

		existing, err := storage.GetControllerByID(id)
		if err != nil {
			writeStoreError(w, log, "error reading controller", err)
			return
		}

		merged := patch.Apply(existing)
		if !validControllerOrReject(w, merged) {
			return
		}

		found, err := storage.UpdateControllerByID(id, merged)
		if err != nil {
			writeStoreError(w, log, "error updating controller", err)
			return
		}
		// Deleted between the read and the write.
		if !found {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errNotFound))
			return
		}

		updated, err := storage.GetControllerByID(id)
		if err != nil {
			writeStoreError(w, log, "error reading updated controller", err)
			return
		}

		log.Info("controller updated", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// Delete handles DELETE /api/controllers/{id}.
//
// Success response (200 OK):
//
//	{ "message": "controller deleted" }
//
// An unknown id is a 404 and leaves the table untouched.
func Delete(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())

		id, err := parseID(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		log.Info("deleting a controller", slog.Int64("id", id))

		found, err := storage.DeleteControllerByID(id)
		if err != nil {
			writeStoreError(w, log, "error deleting controller", err)
			return
		}
		if !found {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errNotFound))
			return
		}

		log.Info("controller deleted", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, response.Message{Message: "controller deleted"})
	}
}
