// Package router wires every HTTP route to its handler.
//
// Route table:
//
//	POST   /api/import/excel        → import controllers from a spreadsheet
//	GET    /api/controllers         → list all controllers
//	POST   /api/controllers         → create a controller
//	GET    /api/controllers/{id}    → get one controller
//	PUT    /api/controllers/{id}    → update a controller
//	DELETE /api/controllers/{id}    → delete a controller
package router

import (
	"net/http"

	"github.com/aanand-mishra/controllers-api/internal/config"
	"github.com/aanand-mishra/controllers-api/internal/http/handlers/controller"
	"github.com/aanand-mishra/controllers-api/internal/http/handlers/upload"
	"github.com/aanand-mishra/controllers-api/internal/http/middleware"
	"github.com/aanand-mishra/controllers-api/internal/importer"
	"github.com/aanand-mishra/controllers-api/internal/storage"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// New builds the router. The importer writes through the same storage
// the CRUD handlers read from.
func New(cfg *config.Config, storage storage.Storage) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)

	processor := importer.New(storage)

	r.Route("/api", func(r chi.Router) {
		r.Post("/import/excel", upload.Excel(processor, cfg))

		r.Route("/controllers", func(r chi.Router) {
			r.Get("/", controller.GetList(storage))
			r.Post("/", controller.New(storage))
			r.Get("/{id}", controller.GetByID(storage))
			r.Put("/{id}", controller.Update(storage))
			r.Delete("/{id}", controller.Delete(storage))
		})
	})

	return r
}
