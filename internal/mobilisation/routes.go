package mobilisation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Post("/visits", RecordVisitHandler)
	r.Get("/coverage", CoverageHandler)
	r.Get("/buildings/map", MapBuildingsHandler)
	r.Get("/buildings/status", BuildingStatusHandler)
	r.Get("/buildings/search", BuildingSearchHandler)
	r.Get("/buildings/{id}/visits", BuildingVisitsHandler)
	r.Get("/tractages", TractageListHandler)
	r.Post("/tractages", TractageCreateHandler)

	return r
}
