package territory

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Get("/districts", DistrictListHandler)
	r.Get("/desks", DeskListHandler)
	r.Get("/desks/{code}/buildings", DeskBuildingsHandler)
	r.Delete("/desks/{code}", DeskDeleteHandler)
	r.Get("/geocode-failures", GeocodeFailuresHandler)

	return r
}
