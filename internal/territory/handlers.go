package territory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Lyon2026/Terrain-Backend/internal/db"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

func DistrictListHandler(w http.ResponseWriter, r *http.Request) {
	var districts []District
	if err := db.DB.Order("code").Find(&districts).Error; err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(districts); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func DeskListHandler(w http.ResponseWriter, r *http.Request) {
	q := db.DB.Order("code")
	if district := r.URL.Query().Get("district"); district != "" {
		q = q.Joins("JOIN territory.districts d ON d.id = territory.voting_desks.district_id").
			Where("d.code = ?", district)
	}

	var desks []VotingDesk
	if err := q.Find(&desks).Error; err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(desks); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// DeskBuildingsHandler lists a desk's buildings, largest elector count first.
func DeskBuildingsHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var desk VotingDesk
	if err := db.DB.First(&desk, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Voting desk not found", http.StatusNotFound)
			return
		}
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var buildings []Building
	if err := db.DB.Where("voting_desk_id = ?", desk.ID).
		Order("num_electors DESC").Find(&buildings).Error; err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(struct {
		Desk      VotingDesk `json:"desk"`
		Buildings []Building `json:"buildings"`
	}{desk, buildings}); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func DeskDeleteHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	err := DeleteDesk(db.DB, code)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, ErrDeskNotFound):
		http.Error(w, "Voting desk not found", http.StatusNotFound)
	case errors.Is(err, ErrDeskHasBuildings):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
	}
}

// GeocodeFailuresHandler surfaces permanently failed buildings for manual
// address correction.
func GeocodeFailuresHandler(w http.ResponseWriter, r *http.Request) {
	var buildings []Building
	if err := db.DB.Where("geocode_status IN ?",
		[]GeocodeStatus{GeocodeFailed, GeocodePermanentlyFailed}).
		Order("street_name, street_number").Find(&buildings).Error; err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	type failure struct {
		Building
		Errors []string `json:"errors"`
	}
	out := make([]failure, 0, len(buildings))
	for _, b := range buildings {
		out = append(out, failure{Building: b, Errors: b.GeocodeErrors})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
