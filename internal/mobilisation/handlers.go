package mobilisation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Lyon2026/Terrain-Backend/internal/db"
	"github.com/Lyon2026/Terrain-Backend/internal/territory"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func RecordVisitHandler(w http.ResponseWriter, r *http.Request) {
	var input VisitInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	visit, err := RecordVisit(db.DB, input)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(verr)
			return
		}
		http.Error(w, "Failed to record visit", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(visit)
}

// CoverageHandler serves per-desk statistics for the dashboard and the
// desk listing. ?desk=CODE narrows to one desk.
func CoverageHandler(w http.ResponseWriter, r *http.Request) {
	deskCode := r.URL.Query().Get("desk")

	rows, err := LoadCoverage(db.DB, deskCode)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	stats := Aggregate(rows)

	w.Header().Set("Content-Type", "application/json")
	if deskCode != "" {
		if len(stats) == 0 {
			http.Error(w, "Voting desk not found", http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(stats[0])
		return
	}
	json.NewEncoder(w).Encode(stats)
}

// MapBuildingsHandler feeds the map widget. Accepts ?desk=CODE or
// ?bbox=minLat,minLon,maxLat,maxLon; ungeocoded buildings never appear.
func MapBuildingsHandler(w http.ResponseWriter, r *http.Request) {
	deskCode := r.URL.Query().Get("desk")

	var bounds *Bounds
	if raw := r.URL.Query().Get("bbox"); raw != "" {
		var err error
		bounds, err = ParseBounds(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	buildings, err := LoadMapBuildings(db.DB, deskCode, bounds)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	type marker struct {
		MapBuilding
		HasBeenVisited bool    `json:"has_been_visited"`
		OpenRate       float64 `json:"open_rate"`
	}
	markers := make([]marker, 0, len(buildings))
	for _, b := range buildings {
		markers = append(markers, marker{
			MapBuilding:    b,
			HasBeenVisited: b.HasBeenVisited(),
			OpenRate:       b.OpenRate(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Buildings []marker `json:"buildings"`
	}{markers})
}

// BuildingStatusHandler exposes the per-building marker view (visited /
// not visited / not plottable) for a desk or the whole territory.
func BuildingStatusHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := LoadCoverage(db.DB, r.URL.Query().Get("desk"))
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BuildingStatuses(rows))
}

// BuildingVisitsHandler lists a building's visit history, newest first.
func BuildingVisitsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid building id", http.StatusBadRequest)
		return
	}

	var building territory.Building
	if err := db.DB.First(&building, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Building not found", http.StatusNotFound)
			return
		}
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var visits []Visit
	if err := db.DB.
		Joins("JOIN mobilisation.visit_buildings vb ON vb.visit_id = mobilisation.visits.id").
		Where("vb.building_id = ?", building.ID).
		Order("mobilisation.visits.date DESC, mobilisation.visits.created_at DESC").
		Find(&visits).Error; err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	totalKnocked, totalOpen := 0, 0
	for _, v := range visits {
		totalKnocked += v.KnockedDoors
		totalOpen += v.OpenDoors
	}
	openRate := 0.0
	if totalKnocked > 0 {
		openRate = float64(int(float64(totalOpen)/float64(totalKnocked)*1000+0.5)) / 10
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Building     territory.Building `json:"building"`
		Visits       []Visit            `json:"visits"`
		TotalKnocked int                `json:"total_knocked"`
		TotalOpen    int                `json:"total_open"`
		OpenRate     float64            `json:"open_rate"`
	}{building, visits, totalKnocked, totalOpen, openRate})
}

// BuildingSearchHandler backs the address autocomplete. Geocoded buildings
// only; an unplottable hit is useless to the map.
func BuildingSearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
		return
	}

	var buildings []territory.Building
	if err := db.DB.
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where("street_name ILIKE ? OR street_number ILIKE ?", "%"+query+"%", "%"+query+"%").
		Order("street_name, street_number").
		Limit(20).
		Find(&buildings).Error; err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(buildings)
}

func TractageListHandler(w http.ResponseWriter, r *http.Request) {
	var tractages []Tractage
	if err := db.DB.Order("nb_tractage DESC, label").Find(&tractages).Error; err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tractages)
}

func TractageCreateHandler(w http.ResponseWriter, r *http.Request) {
	var input Tractage
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.Label == "" {
		http.Error(w, "label is required", http.StatusBadRequest)
		return
	}
	if input.Type == "" {
		input.Type = TractageAutre
	}
	input.ID = uuid.New()

	if err := db.DB.Create(&input).Error; err != nil {
		http.Error(w, "Failed to create tractage", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(input)
}
