package mobilisation

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
)

// BuildingCoverage is one source row for the aggregator: a building with
// its visit totals. Rows with BuildingID 0 stand for a desk without any
// buildings, so empty desks still show up with a zero ratio.
type BuildingCoverage struct {
	BuildingID   uint       `json:"building_id"`
	DeskCode     string     `json:"desk_code"`
	DeskName     string     `json:"desk_name"`
	NumElectors  int        `json:"num_electors"`
	Geocoded     bool       `json:"geocoded"`
	VisitCount   int        `json:"visit_count"`
	DoorsKnocked int        `json:"doors_knocked"`
	DoorsOpened  int        `json:"doors_opened"`
	LastVisitAt  *time.Time `json:"last_visit_at"`
}

// CoverageStat is the derived per-desk view. Never persisted; recomputed
// from the visit ledger on every read so it cannot go stale.
type CoverageStat struct {
	DeskCode         string  `json:"desk_code"`
	DeskName         string  `json:"desk_name"`
	BuildingsTotal   int     `json:"buildings_total"`
	BuildingsVisited int     `json:"buildings_visited"`
	DoorsKnocked     int     `json:"doors_knocked"`
	DoorsOpened      int     `json:"doors_opened"`
	ElectorsTotal    int     `json:"electors_total"`
	CoverageRatio    float64 `json:"coverage_ratio"`
}

// BuildingStatus is the per-building view for map marker coloring. A
// building without coordinates is not plottable, which is a different
// thing from not yet visited.
type BuildingStatus struct {
	BuildingID     uint       `json:"building_id"`
	HasBeenVisited bool       `json:"has_been_visited"`
	LastVisitAt    *time.Time `json:"last_visit_at"`
	Plottable      bool       `json:"plottable"`
}

// coverageQuery starts from the desks so a desk with zero buildings still
// yields a row (NULL building id).
const coverageQuery = `
	SELECT
		COALESCE(b.id, 0)                                    AS building_id,
		d.code                                               AS desk_code,
		d.name                                               AS desk_name,
		COALESCE(b.num_electors, 0)                          AS num_electors,
		(b.latitude IS NOT NULL AND b.longitude IS NOT NULL) AS geocoded,
		COUNT(v.id)                                          AS visit_count,
		COALESCE(SUM(v.knocked_doors), 0)                    AS doors_knocked,
		COALESCE(SUM(v.open_doors), 0)                       AS doors_opened,
		MAX(v.created_at)                                    AS last_visit_at
	FROM territory.voting_desks d
	LEFT JOIN territory.buildings b ON b.voting_desk_id = d.id
	LEFT JOIN mobilisation.visit_buildings vb ON vb.building_id = b.id
	LEFT JOIN mobilisation.visits v ON v.id = vb.visit_id
	%s
	GROUP BY b.id, d.code, d.name, b.num_electors, b.latitude, b.longitude
	ORDER BY d.code, b.street_name, b.street_number
`

// LoadCoverage fetches the aggregator's source rows, optionally scoped to
// one desk. Read-only; tolerates visits being appended concurrently.
func LoadCoverage(d *gorm.DB, deskCode string) ([]BuildingCoverage, error) {
	where := ""
	var args []interface{}
	if deskCode != "" {
		where = "WHERE d.code = ?"
		args = append(args, deskCode)
	}

	var rows []BuildingCoverage
	if err := d.Raw(fmt.Sprintf(coverageQuery, where), args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Aggregate folds source rows into per-desk statistics. Pure function, no
// storage access; coverage_ratio is buildings_visited / buildings_total
// and 0 for an empty desk.
func Aggregate(rows []BuildingCoverage) []CoverageStat {
	byDesk := map[string]*CoverageStat{}

	for _, row := range rows {
		stat, ok := byDesk[row.DeskCode]
		if !ok {
			stat = &CoverageStat{DeskCode: row.DeskCode, DeskName: row.DeskName}
			byDesk[row.DeskCode] = stat
		}
		if row.BuildingID == 0 {
			continue // desk without buildings
		}
		stat.BuildingsTotal++
		stat.ElectorsTotal += row.NumElectors
		stat.DoorsKnocked += row.DoorsKnocked
		stat.DoorsOpened += row.DoorsOpened
		if row.VisitCount > 0 {
			stat.BuildingsVisited++
		}
	}

	stats := make([]CoverageStat, 0, len(byDesk))
	for _, stat := range byDesk {
		if stat.BuildingsTotal > 0 {
			stat.CoverageRatio = float64(stat.BuildingsVisited) / float64(stat.BuildingsTotal)
		}
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].DeskCode < stats[j].DeskCode })
	return stats
}

// BuildingStatuses derives the map-marker view from the same source rows.
func BuildingStatuses(rows []BuildingCoverage) []BuildingStatus {
	out := make([]BuildingStatus, 0, len(rows))
	for _, row := range rows {
		if row.BuildingID == 0 {
			continue
		}
		out = append(out, BuildingStatus{
			BuildingID:     row.BuildingID,
			HasBeenVisited: row.VisitCount > 0,
			LastVisitAt:    row.LastVisitAt,
			Plottable:      row.Geocoded,
		})
	}
	return out
}
