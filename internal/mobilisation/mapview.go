package mobilisation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// MapBuilding is one plottable marker. Buildings without coordinates are
// excluded at the query level; they are surfaced through the
// geocode-failures listing instead.
type MapBuilding struct {
	ID           uint       `json:"id"`
	Address      string     `json:"address"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	NumElectors  int        `json:"num_electors"`
	DeskCode     string     `json:"voting_desk"`
	IsFinished   bool       `json:"is_finished"`
	IsHLM        bool       `json:"is_hlm"`
	VisitCount   int        `json:"visit_count"`
	DoorsKnocked int        `json:"total_knocked"`
	DoorsOpened  int        `json:"total_open"`
	LastVisitAt  *time.Time `json:"last_visit_at"`
}

// HasBeenVisited drives the marker color.
func (m MapBuilding) HasBeenVisited() bool { return m.VisitCount > 0 }

// OpenRate is the opened/knocked percentage across all visits, one decimal.
func (m MapBuilding) OpenRate() float64 {
	if m.DoorsKnocked == 0 {
		return 0
	}
	return float64(int(float64(m.DoorsOpened)/float64(m.DoorsKnocked)*1000+0.5)) / 10
}

// Bounds is a map viewport, parsed from "minLat,minLon,maxLat,maxLon".
type Bounds struct {
	MinLat, MinLon, MaxLat, MaxLon float64
}

func ParseBounds(s string) (*Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bbox wants 4 comma-separated numbers, got %q", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bbox component %q: %w", p, err)
		}
		vals[i] = v
	}
	b := &Bounds{MinLat: vals[0], MinLon: vals[1], MaxLat: vals[2], MaxLon: vals[3]}
	if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
		return nil, fmt.Errorf("bbox min exceeds max: %q", s)
	}
	return b, nil
}

const mapQuery = `
	SELECT
		b.id,
		b.street_number || ' ' || b.street_name AS address,
		b.latitude,
		b.longitude,
		b.num_electors,
		d.code                                  AS desk_code,
		b.is_finished,
		b.is_hlm,
		COUNT(v.id)                             AS visit_count,
		COALESCE(SUM(v.knocked_doors), 0)       AS doors_knocked,
		COALESCE(SUM(v.open_doors), 0)          AS doors_opened,
		MAX(v.created_at)                       AS last_visit_at
	FROM territory.buildings b
	JOIN territory.voting_desks d ON d.id = b.voting_desk_id
	LEFT JOIN mobilisation.visit_buildings vb ON vb.building_id = b.id
	LEFT JOIN mobilisation.visits v ON v.id = vb.visit_id
	WHERE b.latitude IS NOT NULL AND b.longitude IS NOT NULL%s
	GROUP BY b.id, d.code
	ORDER BY b.street_name, b.street_number
`

// LoadMapBuildings lists geocoded buildings with visit totals, scoped to a
// desk code, a viewport, or neither (whole territory).
func LoadMapBuildings(d *gorm.DB, deskCode string, bounds *Bounds) ([]MapBuilding, error) {
	filter := ""
	var args []interface{}
	if deskCode != "" {
		filter = " AND d.code = ?"
		args = append(args, deskCode)
	} else if bounds != nil {
		filter = " AND b.latitude BETWEEN ? AND ? AND b.longitude BETWEEN ? AND ?"
		args = append(args, bounds.MinLat, bounds.MaxLat, bounds.MinLon, bounds.MaxLon)
	}

	var out []MapBuilding
	if err := d.Raw(fmt.Sprintf(mapQuery, filter), args...).Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
