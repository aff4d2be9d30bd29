package geocoding

import (
	"github.com/Lyon2026/Terrain-Backend/internal/territory"
	"gorm.io/gorm"
)

// GormStore selects and persists buildings for the batch runner.
type GormStore struct {
	DB *gorm.DB
	// MaxAttempts mirrors the policy ceiling so buildings already at the
	// ceiling are not selected again.
	MaxAttempts int
	// DeskCode / DistrictCode narrow a run to part of the territory.
	DeskCode     string
	DistrictCode string
}

func NewGormStore(db *gorm.DB, p Policy) *GormStore {
	return &GormStore{DB: db, MaxAttempts: p.MaxAttempts}
}

func (s *GormStore) ListGeocodable(limit int) ([]territory.Building, error) {
	q := s.DB.
		Where("geocode_status = ? OR (geocode_status = ? AND geocode_attempts < ?)",
			territory.GeocodePending, territory.GeocodeFailed, s.MaxAttempts).
		Order("voting_desk_id, street_name, street_number")
	if s.DeskCode != "" {
		q = q.Joins("JOIN territory.voting_desks vd ON vd.id = territory.buildings.voting_desk_id").
			Where("vd.code = ?", s.DeskCode)
	} else if s.DistrictCode != "" {
		q = q.Joins("JOIN territory.voting_desks vd ON vd.id = territory.buildings.voting_desk_id").
			Joins("JOIN territory.districts dd ON dd.id = vd.district_id").
			Where("dd.code = ?", s.DistrictCode)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var buildings []territory.Building
	if err := q.Find(&buildings).Error; err != nil {
		return nil, err
	}
	return buildings, nil
}

func (s *GormStore) SaveResult(b *territory.Building) error {
	return s.DB.Model(b).
		Select("latitude", "longitude", "geocode_status", "geocode_attempts", "geocode_errors").
		Updates(b).Error
}
