package importer

import (
	"errors"
	"fmt"

	"github.com/Lyon2026/Terrain-Backend/internal/territory"
	"gorm.io/gorm"
)

// GormStore persists imports through gorm. One batch, one store.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) ResolveDesk(code, name, districtCode string, create bool) (*territory.VotingDesk, bool, error) {
	var desk territory.VotingDesk
	err := s.DB.First(&desk, "code = ?", code).Error
	if err == nil {
		return &desk, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	if !create {
		return nil, false, territory.ErrDeskNotFound
	}

	var created bool
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var district territory.District
		if err := tx.First(&district, "code = ?", districtCode).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			district = territory.District{
				Code: districtCode,
				Name: fmt.Sprintf("Arrondissement %s", districtCode),
			}
			if err := tx.Create(&district).Error; err != nil {
				return fmt.Errorf("create district %s: %w", districtCode, err)
			}
		}

		desk = territory.VotingDesk{Code: code, Name: name, DistrictID: district.ID}
		if err := tx.Create(&desk).Error; err != nil {
			return fmt.Errorf("create desk %s: %w", code, err)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &desk, created, nil
}

func (s *GormStore) UpsertBuilding(b *territory.Building) (bool, error) {
	var existing territory.Building
	err := s.DB.First(&existing,
		"voting_desk_id = ? AND normalized_address = ?",
		b.VotingDeskID, b.NormalizedAddress).Error

	if err == nil {
		// Re-import refreshes the elector count; coordinates and geocode
		// state survive.
		return false, s.DB.Model(&existing).Update("num_electors", b.NumElectors).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return true, s.DB.Create(b).Error
}
