package territory

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrDeskHasBuildings rejects deleting a voting desk that buildings still
// reference. The buildings must be reassigned or removed first.
var ErrDeskHasBuildings = errors.New("voting desk still has buildings attached")

// ErrDeskNotFound is returned when a desk code resolves to nothing.
var ErrDeskNotFound = errors.New("voting desk not found")

// DeleteDesk removes a voting desk by code, refusing while any building
// references it.
func DeleteDesk(d *gorm.DB, code string) error {
	return d.Transaction(func(tx *gorm.DB) error {
		var desk VotingDesk
		if err := tx.First(&desk, "code = ?", code).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDeskNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&Building{}).Where("voting_desk_id = ?", desk.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("count buildings for desk %s: %w", code, err)
		}
		if count > 0 {
			return fmt.Errorf("%w: desk %s has %d buildings", ErrDeskHasBuildings, code, count)
		}

		return tx.Delete(&desk).Error
	})
}

// InferDistrictCode derives a district code from a desk code when the
// operator did not pass one: 502 -> 5, 1201 -> 12.
func InferDistrictCode(deskCode string) string {
	if deskCode == "" {
		return ""
	}
	if len(deskCode) <= 3 {
		return deskCode[:1]
	}
	return deskCode[:2]
}
