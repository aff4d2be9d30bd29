package mobilisation

import (
	"fmt"
	"time"

	"github.com/Lyon2026/Terrain-Backend/internal/territory"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ValidationError rejects a visit at the boundary, before any write.
type ValidationError struct {
	Reason string `json:"error"`
}

func (e *ValidationError) Error() string { return e.Reason }

// VisitInput is the field-entry payload.
type VisitInput struct {
	BuildingIDs  []uint `json:"building_ids"`
	KnockedDoors int    `json:"knocked_doors"`
	OpenDoors    int    `json:"open_doors"`
	Comment      string `json:"comment"`
	Date         string `json:"date"` // YYYY-MM-DD, defaults to today
	MarkFinished bool   `json:"mark_finished"`
}

func (in VisitInput) Validate() *ValidationError {
	if len(in.BuildingIDs) == 0 {
		return &ValidationError{Reason: "at least one building is required"}
	}
	if in.KnockedDoors < 0 {
		return &ValidationError{Reason: fmt.Sprintf("knocked_doors must be >= 0 (got %d)", in.KnockedDoors)}
	}
	if in.OpenDoors < 0 {
		return &ValidationError{Reason: fmt.Sprintf("open_doors must be >= 0 (got %d)", in.OpenDoors)}
	}
	if in.OpenDoors > in.KnockedDoors {
		return &ValidationError{Reason: fmt.Sprintf(
			"open_doors (%d) cannot exceed knocked_doors (%d)", in.OpenDoors, in.KnockedDoors)}
	}
	if in.Date != "" {
		if _, err := time.Parse("2006-01-02", in.Date); err != nil {
			return &ValidationError{Reason: fmt.Sprintf("date %q is not YYYY-MM-DD", in.Date)}
		}
	}
	return nil
}

// RecordVisit validates and persists one visit against its buildings.
// Concurrent submissions for the same building are safe: the history is
// append-only and each visit is one transaction.
func RecordVisit(d *gorm.DB, in VisitInput) (*Visit, error) {
	if verr := in.Validate(); verr != nil {
		return nil, verr
	}

	// Dedupe: the UI sends one id per selected entrance, doubles happen.
	ids := make([]uint, 0, len(in.BuildingIDs))
	seen := map[uint]struct{}{}
	for _, id := range in.BuildingIDs {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	date := time.Now()
	if in.Date != "" {
		date, _ = time.Parse("2006-01-02", in.Date)
	}

	visit := &Visit{
		ID:           uuid.New(),
		Date:         date,
		KnockedDoors: in.KnockedDoors,
		OpenDoors:    in.OpenDoors,
		Comment:      in.Comment,
	}

	err := d.Transaction(func(tx *gorm.DB) error {
		var buildings []territory.Building
		if err := tx.Find(&buildings, "id IN ?", ids).Error; err != nil {
			return err
		}
		if len(buildings) != len(ids) {
			return &ValidationError{Reason: "one or more buildings do not exist"}
		}

		visit.Buildings = buildings
		if err := tx.Create(visit).Error; err != nil {
			return fmt.Errorf("create visit: %w", err)
		}

		if in.MarkFinished {
			if err := tx.Model(&territory.Building{}).
				Where("id IN ?", ids).
				Update("is_finished", true).Error; err != nil {
				return fmt.Errorf("mark buildings finished: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return visit, nil
}
