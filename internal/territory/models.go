package territory

import (
	"fmt"

	"github.com/lib/pq"
)

// GeocodeStatus tracks where a building sits in the geocoding pipeline.
// Transitions: pending -> {success, failed}, failed -> {success, permanently_failed}.
type GeocodeStatus string

const (
	GeocodePending           GeocodeStatus = "pending"
	GeocodeSuccess           GeocodeStatus = "success"
	GeocodeFailed            GeocodeStatus = "failed"
	GeocodePermanentlyFailed GeocodeStatus = "permanently_failed"
)

type District struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"uniqueIndex" json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`

	VotingDesks []VotingDesk `gorm:"foreignKey:DistrictID" json:"-"`
}

type VotingDesk struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Code       string `gorm:"uniqueIndex" json:"code"`
	Name       string `json:"name"`
	Location   string `json:"location"`
	DistrictID uint   `gorm:"index" json:"district_id"`

	Buildings []Building `gorm:"foreignKey:VotingDeskID" json:"-"`
}

type Building struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	StreetNumber string `json:"street_number"`
	StreetName   string `json:"street_name"`
	// Dedup key: trimmed, accent-folded, lowercased "number street".
	NormalizedAddress string `gorm:"index:uniq_desk_addr,unique" json:"-"`
	VotingDeskID      uint   `gorm:"index:uniq_desk_addr,unique" json:"voting_desk_id"`
	NumElectors       int    `json:"num_electors"`

	Latitude        *float64       `json:"latitude"`
	Longitude       *float64       `json:"longitude"`
	GeocodeStatus   GeocodeStatus  `gorm:"default:pending" json:"geocode_status"`
	GeocodeAttempts int            `json:"geocode_attempts"`
	GeocodeErrors   pq.StringArray `gorm:"type:text[]" json:"-"`

	IsFinished bool `json:"is_finished"`
	IsHLM      bool `gorm:"column:is_hlm" json:"is_hlm"`
}

func (District) TableName() string   { return "territory.districts" }
func (VotingDesk) TableName() string { return "territory.voting_desks" }
func (Building) TableName() string   { return "territory.buildings" }

// FullAddress is the display form, e.g. "10 Rue de la République".
func (b Building) FullAddress() string {
	return fmt.Sprintf("%s %s", b.StreetNumber, b.StreetName)
}

// Geocoded reports whether the building can be placed on the map.
func (b Building) Geocoded() bool {
	return b.Latitude != nil && b.Longitude != nil
}
