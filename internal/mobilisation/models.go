package mobilisation

import (
	"time"

	"github.com/Lyon2026/Terrain-Backend/internal/territory"
	"github.com/google/uuid"
)

// Visit is one door-to-door session. A session can span several buildings
// when entrances are shared, hence the many-to-many. Visits are immutable
// once recorded; the per-building history is append-only.
type Visit struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Date         time.Time `gorm:"type:date" json:"date"`
	KnockedDoors int       `json:"knocked_doors"`
	OpenDoors    int       `json:"open_doors"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`

	Buildings []territory.Building `gorm:"many2many:mobilisation.visit_buildings;" json:"-"`
}

// OpenRate is the percentage of knocked doors that opened, one decimal.
func (v Visit) OpenRate() float64 {
	if v.KnockedDoors == 0 {
		return 0
	}
	return float64(int(float64(v.OpenDoors)/float64(v.KnockedDoors)*1000+0.5)) / 10
}

type TractageType string

const (
	TractageMarche   TractageType = "marche"
	TractageMetro    TractageType = "metro"
	TractageBus      TractageType = "bus"
	TractageCommerce TractageType = "commerce"
	TractageEcole    TractageType = "ecole"
	TractageAutre    TractageType = "autre"
)

// Tractage is a leafleting spot (market, metro exit, school gate...).
type Tractage struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Label      string       `json:"label"`
	Address    string       `json:"address"`
	Latitude   *float64     `json:"latitude"`
	Longitude  *float64     `json:"longitude"`
	NbTractage int          `json:"nb_tractage"`
	Type       TractageType `gorm:"default:autre" json:"type"`

	// Nullable on purpose: deleting a desk must not delete the spot.
	VotingDeskID *uint `json:"voting_desk_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Visit) TableName() string    { return "mobilisation.visits" }
func (Tractage) TableName() string { return "mobilisation.tractages" }
