package mobilisation

import (
	"log"

	"github.com/Lyon2026/Terrain-Backend/internal/db"
)

// Init must run after territory.Init: the visit join table references
// territory.buildings.
func Init() {
	if err := db.EnsureSchema(db.DB, "mobilisation"); err != nil {
		log.Fatal("Failed to create mobilisation schema: ", err)
	}

	if err := db.DB.AutoMigrate(&Visit{}, &Tractage{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
