package territory

import (
	"log"

	"github.com/Lyon2026/Terrain-Backend/internal/db"
)

func Init() {
	// Ensure the territory schema exists first
	if err := db.EnsureSchema(db.DB, "territory"); err != nil {
		log.Fatal("Failed to create territory schema: ", err)
	}

	if err := db.DB.AutoMigrate(&District{}, &VotingDesk{}, &Building{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
