package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/Lyon2026/Terrain-Backend/internal/territory/importer"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	var (
		deskCode     = flag.String("desk", "", "attach every row to this existing desk (default: desk code from each filename)")
		createDesks  = flag.Bool("create-desks", true, "create unknown desks (and districts) on the fly")
		districtCode = flag.String("district", "", "district code (default: inferred from the desk code)")
		dbURL        = flag.String("db", "", "DATABASE_URL (default: env)")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		log.Println("usage: import-buildings [flags] file.csv [file.csv...]")
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load(".env.local")
	dsn := *dbURL
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("DB connection error: %v", err)
	}

	cfg := importer.Config{
		Files:        flag.Args(),
		DeskCode:     *deskCode,
		CreateDesks:  *createDesks,
		DistrictCode: *districtCode,
	}

	summary, err := importer.Run(cfg, importer.NewGormStore(gdb))
	if summary != nil {
		out, _ := json.MarshalIndent(summary, "", "  ")
		os.Stdout.Write(append(out, '\n'))
	}
	if err != nil {
		log.Fatal(err)
	}
}
