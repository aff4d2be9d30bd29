package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/Lyon2026/Terrain-Backend/internal/geocoding"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	var (
		policyPath = flag.String("policy", "", "path to a geocoding policy YAML (default: built-in policy)")
		deskCode   = flag.String("desk", "", "only geocode buildings in this voting desk")
		district   = flag.String("district", "", "only geocode buildings in this district")
		limit      = flag.Int("limit", 0, "max buildings this run (0 = policy default)")
		dbURL      = flag.String("db", "", "DATABASE_URL (default: env)")
	)
	flag.Parse()

	_ = godotenv.Load(".env.local")
	dsn := *dbURL
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	policy, err := geocoding.LoadPolicy(*policyPath)
	if err != nil {
		log.Fatal(err)
	}
	if *limit > 0 {
		policy.BatchLimit = *limit
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("DB connection error: %v", err)
	}

	store := geocoding.NewGormStore(gdb, policy)
	store.DeskCode = *deskCode
	store.DistrictCode = *district

	runner := geocoding.NewRunner(store, geocoding.NewClient(policy), policy)

	// Ctrl-C finishes the current building, then stops; progress so far
	// is already committed.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary, err := runner.Run(ctx)
	if summary != nil {
		out, _ := json.MarshalIndent(summary, "", "  ")
		os.Stdout.Write(append(out, '\n'))
	}
	if err != nil {
		log.Fatal(err)
	}
}
