// mark-hlm flags buildings as social housing (HLM) from a reference CSV,
// typically extracted from the public RPLS dataset. Matching is done on the
// normalized address, so accents and casing in the source file don't matter.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Lyon2026/Terrain-Backend/internal/territory"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

var (
	csvPath = flag.String("csv", "", "HLM address CSV: street_number,street_name (required)")
	dsn     = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	dryRun  = flag.Bool("dry-run", false, "Parse + match only; no DB writes")
	reset   = flag.Bool("reset", false, "Clear every is_hlm flag before marking")
)

type hlmEntry struct {
	Number string
	Street string
	Key    string // normalized dedup key, matches buildings.normalized_address
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *csvPath == "" {
		fatalf("--csv is required")
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	entries, err := loadCSV(*csvPath)
	if err != nil {
		fatalf("CSV error: %v", err)
	}
	fmt.Printf("Loaded %d HLM addresses from %s\n", len(entries), *csvPath)

	if *dryRun {
		for i, e := range entries {
			if i == 10 {
				fmt.Printf("  ... and %d more\n", len(entries)-10)
				break
			}
			fmt.Printf("  would match: %s %s (key %q)\n", e.Number, e.Street, e.Key)
		}
		fmt.Println("Dry run complete. No changes made.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		fatalf("begin tx: %v", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op if already committed
	}()

	if *reset {
		res, err := tx.ExecContext(ctx, `UPDATE territory.buildings SET is_hlm = FALSE WHERE is_hlm`)
		if err != nil {
			fatalf("reset flags: %v", err)
		}
		n, _ := res.RowsAffected()
		fmt.Printf("Reset %d existing flags\n", n)
	}

	matched, missed := 0, 0
	for _, e := range entries {
		res, err := tx.ExecContext(ctx,
			`UPDATE territory.buildings SET is_hlm = TRUE WHERE normalized_address = $1`,
			e.Key)
		if err != nil {
			fatalf("mark %q: %v", e.Key, err)
		}
		n, _ := res.RowsAffected()
		if n > 0 {
			matched++
		} else {
			missed++
		}
	}

	if err := tx.Commit(); err != nil {
		fatalf("commit: %v", err)
	}

	fmt.Printf("Done: %d addresses matched, %d not found in the building catalog\n", matched, missed)
}

// loadCSV accepts comma or semicolon delimited files with a
// street_number,street_name header (aliases accepted, accents ignored).
func loadCSV(path string) ([]hlmEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	first, err := br.Peek(512)
	if err != nil && err != io.EOF {
		return nil, err
	}

	r := csv.NewReader(br)
	if strings.Count(string(first), ";") > strings.Count(string(first), ",") {
		r.Comma = ';'
	}
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no data rows in %s", path)
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	numIdx, streetIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "street_number", "numero", "n° rue", "no rue":
			numIdx = i
		case "street_name", "rue", "nom rue", "adresse":
			streetIdx = i
		}
	}
	if streetIdx == -1 {
		return nil, fmt.Errorf("no street column found in header %v", header)
	}

	var entries []hlmEntry
	for _, rec := range records[1:] {
		get := func(i int) string {
			if i < 0 || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		number, street := get(numIdx), get(streetIdx)
		if street == "" {
			continue
		}
		entries = append(entries, hlmEntry{
			Number: number,
			Street: street,
			Key:    territory.NormalizeAddress(number, street),
		})
	}
	return entries, nil
}

func fatalf(format string, args ...interface{}) {
	log.Printf(format, args...)
	os.Exit(1)
}
