package importer

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/Lyon2026/Terrain-Backend/internal/territory"
)

// Config drives one import batch.
//
// DeskCode pins every row to a pre-selected desk ("existing" mode). When it
// is empty, the desk code comes from each file's name (502.csv -> desk 502),
// the way roll exports are delivered, and CreateDesks decides whether
// unknown desks are created on the fly ("new" mode).
type Config struct {
	Files        []string
	DeskCode     string
	CreateDesks  bool
	DistrictCode string // inferred from the desk code when empty
}

type Summary struct {
	RowsProcessed int        `json:"rows_processed"`
	RowsCreated   int        `json:"rows_created"`
	RowsUpdated   int        `json:"rows_updated"`
	RowsFailed    int        `json:"rows_failed"`
	DesksCreated  int        `json:"desks_created"`
	Errors        []RowError `json:"errors,omitempty"`
}

// Store is the persistence boundary of the import engine. The gorm
// implementation lives in store.go; tests inject an in-memory fake.
type Store interface {
	// ResolveDesk finds the desk by code, creating it (and its district)
	// when create is true. Reports whether the desk was created.
	ResolveDesk(code, name, districtCode string, create bool) (*territory.VotingDesk, bool, error)
	// UpsertBuilding creates the building or, when one with the same desk
	// and normalized address exists, updates its elector count without
	// touching coordinates. Reports whether a new row was created.
	UpsertBuilding(b *territory.Building) (bool, error)
}

// Run imports every configured file. Each row's outcome is independent: a
// malformed row or missing desk lands in Summary.Errors, never aborts the
// batch. Only unreadable files are fatal, and rows committed before the
// failure stay committed.
func Run(cfg Config, store Store) (*Summary, error) {
	if len(cfg.Files) == 0 {
		return nil, fmt.Errorf("no files to import")
	}

	summary := &Summary{}
	deskCache := map[string]*territory.VotingDesk{}

	for _, path := range cfg.Files {
		fileDesk := cfg.DeskCode
		if fileDesk == "" {
			base := filepath.Base(path)
			fileDesk = strings.TrimSuffix(base, filepath.Ext(base))
		}
		log.Printf("[import] processing %s (desk %s)", path, fileDesk)

		rows, rowErrs, err := ParseCSV(path)
		if err != nil {
			return summary, fmt.Errorf("parse %s: %w", path, err)
		}
		summary.RowsProcessed += len(rows) + len(rowErrs)
		summary.RowsFailed += len(rowErrs)
		summary.Errors = append(summary.Errors, rowErrs...)

		for _, row := range rows {
			deskCode := row.DeskCode
			if deskCode == "" {
				deskCode = fileDesk
			}

			desk, ok := deskCache[deskCode]
			if !ok {
				districtCode := cfg.DistrictCode
				if districtCode == "" {
					districtCode = territory.InferDistrictCode(deskCode)
				}
				deskName := row.DeskName
				if deskName == "" {
					deskName = "Bureau " + deskCode
				}

				var created bool
				desk, created, err = store.ResolveDesk(deskCode, deskName, districtCode, cfg.CreateDesks)
				if err != nil {
					summary.RowsFailed++
					summary.Errors = append(summary.Errors, RowError{
						File: path, Line: row.Line,
						Reason: fmt.Sprintf("desk %s: %v", deskCode, err),
					})
					continue
				}
				if created {
					summary.DesksCreated++
					log.Printf("[import] created desk %s", deskCode)
				}
				deskCache[deskCode] = desk
			}

			created, err := store.UpsertBuilding(&territory.Building{
				StreetNumber:      row.StreetNumber,
				StreetName:        row.StreetName,
				NormalizedAddress: territory.NormalizeAddress(row.StreetNumber, row.StreetName),
				VotingDeskID:      desk.ID,
				NumElectors:       row.NumElectors,
				GeocodeStatus:     territory.GeocodePending,
			})
			if err != nil {
				summary.RowsFailed++
				summary.Errors = append(summary.Errors, RowError{
					File: path, Line: row.Line, Reason: err.Error(),
				})
				continue
			}
			if created {
				summary.RowsCreated++
			} else {
				summary.RowsUpdated++
			}
		}
	}

	log.Printf("[import] done: %d created, %d updated, %d failed",
		summary.RowsCreated, summary.RowsUpdated, summary.RowsFailed)
	return summary, nil
}
