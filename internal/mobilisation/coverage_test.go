package mobilisation

import (
	"testing"
	"time"
)

func deskRows(deskCode string, total, visited int) []BuildingCoverage {
	rows := make([]BuildingCoverage, 0, total)
	for i := 0; i < total; i++ {
		row := BuildingCoverage{
			BuildingID:  uint(i + 1),
			DeskCode:    deskCode,
			DeskName:    "Bureau " + deskCode,
			NumElectors: 20,
			Geocoded:    true,
		}
		if i < visited {
			now := time.Now()
			row.VisitCount = 1
			row.DoorsKnocked = 10
			row.DoorsOpened = 4
			row.LastVisitAt = &now
		}
		rows = append(rows, row)
	}
	return rows
}

func TestAggregateCoverageRatio(t *testing.T) {
	// 10 buildings, 4 with at least one visit.
	stats := Aggregate(deskRows("502", 10, 4))
	if len(stats) != 1 {
		t.Fatalf("expected 1 desk, got %d", len(stats))
	}

	s := stats[0]
	if s.BuildingsTotal != 10 || s.BuildingsVisited != 4 {
		t.Errorf("counts = %d/%d, want 4/10", s.BuildingsVisited, s.BuildingsTotal)
	}
	if s.CoverageRatio != 0.4 {
		t.Errorf("coverage_ratio = %v, want 0.4", s.CoverageRatio)
	}
	if s.DoorsKnocked != 40 || s.DoorsOpened != 16 {
		t.Errorf("door sums = %d/%d, want 40 knocked, 16 opened", s.DoorsKnocked, s.DoorsOpened)
	}
	if s.ElectorsTotal != 200 {
		t.Errorf("electors_total = %d, want 200", s.ElectorsTotal)
	}
}

func TestAggregateEmptyDesk(t *testing.T) {
	// A desk with no buildings surfaces as one NULL-building row.
	stats := Aggregate([]BuildingCoverage{{BuildingID: 0, DeskCode: "701", DeskName: "Bureau 701"}})
	if len(stats) != 1 {
		t.Fatalf("empty desk must still produce a stat, got %d", len(stats))
	}
	s := stats[0]
	if s.BuildingsTotal != 0 {
		t.Errorf("buildings_total = %d, want 0", s.BuildingsTotal)
	}
	if s.CoverageRatio != 0 {
		t.Errorf("coverage_ratio = %v, want 0 (no division fault)", s.CoverageRatio)
	}
}

func TestAggregateRatioBounds(t *testing.T) {
	cases := [][]BuildingCoverage{
		deskRows("1", 5, 0),
		deskRows("2", 5, 5),
		deskRows("3", 1, 1),
		{{BuildingID: 0, DeskCode: "4"}},
	}
	for _, rows := range cases {
		for _, s := range Aggregate(rows) {
			if s.CoverageRatio < 0 || s.CoverageRatio > 1 {
				t.Errorf("desk %s: coverage_ratio %v outside [0,1]", s.DeskCode, s.CoverageRatio)
			}
		}
	}
}

func TestAggregateSortsByDeskCode(t *testing.T) {
	rows := append(deskRows("503", 2, 1), deskRows("501", 2, 0)...)
	stats := Aggregate(rows)
	if len(stats) != 2 {
		t.Fatalf("expected 2 desks, got %d", len(stats))
	}
	if stats[0].DeskCode != "501" || stats[1].DeskCode != "503" {
		t.Errorf("desks out of order: %s, %s", stats[0].DeskCode, stats[1].DeskCode)
	}
}

func TestBuildingStatuses(t *testing.T) {
	now := time.Now()
	rows := []BuildingCoverage{
		{BuildingID: 1, DeskCode: "502", Geocoded: true, VisitCount: 2, LastVisitAt: &now},
		{BuildingID: 2, DeskCode: "502", Geocoded: true},
		{BuildingID: 3, DeskCode: "502", Geocoded: false}, // pending geocode
		{BuildingID: 0, DeskCode: "701"},                  // empty desk marker row
	}

	statuses := BuildingStatuses(rows)
	if len(statuses) != 3 {
		t.Fatalf("expected 3 buildings, got %d", len(statuses))
	}

	if !statuses[0].HasBeenVisited || statuses[0].LastVisitAt == nil {
		t.Errorf("visited building misreported: %+v", statuses[0])
	}
	if statuses[1].HasBeenVisited || !statuses[1].Plottable {
		t.Errorf("unvisited geocoded building misreported: %+v", statuses[1])
	}
	// Ungeocoded is flagged separately from unvisited.
	if statuses[2].Plottable {
		t.Errorf("ungeocoded building reported plottable: %+v", statuses[2])
	}
	if statuses[2].HasBeenVisited {
		t.Errorf("ungeocoded building reported visited: %+v", statuses[2])
	}
}
