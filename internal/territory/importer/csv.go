package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// Row is one validated building record from an electoral-roll export.
type Row struct {
	Line         int // 1-based line in the source file, header included
	StreetNumber string
	StreetName   string
	NumElectors  int
	DeskCode     string // optional per-row override
	DeskName     string // optional
}

// RowError records one malformed row. It never aborts the batch; the
// importer reports it in the summary and moves on.
type RowError struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
}

// Electoral-roll exports come with varying headers (some straight from the
// préfecture, some hand-edited). Each logical column accepts aliases.
var columnAliases = map[string][]string{
	"address":       {"address", "adresse"},
	"street_number": {"street_number", "n° rue", "no rue", "numero"},
	"street_name":   {"street_name", "nom rue", "rue"},
	"electors":      {"elector_count", "nb electeurs", "nb électeurs", "electors"},
	"desk_code":     {"desk_code", "bureau"},
	"desk_name":     {"desk_name", "nom bureau"},
}

func headerIndex(header []string) map[string]int {
	byName := map[string]int{}
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = i
	}

	col := map[string]int{}
	for logical, aliases := range columnAliases {
		for _, a := range aliases {
			if i, ok := byName[a]; ok {
				col[logical] = i
				break
			}
		}
	}
	return col
}

// splitAddress splits "10 bis Rue de la République" into number and street.
// The number is the leading run of digit-starting tokens (handles "10 bis").
func splitAddress(addr string) (number, street string) {
	fields := strings.Fields(addr)
	i := 0
	for i < len(fields) {
		f := fields[i]
		if i == 0 {
			if len(f) == 0 || !unicode.IsDigit(rune(f[0])) {
				break
			}
		} else if !isNumberSuffix(f) {
			break
		}
		i++
	}
	return strings.Join(fields[:i], " "), strings.Join(fields[i:], " ")
}

func isNumberSuffix(tok string) bool {
	switch strings.ToLower(tok) {
	case "bis", "ter", "quater":
		return true
	}
	return false
}

// ParseCSV reads one export file into typed rows. Malformed rows are
// returned as RowErrors alongside the good rows; only I/O or structural
// failures (unreadable file, no usable columns) return a non-nil error.
func ParseCSV(path string) ([]Row, []RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return nil, nil, errors.New("csv has no data rows")
	}

	header := records[0]
	// Handle BOM on first header cell
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	col := headerIndex(header)

	_, hasAddress := col["address"]
	_, hasNumber := col["street_number"]
	_, hasStreet := col["street_name"]
	if !hasAddress && !(hasNumber && hasStreet) {
		return nil, nil, fmt.Errorf("no address columns found (need %q or %q+%q)",
			"address", "street_number", "street_name")
	}
	if _, ok := col["electors"]; !ok {
		return nil, nil, errors.New("missing elector count column")
	}

	var rows []Row
	var rowErrs []RowError

	for rowIdx := 1; rowIdx < len(records); rowIdx++ {
		rec := records[rowIdx]
		line := rowIdx + 1
		get := func(logical string) string {
			i, ok := col[logical]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		var number, street string
		if hasAddress {
			number, street = splitAddress(get("address"))
		} else {
			number, street = get("street_number"), get("street_name")
		}
		if street == "" {
			rowErrs = append(rowErrs, RowError{File: path, Line: line, Reason: "empty address"})
			continue
		}

		electorsRaw := get("electors")
		electors := 0
		if electorsRaw != "" {
			v, convErr := strconv.Atoi(electorsRaw)
			if convErr != nil {
				rowErrs = append(rowErrs, RowError{File: path, Line: line,
					Reason: fmt.Sprintf("elector count %q is not an integer", electorsRaw)})
				continue
			}
			electors = v
			if electors < 0 {
				rowErrs = append(rowErrs, RowError{File: path, Line: line,
					Reason: fmt.Sprintf("elector count %d is negative", electors)})
				continue
			}
		}

		rows = append(rows, Row{
			Line:         line,
			StreetNumber: number,
			StreetName:   street,
			NumElectors:  electors,
			DeskCode:     get("desk_code"),
			DeskName:     get("desk_name"),
		})
	}

	return rows, rowErrs, nil
}
