// Package modlist reads mod id lists from CSV exports. Spreadsheet
// exports are the usual source, so a header row and ragged records
// are tolerated.
package modlist

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nexfetch/nexfetch/nexus"
)

// FromCSV reads the mod ids found in the given column (zero-based) of
// the CSV file at path. A non-numeric first row is treated as a
// header and skipped; blank cells are ignored; any other non-numeric
// cell is an error naming the offending row.
func FromCSV(path string, column int) ([]nexus.ModID, error) {
	if column < 0 {
		return nil, fmt.Errorf("column must not be negative, got %d", column)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening mod list: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing mod list: %w", err)
	}

	var ids []nexus.ModID
	seen := make(map[nexus.ModID]struct{})

	for row, record := range records {
		if column >= len(record) {
			continue
		}

		cell := strings.TrimSpace(record[column])
		if cell == "" {
			continue
		}

		n, err := strconv.Atoi(cell)
		if err != nil {
			if row == 0 {
				// Header row.
				continue
			}
			return nil, fmt.Errorf("row %d: mod id %q is not a number", row+1, cell)
		}

		id := nexus.ModID(n)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("no mod ids in column %d of %s", column, path)
	}

	return ids, nil
}
