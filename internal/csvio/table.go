// Package csvio reads and writes registry tables as CSV.
//
// Reading is forgiving about the artifacts spreadsheet tools leave behind
// (BOM, invalid UTF-8, Excel ="..." cells, ragged rows); writing always emits
// the caller's fixed column order with a header line.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/spregistry/internal/store/table"
)

// HeaderIndex maps column names (lowercase) to their position in a CSV row.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// ValidateHeaders checks that every required column exists in the header.
func ValidateHeaders(header []string, required []string) (HeaderIndex, error) {
	idx := MakeHeaderIndex(header)
	var missing []string

	for _, col := range required {
		if _, ok := idx[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, the Excel formula wrapper (="..."), a leading '='
// and surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// ReadTable parses a CSV table with a header line. Rows are keyed by the
// canonical names in columns (matched case-insensitively); other header
// columns are kept under their cleaned header name. Data cells are returned
// exactly as stored. An empty input yields no rows.
func ReadTable(r io.Reader, columns []string) ([]table.Row, error) {
	reader := csv.NewReader(Sanitize(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv header: %w", err)
	}

	idx, err := ValidateHeaders(header, columns)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(header))
	for i, h := range header {
		names[i] = CleanCell(h)
	}
	for _, col := range columns {
		names[idx[strings.ToLower(col)]] = col
	}

	var rows []table.Row
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv at line %d: %w", line, err)
		}
		if isBlank(record) {
			continue
		}

		row := make(table.Row, len(names))
		for i, name := range names {
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// WriteTable writes a header line followed by every row in column order.
func WriteTable(w io.Writer, columns []string, rows []table.Row) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(columns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row.Values(columns)); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
