package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lox/crimelens/internal/apperr"
)

// missingMarkers are the cell values treated as missing, matching what
// pandas.read_csv recognises by default.
var missingMarkers = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"NaN":  true,
	"nan":  true,
	"-NaN": true,
	"-nan": true,
	"null": true,
	"NULL": true,
	"None": true,
	"#N/A": true,
	"#NA":  true,
	"<NA>": true,
}

// IsMissing reports whether a raw CSV cell is a missing-value marker.
func IsMissing(s string) bool {
	return missingMarkers[s]
}

// Load reads the dataset from src, infers column types and drops rows whose
// latitude or longitude is zero. Every failure is a ConfigurationError: the
// process cannot serve without its table.
func Load(ctx context.Context, src Source) (*Table, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, apperr.Configuration("dataset", fmt.Errorf("open %s: %w", src, err))
	}
	defer rc.Close()

	t, err := Parse(rc)
	if err != nil {
		return nil, apperr.Configuration("dataset", fmt.Errorf("%s: %w", src, err))
	}
	return t, nil
}

// Parse reads CSV with a header row from r.
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty dataset: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	seen := make(map[string]bool, len(header))
	for _, name := range header {
		if seen[name] {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = true
	}
	for _, name := range RequiredColumns {
		if !seen[name] {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	var raw [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %d fields, header has %d", line, len(rec), len(header))
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		raw = append(raw, rec)
	}

	types := inferTypes(len(header), raw)
	rows := make([][]Value, 0, len(raw))
	for _, rec := range raw {
		row := make([]Value, len(header))
		for c, cell := range rec {
			row[c] = convert(cell, types[c])
		}
		rows = append(rows, row)
	}

	t := newTable(header, types, rows)
	t.filterCoordinates()
	return t, nil
}

// filterCoordinates drops rows where latitude or longitude equals zero.
// Missing coordinates are kept.
func (t *Table) filterCoordinates() {
	lat := t.index[ColumnLatitude]
	lon := t.index[ColumnLongitude]

	kept := t.rows[:0]
	for _, row := range t.rows {
		if isZero(row[lat]) || isZero(row[lon]) {
			t.dropped++
			continue
		}
		kept = append(kept, row)
	}
	t.rows = kept
}

func inferTypes(n int, raw [][]string) []ColumnType {
	types := make([]ColumnType, n)
	for c := 0; c < n; c++ {
		isInt, isFloat := true, true
		for _, rec := range raw {
			s := rec[c]
			if IsMissing(s) {
				continue
			}
			if isInt {
				if _, err := strconv.ParseInt(s, 10, 64); err != nil {
					isInt = false
				}
			}
			if !isInt {
				if _, err := strconv.ParseFloat(s, 64); err != nil {
					isFloat = false
					break
				}
			}
		}
		switch {
		case isInt:
			types[c] = TypeInt
		case isFloat:
			types[c] = TypeFloat
		default:
			types[c] = TypeString
		}
	}
	return types
}

func convert(s string, typ ColumnType) Value {
	if IsMissing(s) {
		return nil
	}
	switch typ {
	case TypeInt:
		v, _ := strconv.ParseInt(s, 10, 64)
		return v
	case TypeFloat:
		v, _ := strconv.ParseFloat(s, 64)
		return v
	default:
		return s
	}
}

func isZero(v Value) bool {
	switch x := v.(type) {
	case int64:
		return x == 0
	case float64:
		return x == 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return err == nil && f == 0
	default:
		return false
	}
}

// ToFloat returns v as a float64 when it is numeric or numeric text.
func ToFloat(v Value) (float64, bool) {
	switch x := normalize(v).(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func formatValue(v Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
