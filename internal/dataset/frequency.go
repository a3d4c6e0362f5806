package dataset

// Filter selects rows by exact, case-sensitive column values. Empty values
// match everything.
type Filter map[string]string

func (t *Table) matches(i int, f Filter) bool {
	for col, want := range f {
		if want == "" {
			continue
		}
		if t.String(i, col) != want {
			return false
		}
	}
	return true
}

// Frequency counts how often each value appears in each column across the
// rows selected by f. Missing cells are not counted.
func (t *Table) Frequency(f Filter) map[string]map[string]int {
	out := make(map[string]map[string]int, len(t.columns))
	for _, name := range t.columns {
		out[name] = make(map[string]int)
	}
	for i := range t.rows {
		if !t.matches(i, f) {
			continue
		}
		for c, name := range t.columns {
			v := normalize(t.rows[i][c])
			if v == nil {
				continue
			}
			out[name][formatValue(v)]++
		}
	}
	return out
}
