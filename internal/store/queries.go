package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lox/crimelens/internal/models"
)

const (
	topCount       = 10
	topDemographic = 3
	topHourCrimes  = 3
)

type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.clauses, " AND ")
}

func (s *Store) distinct(ctx context.Context, column string, w *where) ([]string, error) {
	w.add(column + " <> ''")
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT DISTINCT %s FROM incidents %s ORDER BY %s`, column, w, column),
		w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Districts lists every district in the dataset.
func (s *Store) Districts(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "district", &where{})
}

// Units lists the police units (stations) of a district.
func (s *Store) Units(ctx context.Context, district string) ([]string, error) {
	w := &where{}
	w.add("district = ?", district)
	return s.distinct(ctx, "unit", w)
}

// Beats lists the beats patrolled by a unit.
func (s *Store) Beats(ctx context.Context, unit string) ([]string, error) {
	w := &where{}
	w.add("unit = ?", unit)
	return s.distinct(ctx, "beat", w)
}

// RowsByBeat returns the table row indices of every incident in a beat.
func (s *Store) RowsByBeat(ctx context.Context, beat string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT row_index FROM incidents WHERE beat = ? ORDER BY row_index`, beat)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []int{}
	for rows.Next() {
		var i int
		if err := rows.Scan(&i); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// CrimeByHour returns 24 buckets, one per hour of the day, with the three
// most frequent crime types in each.
func (s *Store) CrimeByHour(ctx context.Context, district, unit string) ([]models.HourBucket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hour, CASE WHEN crime_type = '' THEN 'Unknown' ELSE crime_type END AS crime, COUNT(*)
		FROM incidents
		WHERE district = ? AND unit = ? AND hour IS NOT NULL
		GROUP BY hour, crime
	`, district, unit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals [24]int
	var crimes [24][]models.Occurrence
	for rows.Next() {
		var hour, count int
		var crime string
		if err := rows.Scan(&hour, &crime, &count); err != nil {
			return nil, err
		}
		if hour < 0 || hour > 23 {
			continue
		}
		totals[hour] += count
		crimes[hour] = append(crimes[hour], models.Occurrence{Value: crime, Freq: count})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.HourBucket, 24)
	for h := range out {
		top := topN(crimes[h], topHourCrimes)
		label := "No data"
		if len(top) > 0 {
			parts := make([]string, len(top))
			for i, o := range top {
				parts[i] = fmt.Sprintf("%s (%d)", o.Value, o.Freq)
			}
			label = strings.Join(parts, ", ")
		}
		out[h] = models.HourBucket{Hour: fmt.Sprintf("%d:00", h), Count: totals[h], TopCrimes: label}
	}
	return out, nil
}

// CrimeByMonth counts incidents per calendar month, in month order.
func (s *Store) CrimeByMonth(ctx context.Context, district, unit string) ([]models.MonthCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT month_num, COUNT(*) FROM incidents
		WHERE district = ? AND unit = ? AND month_num IS NOT NULL
		GROUP BY month_num ORDER BY month_num
	`, district, unit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.MonthCount{}
	for rows.Next() {
		var m, n int
		if err := rows.Scan(&m, &n); err != nil {
			return nil, err
		}
		out = append(out, models.MonthCount{Month: fmt.Sprintf("%02d", m), Count: n})
	}
	return out, rows.Err()
}

// CrimeByWeek counts incidents per week of the year, in week order.
func (s *Store) CrimeByWeek(ctx context.Context, district, unit string) ([]models.WeekCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT week, COUNT(*) FROM incidents
		WHERE district = ? AND unit = ? AND week IS NOT NULL
		GROUP BY week ORDER BY week
	`, district, unit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.WeekCount{}
	for rows.Next() {
		var wk models.WeekCount
		if err := rows.Scan(&wk.Week, &wk.Count); err != nil {
			return nil, err
		}
		out = append(out, wk)
	}
	return out, rows.Err()
}

// Details summarises the incidents selected by q: every coordinate with its
// crime type, the top crime groups, crimes and months, and the top accused
// demographics.
func (s *Store) Details(ctx context.Context, q models.DetailsQuery) (*models.Details, error) {
	w := &where{}
	if q.District != "" {
		w.add("district = ?", q.District)
	}
	if q.Unit != "" {
		w.add("unit = ?", q.Unit)
	}
	switch {
	case q.StartMonth > 0 && q.EndMonth > 0:
		w.add("month_num BETWEEN ? AND ?", q.StartMonth, q.EndMonth)
	case q.StartTime != "" && q.EndTime != "":
		w.add("offence_time >= ? AND offence_time <= ?", q.StartTime, q.EndTime)
	}

	d := &models.Details{AllLatLong: []models.LatLong{}}

	pw := &where{clauses: append([]string{}, w.clauses...), args: append([]any{}, w.args...)}
	pw.add("latitude IS NOT NULL AND longitude IS NOT NULL")
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT latitude, longitude, crime_type FROM incidents %s ORDER BY row_index`, pw),
		pw.args...)
	if err != nil {
		return nil, fmt.Errorf("details coordinates: %w", err)
	}
	for rows.Next() {
		var ll models.LatLong
		if err := rows.Scan(&ll.Latitude, &ll.Longitude, &ll.CrimeType); err != nil {
			rows.Close()
			return nil, err
		}
		d.AllLatLong = append(d.AllLatLong, ll)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, f := range []struct {
		column string
		limit  int
		dst    *[]models.Occurrence
	}{
		{"crime_group", topCount, &d.TopCrimeGroups},
		{"crime_type", topCount, &d.TopCrimes},
		{"month", topCount, &d.TopMonths},
		{"accused_age", topDemographic, &d.Demographics.AccusedAge},
		{"accused_caste", topDemographic, &d.Demographics.AccusedCaste},
		{"accused_profession", topDemographic, &d.Demographics.AccusedProfession},
	} {
		top, err := s.topOccurrences(ctx, f.column, w, f.limit)
		if err != nil {
			return nil, fmt.Errorf("details %s: %w", f.column, err)
		}
		*f.dst = top
	}
	return d, nil
}

func (s *Store) topOccurrences(ctx context.Context, column string, w *where, limit int) ([]models.Occurrence, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s, COUNT(*) FROM incidents %s GROUP BY %s`, column, w, column),
		w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []models.Occurrence
	for rows.Next() {
		var o models.Occurrence
		if err := rows.Scan(&o.Value, &o.Freq); err != nil {
			return nil, err
		}
		if isBlank(o.Value) {
			continue
		}
		all = append(all, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return topN(all, limit), nil
}

// isBlank reports whether v carries no information: empty or made only of
// dashes, commas and whitespace.
func isBlank(v string) bool {
	return strings.TrimFunc(v, func(r rune) bool {
		return r == '-' || r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}) == ""
}

// topN sorts by frequency descending, then value, and keeps the first n.
func topN(occ []models.Occurrence, n int) []models.Occurrence {
	sorted := append([]models.Occurrence{}, occ...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Freq != sorted[j].Freq {
			return sorted[i].Freq > sorted[j].Freq
		}
		return sorted[i].Value < sorted[j].Value
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
