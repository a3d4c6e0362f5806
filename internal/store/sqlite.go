// Package store mirrors the loaded dataset into an in-memory SQLite index
// that answers the lookup and aggregation endpoints.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/lox/crimelens/internal/dataset"
	"github.com/lox/crimelens/internal/models"
)

// Dataset column names read into the index.
const (
	ColDistrict          = "district_name"
	ColUnit              = "unitname"
	ColBeat              = "beat_name"
	ColCrimeType         = "Crime_Type"
	ColCrimeGroup        = "crime_group_name"
	ColOffenceDate       = "Offence_From_Date_only"
	ColOffenceTime       = "Offence_From_Time_only"
	ColMonth             = "month"
	ColAccusedAge        = "accused_age"
	ColAccusedCaste      = "accused_caste"
	ColAccusedProfession = "accused_profession"
)

type Store struct {
	db  *sql.DB
	log *zap.Logger
}

func New(db *sql.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log}
}

// OpenMemory opens a private in-memory SQLite database. The pool is pinned
// to one connection because every new ":memory:" connection is a separate,
// empty database.
func OpenMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)
	return db, nil
}

// Index copies every row of t into the incidents table.
func (s *Store) Index(ctx context.Context, t *dataset.Table) error {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin index tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM incidents`); err != nil {
		return fmt.Errorf("clear incidents: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO incidents (row_index, district, unit, beat, crime_type, crime_group, offence_date, offence_time, month,
			accused_age, accused_caste, accused_profession, latitude, longitude, hour, month_num, week)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < t.Len(); i++ {
		inc := incidentFromRow(t, i)
		if _, err := stmt.ExecContext(ctx,
			inc.RowIndex, inc.District, inc.Unit, inc.Beat, inc.CrimeType, inc.CrimeGroup, inc.OffenceDate, inc.OffenceTime, inc.Month,
			inc.AccusedAge, inc.AccusedCaste, inc.AccusedProfession, inc.Latitude, inc.Longitude, inc.Hour, inc.MonthNum, inc.Week,
		); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit index: %w", err)
	}
	s.log.Info("dataset indexed", zap.Int("rows", t.Len()), zap.Duration("took", time.Since(start)))
	return nil
}

// Count returns the number of indexed incidents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM incidents`).Scan(&n)
	return n, err
}

func incidentFromRow(t *dataset.Table, i int) models.Incident {
	inc := models.Incident{
		RowIndex:          i,
		District:          t.String(i, ColDistrict),
		Unit:              t.String(i, ColUnit),
		Beat:              t.String(i, ColBeat),
		CrimeType:         t.String(i, ColCrimeType),
		CrimeGroup:        t.String(i, ColCrimeGroup),
		OffenceDate:       strings.TrimSpace(t.String(i, ColOffenceDate)),
		OffenceTime:       strings.TrimSpace(t.String(i, ColOffenceTime)),
		Month:             t.String(i, ColMonth),
		AccusedAge:        t.String(i, ColAccusedAge),
		AccusedCaste:      t.String(i, ColAccusedCaste),
		AccusedProfession: t.String(i, ColAccusedProfession),
	}
	if lat, ok := dataset.ToFloat(t.Cell(i, dataset.ColumnLatitude)); ok {
		inc.Latitude = sql.NullFloat64{Float64: lat, Valid: true}
	}
	if lon, ok := dataset.ToFloat(t.Cell(i, dataset.ColumnLongitude)); ok {
		inc.Longitude = sql.NullFloat64{Float64: lon, Valid: true}
	}
	if h, ok := parseHour(inc.OffenceTime); ok {
		inc.Hour = sql.NullInt64{Int64: int64(h), Valid: true}
	}
	if d, err := parseDate(inc.OffenceDate); err == nil {
		inc.MonthNum = sql.NullInt64{Int64: int64(d.Month()), Valid: true}
		inc.Week = sql.NullInt64{Int64: int64(WeekOfYear(d)), Valid: true}
	} else if m, ok := parseMonth(inc.OffenceDate); ok {
		inc.MonthNum = sql.NullInt64{Int64: int64(m), Valid: true}
	}
	return inc
}

// parseDate reads the YYYY-MM-DD prefix of a date, ignoring any time part.
func parseDate(s string) (time.Time, error) {
	if len(s) > 10 {
		s = s[:10]
	}
	return time.Parse("2006-01-02", s)
}

// WeekOfYear numbers weeks from January 1st: days 1-7 are week 1.
func WeekOfYear(d time.Time) int {
	return (d.YearDay() + 6) / 7
}

func parseHour(s string) (int, bool) {
	head, _, ok := strings.Cut(s, ":")
	if !ok {
		return 0, false
	}
	h, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}

// parseMonth reads the month field of a loosely formatted Y-M-D date such as
// 2023-5-1 that parseDate rejected.
func parseMonth(date string) (int, bool) {
	parts := strings.SplitN(date, "-", 3)
	if len(parts) < 2 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 1 || m > 12 {
		return 0, false
	}
	return m, true
}
