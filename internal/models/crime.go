package models

import "database/sql"

// Incident is the subset of a dataset row mirrored into the lookup index.
type Incident struct {
	RowIndex          int
	District          string
	Unit              string
	Beat              string
	CrimeType         string
	CrimeGroup        string
	OffenceDate       string // YYYY-MM-DD
	OffenceTime       string // HH:MM[:SS]
	Month             string
	AccusedAge        string
	AccusedCaste      string
	AccusedProfession string
	Latitude          sql.NullFloat64
	Longitude         sql.NullFloat64
	Hour              sql.NullInt64
	MonthNum          sql.NullInt64
	Week              sql.NullInt64
}

// HourBucket counts incidents in one hour of the day.
type HourBucket struct {
	Hour      string `json:"hour"`
	Count     int    `json:"count"`
	TopCrimes string `json:"topCrimes"`
}

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type WeekCount struct {
	Week  int `json:"week"`
	Count int `json:"count"`
}

// Occurrence is a value and how often it appears.
type Occurrence struct {
	Value string `json:"value"`
	Freq  int    `json:"freq"`
}

type LatLong struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	CrimeType string  `json:"crimeType"`
}

type Demographics struct {
	AccusedAge        []Occurrence `json:"accusedAge"`
	AccusedCaste      []Occurrence `json:"accusedCaste"`
	AccusedProfession []Occurrence `json:"accusedProfession"`
}

// DetailsQuery narrows the details summary. A month range takes precedence
// over a time range when both are set.
type DetailsQuery struct {
	District   string `json:"district"`
	Unit       string `json:"unit"`
	StartMonth int    `json:"startMonth"`
	EndMonth   int    `json:"endMonth"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}

type Details struct {
	AllLatLong     []LatLong    `json:"allLatLong"`
	TopCrimeGroups []Occurrence `json:"topCrimeGroups"`
	TopCrimes      []Occurrence `json:"topCrimes"`
	TopMonths      []Occurrence `json:"topMonths"`
	Demographics   Demographics `json:"demographics"`
}
