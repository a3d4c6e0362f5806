package dataset

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/crimelens/internal/apperr"
)

const fiveRows = `latitude,longitude,id
1,1,1
2,2,2
3,3,3
0,5,4
4,4,5
`

func parse(t *testing.T, csv string) *Table {
	t.Helper()
	tbl, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	return tbl
}

func ids(recs []Record) []int64 {
	out := make([]int64, 0, len(recs))
	for _, r := range recs {
		out = append(out, r["id"].(int64))
	}
	return out
}

func TestParse_DropsZeroCoordinates(t *testing.T) {
	tbl := parse(t, fiveRows)

	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, 1, tbl.Dropped())
	for i := 0; i < tbl.Len(); i++ {
		lat, _ := ToFloat(tbl.Cell(i, ColumnLatitude))
		lon, _ := ToFloat(tbl.Cell(i, ColumnLongitude))
		assert.NotZero(t, lat, "row %d latitude", i)
		assert.NotZero(t, lon, "row %d longitude", i)
	}
}

func TestParse_ZeroLongitudeAndFloatZero(t *testing.T) {
	tbl := parse(t, `latitude,longitude,id
12.9,0.0,1
0.000,77.5,2
12.9,77.5,3
`)
	assert.Equal(t, []int64{3}, ids(tbl.Slice(1, 10)))
}

func TestParse_MissingCoordinatesKept(t *testing.T) {
	tbl := parse(t, `latitude,longitude,id
,77.5,1
12.9,NaN,2
`)
	require.Equal(t, 2, tbl.Len())
	assert.Nil(t, tbl.Row(0)[ColumnLatitude])
	assert.Nil(t, tbl.Row(1)[ColumnLongitude])
}

func TestSlice_Pagination(t *testing.T) {
	tbl := parse(t, fiveRows)

	tests := []struct {
		name    string
		page    int
		perPage int
		want    []int64
	}{
		{"page 2 of size 2", 2, 2, []int64{3, 5}},
		{"first page", 1, 2, []int64{1, 2}},
		{"partial last page", 2, 3, []int64{5}},
		{"whole table", 1, 100, []int64{1, 2, 3, 5}},
		{"past the end", 3, 2, []int64{}},
		{"far past the end", 1 << 40, 1 << 40, []int64{}},
		{"zero page", 0, 2, []int64{}},
		{"zero per page", 1, 0, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tbl.Slice(tt.page, tt.perPage)
			require.NotNil(t, got)
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("Slice(%d, %d) mismatch (-want +got):\n%s", tt.page, tt.perPage, diff)
			}
		})
	}
}

func TestSlice_MatchesSourceRows(t *testing.T) {
	tbl := parse(t, fiveRows)
	for perPage := 1; perPage <= 5; perPage++ {
		for page := 1; page <= 6; page++ {
			got := tbl.Slice(page, perPage)
			start := (page - 1) * perPage
			for k, rec := range got {
				assert.Equal(t, tbl.Row(start+k), rec)
			}
			assert.LessOrEqual(t, len(got), perPage)
		}
	}
}

func TestRow_MissingValuesAreNull(t *testing.T) {
	tbl := parse(t, `latitude,longitude,crime,age,score
12.9,77.5,Theft,,1.5
12.8,77.4,,34,NaN
12.7,77.3,N/A,NA,
`)

	recs := tbl.Slice(1, 10)
	require.Len(t, recs, 3)

	assert.Equal(t, "Theft", recs[0]["crime"])
	assert.Nil(t, recs[0]["age"])
	assert.Equal(t, 1.5, recs[0]["score"])

	assert.Nil(t, recs[1]["crime"])
	assert.Equal(t, int64(34), recs[1]["age"])
	assert.Nil(t, recs[1]["score"])

	assert.Nil(t, recs[2]["crime"])
	assert.Nil(t, recs[2]["age"])
	assert.Nil(t, recs[2]["score"])

	b, err := json.Marshal(recs[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"latitude":12.8,"longitude":77.4,"crime":null,"age":34,"score":null}`, string(b))
}

func TestParse_TypeInference(t *testing.T) {
	tbl := parse(t, `latitude,longitude,count,ratio,name
12.9,77.5,1,1,a
12.8,77.4,2,2.5,b
`)
	for col, want := range map[string]ColumnType{
		"latitude": TypeFloat,
		"count":    TypeInt,
		"ratio":    TypeFloat,
		"name":     TypeString,
	} {
		got, ok := tbl.ColumnType(col)
		require.True(t, ok, col)
		assert.Equal(t, want, got, col)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want string
	}{
		{"empty", "", "no header row"},
		{"missing latitude", "lat,longitude\n1,2\n", `missing required column "latitude"`},
		{"missing longitude", "latitude,lng\n1,2\n", `missing required column "longitude"`},
		{"duplicate column", "latitude,longitude,latitude\n1,2,3\n", "duplicate column"},
		{"too many fields", "latitude,longitude\n1,2,3\n", "header has 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.csv))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_ShortRowsPadded(t *testing.T) {
	tbl := parse(t, "latitude,longitude,crime\n12.9,77.5\n")
	require.Equal(t, 1, tbl.Len())
	assert.Nil(t, tbl.Row(0)["crime"])
}

func TestLoad_ConfigurationErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(context.Background(), FileSource(filepath.Join(dir, "missing.csv")))
	require.Error(t, err)
	assert.True(t, apperr.IsConfiguration(err))

	path := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name\n1,a\n"), 0o644))
	_, err = Load(context.Background(), FileSource(path))
	require.Error(t, err)
	assert.True(t, apperr.IsConfiguration(err))
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crimes.csv")
	require.NoError(t, os.WriteFile(path, []byte(fiveRows), 0o644))

	tbl, err := Load(context.Background(), FileSource(path))
	require.NoError(t, err)
	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, []string{"latitude", "longitude", "id"}, tbl.Columns())
}

func TestFrequency(t *testing.T) {
	tbl := parse(t, `latitude,longitude,district_name,unitname,Crime_Type
1,1,North,A,Theft
2,2,North,A,Theft
3,3,North,B,Assault
4,4,South,C,
`)

	all := tbl.Frequency(nil)
	assert.Equal(t, map[string]int{"North": 3, "South": 1}, all["district_name"])
	assert.Equal(t, map[string]int{"Theft": 2, "Assault": 1}, all["Crime_Type"])

	north := tbl.Frequency(Filter{"district_name": "North", "unitname": "A"})
	assert.Equal(t, map[string]int{"Theft": 2}, north["Crime_Type"])
	assert.Equal(t, map[string]int{"1": 1, "2": 1}, north["latitude"])

	none := tbl.Frequency(Filter{"district_name": "East"})
	assert.Empty(t, none["Crime_Type"])
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		name        string
		page, per   string
		wantPage    int
		wantPerPage int
		wantErr     bool
	}{
		{"defaults", "", "", 1, 100, false},
		{"explicit", "2", "25", 2, 25, false},
		{"whitespace", " 3 ", "", 3, 100, false},
		{"non numeric page", "two", "", 0, 0, true},
		{"non numeric per_page", "1", "ten", 0, 0, true},
		{"zero page", "0", "", 0, 0, true},
		{"negative per_page", "1", "-5", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, perPage, err := ParsePage(tt.page, tt.per)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.IsClientInput(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantPerPage, perPage)
		})
	}
}
