package file_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/placenet-simulator/internal/domain"
	"github.com/placenet-simulator/internal/repository/file"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseLocationLine(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    domain.LocationRecord
		wantErr string
	}{
		{
			name: "full tuple",
			text: `12*;*(40.760265, -73.989105, 'Italian', '217', '291', 'Ristorante Da Rosina')`,
			want: domain.LocationRecord{PlaceID: 12, Info: domain.PlaceInfo{
				Lat: 40.760265, Lon: -73.989105, Category: "Italian",
				CheckinsCount: "217", UsersCount: "291", Name: "Ristorante Da Rosina",
			}},
		},
		{
			name: "quotes and commas inside names",
			text: `7*;*(40.7, -73.9, "Bar", '1', '2', 'Joe\'s, Downtown')`,
			want: domain.LocationRecord{PlaceID: 7, Info: domain.PlaceInfo{
				Lat: 40.7, Lon: -73.9, Category: "Bar",
				CheckinsCount: "1", UsersCount: "2", Name: "Joe's, Downtown",
			}},
		},
		{
			name: "short tuple",
			text: `3*;*(1.5, 2.5)`,
			want: domain.LocationRecord{PlaceID: 3, Info: domain.PlaceInfo{Lat: 1.5, Lon: 2.5}},
		},
		{name: "missing separator", text: `3 (1.5, 2.5)`, wantErr: "record"},
		{name: "bad id", text: `x*;*(1.5, 2.5)`, wantErr: "place_id"},
		{name: "not a tuple", text: `3*;*1.5, 2.5`, wantErr: "info"},
		{name: "bad latitude", text: `3*;*('north', 2.5)`, wantErr: "lat"},
		{name: "latitude out of range", text: `3*;*(91.0, 2.5)`, wantErr: "info"},
		{name: "unterminated string", text: `3*;*(1.5, 2.5, 'Cafe)`, wantErr: "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := file.ParseLocationLine(4, tt.text)
			if tt.wantErr != "" {
				var malformed *domain.MalformedRecordError
				require.ErrorAs(t, err, &malformed)
				assert.Equal(t, 4, malformed.Line)
				assert.Equal(t, tt.wantErr, malformed.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec)
		})
	}
}

func TestLocationRepository_LoadLocations(t *testing.T) {
	path := writeFile(t, "locations.txt", strings.Join([]string{
		`1*;*(40.1, -73.1, 'Cafe', '10', '5', 'One')`,
		``,
		`broken line`,
		`2*;*(40.2, -73.2, 'Park', '20', '8', 'Two')`,
	}, "\n"))

	repo := file.NewLocationRepository(path, zap.NewNop())
	records, err := repo.LoadLocations(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].PlaceID)
	assert.Equal(t, "Two", records[1].Info.Name)
}

func TestLocationRepository_MissingFile(t *testing.T) {
	repo := file.NewLocationRepository(filepath.Join(t.TempDir(), "none.txt"), zap.NewNop())
	_, err := repo.LoadLocations(context.Background())
	assert.Error(t, err)
}

func TestReadTransitions(t *testing.T) {
	content := "id,venue1,venue2,timestamp1,timestamp2\n" +
		"0,1,2,2011-01-01 10:00:00,2011-01-01 11:00:00\n" +
		"1,x,2,2011-01-01 10:00:00,2011-01-01 11:00:00\n" +
		"2,2,3,2011-01-02 10:00:00\n" +
		"3,3,1, not a date ,2011-01-03 11:00:00\n"

	rows, stats, err := file.ReadTransitions(context.Background(), strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, domain.FeedStats{Rows: 4, Malformed: 2}, stats)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.RawTransition{
		Line:        2,
		Origin:      1,
		Destination: 2,
		Departure:   "2011-01-01 10:00:00",
		Arrival:     "2011-01-01 11:00:00",
	}, rows[0])
	// timestamps are passed through unparsed
	assert.Equal(t, "not a date", rows[1].Departure)
	assert.Equal(t, 5, rows[1].Line)
}

func TestReadTransitions_Header(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		rows, stats, err := file.ReadTransitions(context.Background(), strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, rows)
		assert.Zero(t, stats.Rows)
	})

	t.Run("missing column", func(t *testing.T) {
		_, _, err := file.ReadTransitions(context.Background(), strings.NewReader("venue1,venue2,timestamp1\n1,2,x\n"))
		var malformed *domain.MalformedRecordError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "timestamp2", malformed.Field)
	})

	t.Run("reordered columns", func(t *testing.T) {
		rows, _, err := file.ReadTransitions(context.Background(),
			strings.NewReader("timestamp2,timestamp1,venue2,venue1\nb,a,9,8\n"))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(8), rows[0].Origin)
		assert.Equal(t, int64(9), rows[0].Destination)
		assert.Equal(t, "a", rows[0].Departure)
	})
}

func TestTransitionRepository_LoadTransitions(t *testing.T) {
	path := writeFile(t, "transitions.csv",
		"venue1,venue2,timestamp1,timestamp2\n1,2,2011-01-01 10:00:00,2011-01-01 11:00:00\n")

	repo := file.NewTransitionRepository(path, zap.NewNop())
	rows, stats, err := repo.LoadTransitions(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, stats.Rows)
}
