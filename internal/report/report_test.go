package report_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placenet-simulator/internal/domain"
	"github.com/placenet-simulator/internal/report"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestWriteSeriesCSV(t *testing.T) {
	day := time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)
	stats := []domain.EpochStats{
		{Epoch: 0, WindowStart: day, WindowEnd: day.Add(24 * time.Hour), Events: 4, InfectedTally: 2, PopulationTally: 9, Fraction: 0.25, Recorded: true},
		{Epoch: 1, WindowStart: day.Add(24 * time.Hour), WindowEnd: day.Add(48 * time.Hour)},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteSeriesCSV(&buf, stats))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "epoch", rows[0][0])
	assert.Equal(t, []string{"0", "2011-01-01 00:00:00", "2011-01-02 00:00:00", "4", "2", "9", "0.25", "true"}, rows[1])
	assert.Equal(t, "false", rows[2][7])
}

func TestWriteEdgesCSV(t *testing.T) {
	edges := []domain.Edge{
		{From: 1, To: 2, Weight: 2},
		{From: 2, To: 3, Weight: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteEdgesCSV(&buf, edges))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"from", "to", "weight"},
		{"1", "2", "2"},
		{"2", "3", "1"},
	}, rows)

	buf.Reset()
	require.NoError(t, report.WriteEdgesCSV(&buf, nil))
	assert.Equal(t, "from,to,weight\n", buf.String())
}

func TestRenderSeriesChart(t *testing.T) {
	t.Run("renders png", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, report.RenderSeriesChart(&buf, []float64{0, 0.01, 0.02, 0.015}))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
	})

	t.Run("flat zero series", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, report.RenderSeriesChart(&buf, []float64{0, 0}))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
	})

	t.Run("empty series", func(t *testing.T) {
		var buf bytes.Buffer
		assert.ErrorIs(t, report.RenderSeriesChart(&buf, nil), report.ErrNothingToPlot)
	})
}

func TestRenderInfectedMap(t *testing.T) {
	at := time.Date(2011, 3, 5, 0, 0, 0, 0, time.UTC)

	t.Run("renders png", func(t *testing.T) {
		places := []domain.PlaceSnapshot{
			{PlaceID: 1, Point: domain.Point{Lat: 40.76, Lon: -73.98}, Infected: 1, Population: 4},
			{PlaceID: 2, Point: domain.Point{Lat: 40.70, Lon: -73.90}, Infected: 2, Population: 2},
		}
		var buf bytes.Buffer
		require.NoError(t, report.RenderInfectedMap(&buf, places, 10, at))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
	})

	t.Run("nothing infected", func(t *testing.T) {
		var buf bytes.Buffer
		assert.ErrorIs(t, report.RenderInfectedMap(&buf, nil, 10, at), report.ErrNothingToPlot)
	})
}

func TestMapTitle(t *testing.T) {
	at := time.Date(2011, 3, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "03/05/2011 12.50% of 8 places infected", report.MapTitle(at, 1, 8))
	assert.Equal(t, "03/05/2011 0.00% of 0 places infected", report.MapTitle(at, 0, 0))
}
