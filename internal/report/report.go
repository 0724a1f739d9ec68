package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/placenet-simulator/internal/domain"
)

// ErrNothingToPlot - нет точек для графика
var ErrNothingToPlot = errors.New("nothing to plot")

var csvHeader = []string{"epoch", "window_start", "window_end", "events", "infected_tally", "population_tally", "fraction", "recorded"}

// WriteSeriesCSV пишет агрегаты эпох, по строке на эпоху
func WriteSeriesCSV(w io.Writer, stats []domain.EpochStats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, s := range stats {
		row := []string{
			strconv.Itoa(s.Epoch),
			s.WindowStart.Format(time.DateTime),
			s.WindowEnd.Format(time.DateTime),
			strconv.Itoa(s.Events),
			strconv.Itoa(s.InfectedTally),
			strconv.Itoa(s.PopulationTally),
			strconv.FormatFloat(s.Fraction, 'g', -1, 64),
			strconv.FormatBool(s.Recorded),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write epoch %d: %w", s.Epoch, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteEdgesCSV пишет рёбра графа мест: from,to,weight
func WriteEdgesCSV(w io.Writer, edges []domain.Edge) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"from", "to", "weight"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, e := range edges {
		row := []string{
			strconv.FormatInt(e.From, 10),
			strconv.FormatInt(e.To, 10),
			strconv.Itoa(e.Weight),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write edge %d->%d: %w", e.From, e.To, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// RenderSeriesChart рисует долю заражённых по записанным эпохам (PNG)
func RenderSeriesChart(w io.Writer, series []float64) error {
	if len(series) == 0 {
		return ErrNothingToPlot
	}

	xs := make([]float64, len(series))
	yMax := 0.0
	for i, v := range series {
		xs[i] = float64(i)
		yMax = max(yMax, v)
	}

	graph := chart.Chart{
		Width:  1024,
		Height: 512,
		XAxis: chart.XAxis{
			Name:  "epoch",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: 0, Max: max(float64(len(series)-1), 1)},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "fraction infected",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: 0, Max: padded(yMax)},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "fraction infected",
				XValues: xs,
				YValues: series,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    3,
					DotColor:    drawing.ColorBlack,
				},
			},
		},
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render series chart: %w", err)
	}
	return nil
}

// MapTitle - подпись карты: дата, процент заражённых мест и их общее число
func MapTitle(at time.Time, infected, total int) string {
	pct := 0.0
	if total > 0 {
		pct = float64(infected) / float64(total) * 100
	}
	return fmt.Sprintf("%s %.2f%% of %d places infected", at.Format("01/02/2006"), pct, total)
}

// RenderInfectedMap рисует заражённые места в координатах долгота/широта (PNG)
func RenderInfectedMap(w io.Writer, places []domain.PlaceSnapshot, totalPlaces int, at time.Time) error {
	if len(places) == 0 {
		return ErrNothingToPlot
	}

	lons := make([]float64, len(places))
	lats := make([]float64, len(places))
	box := domain.PointBox(places[0].Point)
	for i, p := range places {
		lons[i] = p.Point.Lon
		lats[i] = p.Point.Lat
		box = box.Extend(p.Point)
	}

	graph := chart.Chart{
		Title:  MapTitle(at, len(places), totalPlaces),
		Width:  1024,
		Height: 1024,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "longitude",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: box.MinLon - margin(box.MaxLon-box.MinLon), Max: box.MaxLon + margin(box.MaxLon-box.MinLon)},
		},
		YAxis: chart.YAxis{
			Name:  "latitude",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: box.MinLat - margin(box.MaxLat-box.MinLat), Max: box.MaxLat + margin(box.MaxLat-box.MinLat)},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "infected places",
				XValues: lons,
				YValues: lats,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    2,
					DotColor:    drawing.ColorRed.WithAlpha(128),
				},
			},
		},
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render infected map: %w", err)
	}
	return nil
}

func padded(v float64) float64 {
	if v <= 0 {
		return 1e-3
	}
	return v * 1.05
}

// margin - отступ вокруг облака точек; для вырожденного диапазона 0.01 градуса
func margin(span float64) float64 {
	if span <= 0 {
		return 0.01
	}
	return span * 0.05
}
