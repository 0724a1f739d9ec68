package file

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/placenet-simulator/internal/domain"
	"github.com/placenet-simulator/internal/domain/repository"
)

// Колонки фида перемещений
const (
	columnOrigin      = "venue1"
	columnDestination = "venue2"
	columnDeparture   = "timestamp1"
	columnArrival     = "timestamp2"
)

type transitionRepository struct {
	path   string
	logger *zap.Logger
}

// NewTransitionRepository читает CSV фид перемещений с заголовком venue1,venue2,timestamp1,timestamp2.
// Лишние колонки игнорируются, порядок колонок произвольный.
func NewTransitionRepository(path string, logger *zap.Logger) repository.TransitionRepository {
	return &transitionRepository{
		path:   path,
		logger: logger,
	}
}

func (r *transitionRepository) LoadTransitions(ctx context.Context) ([]domain.RawTransition, domain.FeedStats, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, domain.FeedStats{}, fmt.Errorf("failed to open transitions feed: %w", err)
	}
	defer f.Close()

	rows, stats, err := ReadTransitions(ctx, f)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read %s: %w", r.path, err)
	}

	r.logger.Info("Transitions loaded",
		zap.String("path", r.path),
		zap.Int("rows", stats.Rows),
		zap.Int("malformed", stats.Malformed))

	return rows, stats, nil
}

// ReadTransitions разбирает CSV. Строки с неверным числом полей или нечисловыми
// идентификаторами пропускаются и учитываются в FeedStats.Malformed.
// Временные метки не разбираются.
func ReadTransitions(ctx context.Context, src io.Reader) ([]domain.RawTransition, domain.FeedStats, error) {
	var stats domain.FeedStats

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, nil
		}
		return nil, stats, fmt.Errorf("failed to read header: %w", err)
	}

	idx, err := columnIndex(header)
	if err != nil {
		return nil, stats, err
	}
	width := len(header)

	var rows []domain.RawTransition
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			stats.Rows++
			stats.Malformed++
			continue
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read row: %w", err)
		}

		stats.Rows++
		line, _ := reader.FieldPos(0)
		if stats.Rows%100000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}

		if len(record) != width {
			stats.Malformed++
			continue
		}

		origin, err := strconv.ParseInt(strings.TrimSpace(record[idx[columnOrigin]]), 10, 64)
		if err != nil {
			stats.Malformed++
			continue
		}
		destination, err := strconv.ParseInt(strings.TrimSpace(record[idx[columnDestination]]), 10, 64)
		if err != nil {
			stats.Malformed++
			continue
		}

		rows = append(rows, domain.RawTransition{
			Line:        line,
			Origin:      origin,
			Destination: destination,
			Departure:   strings.TrimSpace(record[idx[columnDeparture]]),
			Arrival:     strings.TrimSpace(record[idx[columnArrival]]),
		})
	}

	return rows, stats, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range []string{columnOrigin, columnDestination, columnDeparture, columnArrival} {
		if _, ok := idx[col]; !ok {
			return nil, &domain.MalformedRecordError{Line: 1, Field: col, Reason: "column missing from header"}
		}
	}
	return idx, nil
}
